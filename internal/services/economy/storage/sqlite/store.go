package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/guildwork/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/guildwork/internal/services/economy/domain/progression"
	"github.com/louisbranch/guildwork/internal/services/economy/storage"
	"github.com/louisbranch/guildwork/internal/services/economy/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const statAverageLevel = "average_level"

// Store provides SQLite-backed economy persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens an economy SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreatePlayer inserts a new player at version 1.
func (s *Store) CreatePlayer(ctx context.Context, record storage.PlayerRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	record.PlayerID = strings.TrimSpace(record.PlayerID)
	if record.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	e := record.Energy
	p := record.Progression
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO players (
	player_id,
	energy_current,
	energy_max,
	energy_last_update,
	regen_multiplier,
	regen_boost_expiry,
	overflow_expiry,
	recovery_zone_id,
	recovery_zone_entry_time,
	passive_max_energy_bonus,
	passive_efficiency_bonus,
	experience,
	level,
	total_lifetime_experience,
	prestige_level,
	prestige_points,
	version,
	created_at,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
`,
		record.PlayerID,
		e.Current,
		e.Max,
		toMillis(e.LastUpdate),
		e.RegenMultiplier,
		toMillis(e.RegenBoostExpiry),
		toMillis(e.OverflowExpiry),
		e.RecoveryZoneID,
		toMillis(e.RecoveryZoneEntryTime),
		e.PassiveMaxEnergyBonus,
		e.PassiveEfficiencyBonus,
		p.Experience,
		p.Level,
		p.TotalLifetimeExperience,
		p.PrestigeLevel,
		p.PrestigePoints,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

// GetPlayer returns one player record.
func (s *Store) GetPlayer(ctx context.Context, playerID string) (storage.PlayerRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PlayerRecord{}, err
	}
	return getPlayer(ctx, s.sqlDB, strings.TrimSpace(playerID))
}

// UpdatePlayer compares versions, writes the ledgers, and records new
// milestones in one transaction.
func (s *Store) UpdatePlayer(ctx context.Context, update storage.PlayerUpdate) (storage.PlayerRecord, []storage.MilestoneRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PlayerRecord{}, nil, err
	}
	update.PlayerID = strings.TrimSpace(update.PlayerID)
	if update.PlayerID == "" {
		return storage.PlayerRecord{}, nil, fmt.Errorf("player id is required")
	}
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.PlayerRecord{}, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	e := update.Energy
	p := update.Progression
	result, err := tx.ExecContext(ctx, `
UPDATE players SET
	energy_current = ?,
	energy_max = ?,
	energy_last_update = ?,
	regen_multiplier = ?,
	regen_boost_expiry = ?,
	overflow_expiry = ?,
	recovery_zone_id = ?,
	recovery_zone_entry_time = ?,
	passive_max_energy_bonus = ?,
	passive_efficiency_bonus = ?,
	experience = ?,
	level = ?,
	total_lifetime_experience = ?,
	prestige_level = ?,
	prestige_points = ?,
	version = version + 1,
	updated_at = ?
WHERE player_id = ? AND version = ?
`,
		e.Current,
		e.Max,
		toMillis(e.LastUpdate),
		e.RegenMultiplier,
		toMillis(e.RegenBoostExpiry),
		toMillis(e.OverflowExpiry),
		e.RecoveryZoneID,
		toMillis(e.RecoveryZoneEntryTime),
		e.PassiveMaxEnergyBonus,
		e.PassiveEfficiencyBonus,
		p.Experience,
		p.Level,
		p.TotalLifetimeExperience,
		p.PrestigeLevel,
		p.PrestigePoints,
		toMillis(update.UpdatedAt),
		update.PlayerID,
		update.ExpectedVersion,
	)
	if err != nil {
		return storage.PlayerRecord{}, nil, fmt.Errorf("update player: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.PlayerRecord{}, nil, fmt.Errorf("update player rows: %w", err)
	}
	if affected == 0 {
		if _, err := getPlayer(ctx, tx, update.PlayerID); err != nil {
			return storage.PlayerRecord{}, nil, err
		}
		return storage.PlayerRecord{}, nil, storage.ErrVersionConflict
	}

	var created []storage.MilestoneRecord
	for _, milestone := range update.Milestones {
		if milestone.CreatedAt.IsZero() {
			milestone.CreatedAt = update.UpdatedAt
		}
		milestone.PlayerID = update.PlayerID
		result, err := tx.ExecContext(ctx, `
INSERT INTO milestones (player_id, level, reward_type, claimed, created_at, claimed_at)
VALUES (?, ?, ?, 0, ?, 0)
ON CONFLICT(player_id, level) DO NOTHING
`,
			milestone.PlayerID,
			milestone.Level,
			milestone.RewardType,
			toMillis(milestone.CreatedAt),
		)
		if err != nil {
			return storage.PlayerRecord{}, nil, fmt.Errorf("record milestone %d: %w", milestone.Level, err)
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return storage.PlayerRecord{}, nil, fmt.Errorf("record milestone rows: %w", err)
		}
		if inserted == 1 {
			milestone.Claimed = false
			milestone.ClaimedAt = time.Time{}
			created = append(created, milestone)
		}
	}

	record, err := getPlayer(ctx, tx, update.PlayerID)
	if err != nil {
		return storage.PlayerRecord{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return storage.PlayerRecord{}, nil, fmt.Errorf("commit: %w", err)
	}
	return record, created, nil
}

// AverageLevel returns the mean level of registered players.
func (s *Store) AverageLevel(ctx context.Context) (float64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var avg float64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COALESCE(AVG(level), 0) FROM players`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average level: %w", err)
	}
	return avg, nil
}

// ListMilestones lists a player's milestones by level.
func (s *Store) ListMilestones(ctx context.Context, playerID string) ([]storage.MilestoneRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT player_id, level, reward_type, claimed, created_at, claimed_at
FROM milestones
WHERE player_id = ?
ORDER BY level ASC
`, strings.TrimSpace(playerID))
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var records []storage.MilestoneRecord
	for rows.Next() {
		record, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate milestones: %w", err)
	}
	return records, nil
}

// ClaimMilestone flips the claimed flag once.
func (s *Store) ClaimMilestone(ctx context.Context, playerID string, level int, claimedAt time.Time) (storage.MilestoneRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.MilestoneRecord{}, err
	}
	playerID = strings.TrimSpace(playerID)
	if claimedAt.IsZero() {
		claimedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.MilestoneRecord{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
SELECT player_id, level, reward_type, claimed, created_at, claimed_at
FROM milestones
WHERE player_id = ? AND level = ?
`, playerID, level)
	record, err := scanMilestone(row)
	if err != nil {
		return storage.MilestoneRecord{}, err
	}
	if record.Claimed {
		return storage.MilestoneRecord{}, storage.ErrAlreadyClaimed
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE milestones SET claimed = 1, claimed_at = ?
WHERE player_id = ? AND level = ? AND claimed = 0
`, toMillis(claimedAt), playerID, level); err != nil {
		return storage.MilestoneRecord{}, fmt.Errorf("claim milestone: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.MilestoneRecord{}, fmt.Errorf("commit: %w", err)
	}
	record.Claimed = true
	record.ClaimedAt = fromMillis(toMillis(claimedAt))
	return record, nil
}

// PutMultiplierEvent inserts or replaces an event by id.
func (s *Store) PutMultiplierEvent(ctx context.Context, event progression.MultiplierEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	event.ID = strings.TrimSpace(event.ID)
	if event.ID == "" {
		return fmt.Errorf("event id is required")
	}
	userScope, err := encodeScope(event.UserScope)
	if err != nil {
		return err
	}
	zoneScope, err := encodeScope(event.ZoneScope)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO multiplier_events (id, multiplier, start_time, end_time, user_scope, zone_scope)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	multiplier = excluded.multiplier,
	start_time = excluded.start_time,
	end_time = excluded.end_time,
	user_scope = excluded.user_scope,
	zone_scope = excluded.zone_scope
`,
		event.ID,
		event.Multiplier,
		toMillis(event.StartTime),
		toMillis(event.EndTime),
		userScope,
		zoneScope,
	)
	if err != nil {
		return fmt.Errorf("put multiplier event: %w", err)
	}
	return nil
}

// DeleteMultiplierEvent removes one event.
func (s *Store) DeleteMultiplierEvent(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM multiplier_events WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete multiplier event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete multiplier event rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListActiveMultiplierEvents lists events whose window contains now.
func (s *Store) ListActiveMultiplierEvents(ctx context.Context, now time.Time) ([]progression.MultiplierEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	at := toMillis(now)
	return s.queryEvents(ctx, `
SELECT id, multiplier, start_time, end_time, user_scope, zone_scope
FROM multiplier_events
WHERE start_time <= ? AND end_time >= ?
ORDER BY start_time ASC, id ASC
`, at, at)
}

// ListMultiplierEvents lists every stored event.
func (s *Store) ListMultiplierEvents(ctx context.Context) ([]progression.MultiplierEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryEvents(ctx, `
SELECT id, multiplier, start_time, end_time, user_scope, zone_scope
FROM multiplier_events
ORDER BY start_time ASC, id ASC
`)
}

// DeleteExpiredMultiplierEvents removes events that ended before now.
func (s *Store) DeleteExpiredMultiplierEvents(ctx context.Context, now time.Time) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM multiplier_events WHERE end_time < ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired multiplier events: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired multiplier events rows: %w", err)
	}
	return int(affected), nil
}

// PutAverageLevel stores the server average level.
func (s *Store) PutAverageLevel(ctx context.Context, averageLevel float64, updatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO server_stats (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`, statAverageLevel, averageLevel, toMillis(updatedAt))
	if err != nil {
		return fmt.Errorf("put average level: %w", err)
	}
	return nil
}

// GetAverageLevel returns the stored server average level, 0 when unset.
func (s *Store) GetAverageLevel(ctx context.Context) (float64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var value float64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM server_stats WHERE name = ?`, statAverageLevel).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get average level: %w", err)
	}
	return value, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getPlayer(ctx context.Context, q queryRower, playerID string) (storage.PlayerRecord, error) {
	if playerID == "" {
		return storage.PlayerRecord{}, fmt.Errorf("player id is required")
	}
	row := q.QueryRowContext(ctx, `
SELECT
	player_id,
	energy_current,
	energy_max,
	energy_last_update,
	regen_multiplier,
	regen_boost_expiry,
	overflow_expiry,
	recovery_zone_id,
	recovery_zone_entry_time,
	passive_max_energy_bonus,
	passive_efficiency_bonus,
	experience,
	level,
	total_lifetime_experience,
	prestige_level,
	prestige_points,
	version,
	created_at,
	updated_at
FROM players
WHERE player_id = ?
`, playerID)

	var record storage.PlayerRecord
	var lastUpdate, boostExpiry, overflowExpiry, zoneEntry, createdAt, updatedAt int64
	if err := row.Scan(
		&record.PlayerID,
		&record.Energy.Current,
		&record.Energy.Max,
		&lastUpdate,
		&record.Energy.RegenMultiplier,
		&boostExpiry,
		&overflowExpiry,
		&record.Energy.RecoveryZoneID,
		&zoneEntry,
		&record.Energy.PassiveMaxEnergyBonus,
		&record.Energy.PassiveEfficiencyBonus,
		&record.Progression.Experience,
		&record.Progression.Level,
		&record.Progression.TotalLifetimeExperience,
		&record.Progression.PrestigeLevel,
		&record.Progression.PrestigePoints,
		&record.Version,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PlayerRecord{}, storage.ErrNotFound
		}
		return storage.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	record.Energy.LastUpdate = fromMillis(lastUpdate)
	record.Energy.RegenBoostExpiry = fromMillis(boostExpiry)
	record.Energy.OverflowExpiry = fromMillis(overflowExpiry)
	record.Energy.RecoveryZoneEntryTime = fromMillis(zoneEntry)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanMilestone(row rowScanner) (storage.MilestoneRecord, error) {
	var record storage.MilestoneRecord
	var claimed int
	var createdAt, claimedAt int64
	if err := row.Scan(
		&record.PlayerID,
		&record.Level,
		&record.RewardType,
		&claimed,
		&createdAt,
		&claimedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MilestoneRecord{}, storage.ErrNotFound
		}
		return storage.MilestoneRecord{}, fmt.Errorf("scan milestone: %w", err)
	}
	record.Claimed = claimed != 0
	record.CreatedAt = fromMillis(createdAt)
	record.ClaimedAt = fromMillis(claimedAt)
	return record, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]progression.MultiplierEvent, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list multiplier events: %w", err)
	}
	defer rows.Close()

	var events []progression.MultiplierEvent
	for rows.Next() {
		var event progression.MultiplierEvent
		var start, end int64
		var userScope, zoneScope string
		if err := rows.Scan(&event.ID, &event.Multiplier, &start, &end, &userScope, &zoneScope); err != nil {
			return nil, fmt.Errorf("scan multiplier event: %w", err)
		}
		event.StartTime = fromMillis(start)
		event.EndTime = fromMillis(end)
		if event.UserScope, err = decodeScope(userScope); err != nil {
			return nil, err
		}
		if event.ZoneScope, err = decodeScope(zoneScope); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate multiplier events: %w", err)
	}
	return events, nil
}

func encodeScope(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode scope: %w", err)
	}
	return string(data), nil
}

func decodeScope(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode scope: %w", err)
	}
	return ids, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
