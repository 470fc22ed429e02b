package i18n

var ptBRCatalog = &Catalog{
	locale: "pt-BR",
	entries: map[string]entry{
		unknownCode: {format: "Algo deu errado. Tente novamente mais tarde."},

		CodePlayerIDRequired:    {format: "Esta ação precisa de um jogador."},
		CodePlayerNotFound:      {format: "Você ainda não começou a jogar."},
		CodePlayerAlreadyExists: {format: "Você já está registrado."},

		CodeEnergyInvalidAmount:     {format: "A quantidade de energia deve ser maior que zero."},
		CodeEnergyInsufficient:      {format: "Energia insuficiente: %d necessária, %d disponível.", args: []string{"Required", "Available"}},
		CodeEnergyInvalidMultiplier: {format: "O multiplicador de regeneração está fora do intervalo permitido."},
		CodeEnergyInvalidDuration:   {format: "A duração do bônus deve ser maior que zero."},
		CodeEnergyInvalidBonus:      {format: "O bônus passivo não pode ser negativo."},
		CodeRecoveryZoneRequired:    {format: "Escolha um lugar para descansar."},

		CodeXPInvalidAmount:     {format: "A quantidade de experiência está fora do intervalo permitido."},
		CodeXPInvalidMultiplier: {format: "O multiplicador de experiência deve ser maior que zero."},
		CodePrestigeBelowMin:    {format: "Você precisa do nível %d para prestígio (seu nível é %d).", args: []string{"MinimumLevel", "Level"}},

		CodeMilestoneNotFound:       {format: "Não há recompensa para o nível %d.", args: []string{"Level"}},
		CodeMilestoneAlreadyClaimed: {format: "A recompensa do nível %d já foi resgatada.", args: []string{"Level"}},

		CodeMultiplierEventInvalid:  {format: "Evento de bônus inválido: %s.", args: []string{"Reason"}},
		CodeMultiplierEventNotFound: {format: "O evento de bônus %s não existe.", args: []string{"EventID"}},
		CodeAverageLevelInvalid:     {format: "O nível médio não pode ser negativo."},

		CodeConcurrencyConflict: {format: "Você está fazendo muitas coisas ao mesmo tempo. Tente novamente."},
	},
}
