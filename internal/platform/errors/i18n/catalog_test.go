package i18n

import "testing"

func TestGetCatalogFallsBackToBaseLocale(t *testing.T) {
	for _, locale := range []string{"", "   ", "not a locale!!", "ja-JP"} {
		if got := GetCatalog(locale).Locale(); got != BaseLocale {
			t.Fatalf("GetCatalog(%q) locale = %q, want %q", locale, got, BaseLocale)
		}
	}
}

func TestGetCatalogMatchesRegionlessLocale(t *testing.T) {
	if got := GetCatalog("pt").Locale(); got != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", got)
	}
}

func TestFormatUsesMetadataArguments(t *testing.T) {
	locale, msg := Format("en-US", CodeMilestoneAlreadyClaimed, map[string]string{"Level": "25"})
	if locale != "en-US" {
		t.Fatalf("locale = %q, want en-US", locale)
	}
	if want := "The level 25 reward was already claimed."; msg != want {
		t.Fatalf("message = %q, want %q", msg, want)
	}
}

func TestFormatUnknownCodeRendersGenericMessage(t *testing.T) {
	_, msg := Format("pt-BR", "NOT_A_CODE", nil)
	if want := "Algo deu errado. Tente novamente mais tarde."; msg != want {
		t.Fatalf("message = %q, want %q", msg, want)
	}
}

func TestCatalogsCoverSameCodes(t *testing.T) {
	base := GetCatalog(BaseLocale)
	for _, c := range catalogs {
		for code := range base.entries {
			if !c.Has(code) {
				t.Fatalf("catalog %s is missing %s", c.Locale(), code)
			}
		}
	}
}
