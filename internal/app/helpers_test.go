package app

import (
	"encoding/json"
	"testing"

	"ivdwatch.dev/ivdmon/internal/config"
)

func TestSplitPayloadItems(t *testing.T) {
	t.Parallel()

	single, err := splitPayloadItems(json.RawMessage(`{"source":"a","url":"https://example.com"}`))
	if err != nil {
		t.Fatalf("single object: %v", err)
	}
	if len(single) != 1 {
		t.Fatalf("single object split into %d items", len(single))
	}

	many, err := splitPayloadItems(json.RawMessage(`[{"source":"a"},{"source":"b"}]`))
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if len(many) != 2 {
		t.Fatalf("array split into %d items", len(many))
	}

	if _, err := splitPayloadItems(json.RawMessage(`[]`)); err == nil {
		t.Fatalf("empty array should be rejected")
	}
	if _, err := splitPayloadItems(json.RawMessage(`   `)); err == nil {
		t.Fatalf("blank payload should be rejected")
	}
}

func TestParseDayFlag(t *testing.T) {
	t.Parallel()

	day, err := parseDayFlag("2026-08-30")
	if err != nil || day != "2026-08-30" {
		t.Fatalf("parseDayFlag = %q, %v", day, err)
	}
	if day, err := parseDayFlag("2026-08-30T09:00:00Z"); err != nil || day != "2026-08-30" {
		t.Fatalf("timestamp day = %q, %v", day, err)
	}
	if _, err := parseDayFlag("yesterday"); err == nil {
		t.Fatalf("expected error for free-form day")
	}
	if _, err := parseDayFlag(""); err == nil {
		t.Fatalf("expected error for empty day")
	}
	if got, err := parseOptionalDayFlag(""); err != nil || got != "" {
		t.Fatalf("optional empty day = %q, %v", got, err)
	}
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	got := splitCSV(" a, b ,,c ")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitCSV = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitCSV = %v, want %v", got, want)
		}
	}
	if splitCSV("") != nil {
		t.Fatalf("splitCSV of empty string should be nil")
	}
}

func TestBuildComponentsDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{FuzzyCutoff: 90}
	dir, matcher, classifier, err := buildComponents(cfg)
	if err != nil {
		t.Fatalf("buildComponents: %v", err)
	}
	if dir.Len() == 0 {
		t.Fatalf("embedded directory should not be empty")
	}
	if matcher == nil || classifier == nil {
		t.Fatalf("matcher/classifier should be constructed")
	}
}

func TestBuildComponentsMissingFiles(t *testing.T) {
	t.Parallel()

	if _, _, _, err := buildComponents(&config.Config{CompaniesPath: "/nope/companies.json"}); err == nil {
		t.Fatalf("expected error for missing companies file")
	}
	if _, _, _, err := buildComponents(&config.Config{MatcherRulesPath: "/nope/rules.yaml"}); err == nil {
		t.Fatalf("expected error for missing matcher rules file")
	}
	if _, _, _, err := buildComponents(&config.Config{RulesPath: "/nope/classify.yaml"}); err == nil {
		t.Fatalf("expected error for missing classifier rules file")
	}
}
