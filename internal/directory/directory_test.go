package directory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDatasetLoads(t *testing.T) {
	t.Parallel()

	d, err := Default()
	if err != nil {
		t.Fatalf("load embedded dataset: %v", err)
	}
	if d.Len() == 0 {
		t.Fatal("embedded dataset is empty")
	}
	if got := d.Canonical("迈瑞医疗"); got != "迈瑞医疗" {
		t.Fatalf("canonical name lookup: %q", got)
	}
	if got := d.Canonical("Mindray Medical"); got != "迈瑞医疗" {
		t.Fatalf("english name lookup: %q", got)
	}
	if got := d.Canonical("mindray"); got != "迈瑞医疗" {
		t.Fatalf("case-insensitive alias lookup: %q", got)
	}
	if got := d.Canonical("no such company"); got != "" {
		t.Fatalf("unknown identifier should resolve to empty, got %q", got)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing dataset file")
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "companies.json")
	payload := `{"companies":[{"name":"测试诊断","english_name":"Test Dx","aliases":["TDX"],"keywords":["试剂","平台"]}]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	if got := d.Canonical("tdx"); got != "测试诊断" {
		t.Fatalf("alias lookup: %q", got)
	}
	if len(d.Keywords()) != 2 {
		t.Fatalf("expected 2 keyword entries, got %d", len(d.Keywords()))
	}
}

func TestParseRejectsNamelessEntry(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte(`{"companies":[{"aliases":["x"]}]}`)); err == nil {
		t.Fatal("expected error for entry without name")
	}
}

func TestAliasCollisionLastLoadedWins(t *testing.T) {
	t.Parallel()

	raw := `{"companies":[
		{"name":"甲公司","aliases":["共用简称"]},
		{"name":"乙公司","aliases":["共用简称"]}
	]}`
	d, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := d.Canonical("共用简称"); got != "乙公司" {
		t.Fatalf("collision should resolve last-loaded-wins, got %q", got)
	}
}
