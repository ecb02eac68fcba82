package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLanguageTable(t *testing.T) {
	content := `
languages:
  英: EN
  越: VN
  日: JP
`
	path := filepath.Join(t.TempDir(), "languages.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := ParseLanguageTable(path)
	if err != nil {
		t.Fatalf("ParseLanguageTable failed: %v", err)
	}

	if len(table.Languages) != 3 {
		t.Fatalf("expected 3 languages, got %d", len(table.Languages))
	}
	if table.Languages["日"] != "JP" {
		t.Errorf("expected 日 -> JP, got %q", table.Languages["日"])
	}
	if table.Languages["英"] != "EN" {
		t.Errorf("expected 英 -> EN, got %q", table.Languages["英"])
	}
}

func TestParseLanguageTableFromReaderEmpty(t *testing.T) {
	_, err := ParseLanguageTableFromReader(strings.NewReader("languages: {}\n"))
	if err == nil {
		t.Error("expected error for empty table")
	}
}

func TestParseLanguageTableInvalidYAML(t *testing.T) {
	_, err := ParseLanguageTableFromReader(strings.NewReader("languages: [unclosed"))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestParseLanguageTableMissingFile(t *testing.T) {
	_, err := ParseLanguageTable(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
