package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/layout-localizer/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseLanguageTable parses a YAML language table file:
//
//	languages:
//	  英: EN
//	  越: VN
func ParseLanguageTable(filePath string) (*models.LanguageTable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseLanguageTableFromReader(file)
}

// ParseLanguageTableFromReader parses a language table from an io.Reader.
func ParseLanguageTableFromReader(r io.Reader) (*models.LanguageTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var table models.LanguageTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	if len(table.Languages) == 0 {
		return nil, fmt.Errorf("language table has no entries")
	}

	return &table, nil
}
