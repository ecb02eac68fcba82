package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/layout-localizer/backend/internal/config"
	"github.com/layout-localizer/backend/internal/localize"
	"github.com/layout-localizer/backend/internal/parser"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the XML configuration. An empty path selects the file
// next to the executable.
func loadConfig(path string) (*config.AppConfig, string, error) {
	if path == "" {
		exePath, err := os.Executable()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get executable path: %w", err)
		}
		path = filepath.Join(filepath.Dir(exePath), config.FileName)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newConverter builds the converter for the configured language table.
func newConverter(cfg *config.AppConfig) (*localize.Converter, error) {
	if cfg.Conversion.LanguageFile == "" {
		return localize.NewConverter(nil), nil
	}

	table, err := parser.ParseLanguageTable(cfg.Conversion.LanguageFile)
	if err != nil {
		return nil, fmt.Errorf("loading language table %s: %w", cfg.Conversion.LanguageFile, err)
	}
	return localize.NewConverter(localize.NewLanguageMapper(table.Languages)), nil
}

func newRegistry(cfg *config.AppConfig) *parser.Registry {
	return parser.NewRegistry(cfg.Conversion.CSVEncoding)
}
