package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when no registered parser accepts a file.
var ErrUnsupportedFormat = errors.New("no suitable parser found")

// Registry holds all available sheet parsers and provides auto-detection.
type Registry struct {
	parsers []SheetParser
}

// NewRegistry creates a registry with the xlsx and csv parsers.
// csvEncoding selects the source encoding for CSV input.
func NewRegistry(csvEncoding string) *Registry {
	return &Registry{
		parsers: []SheetParser{
			NewXLSXParser(),
			NewCSVParser(csvEncoding),
		},
	}
}

// Register adds a new parser to the registry.
func (r *Registry) Register(p SheetParser) {
	r.parsers = append(r.parsers, p)
}

// FindParser detects the correct parser for a file.
func (r *Registry) FindParser(filePath string) (SheetParser, error) {
	for _, p := range r.parsers {
		can, err := p.CanParse(filePath)
		if err != nil {
			return nil, fmt.Errorf("probing %s with %s parser: %w", filePath, p.Name(), err)
		}
		if can {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w for file: %s", ErrUnsupportedFormat, filepath.Base(filePath))
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (SheetParser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}
