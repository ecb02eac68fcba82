package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/layout-localizer/backend/internal/models"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVParser reads layout sheets exported as CSV.
// Exports from localized spreadsheet tools are often Big5 or GBK, so the
// source encoding is configurable.
type CSVParser struct {
	encoding string
}

// NewCSVParser creates a CSV parser for the given encoding label
// ("utf-8", "big5", "gbk", "gb18030", "shift_jis", ...). Empty means UTF-8.
func NewCSVParser(encodingName string) *CSVParser {
	return &CSVParser{encoding: encodingName}
}

func (p *CSVParser) Name() string {
	return "csv"
}

func (p *CSVParser) CanParse(filePath string) (bool, error) {
	return strings.EqualFold(filepath.Ext(filePath), ".csv"), nil
}

func (p *CSVParser) Parse(filePath string) ([]models.Row, []*models.ParseError, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return p.ParseReader(file)
}

// ParseReader parses CSV content from r.
func (p *CSVParser) ParseReader(r io.Reader) ([]models.Row, []*models.ParseError, error) {
	dec, err := decoderFor(p.encoding)
	if err != nil {
		return nil, nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}

	return rowsFromRecords(records, 1)
}

// decoderFor resolves an encoding label. UTF-8 input may carry a BOM.
func decoderFor(name string) (transform.Transformer, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported csv encoding %q: %w", name, err)
	}
	return enc.NewDecoder(), nil
}
