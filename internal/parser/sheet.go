package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/layout-localizer/backend/internal/models"
)

// Column names a layout sheet must carry. Other columns are ignored.
const (
	ColumnName   = "Name"
	ColumnPosX   = "pos_x"
	ColumnPosY   = "pos_y"
	ColumnScaleX = "scale_x"
	ColumnScaleY = "scale_y"
)

// RequiredColumns lists the columns read from every sheet, in row order.
var RequiredColumns = []string{ColumnName, ColumnPosX, ColumnPosY, ColumnScaleX, ColumnScaleY}

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ErrEmptySheet is returned when a sheet has no header row.
var ErrEmptySheet = errors.New("sheet has no header row")

// SheetParser defines the interface for layout sheet readers.
type SheetParser interface {
	// Name returns the unique name of the parser.
	Name() string
	// CanParse returns true if this parser can handle the given file.
	CanParse(filePath string) (bool, error)
	// Parse reads all layout rows. Row-level problems are returned as
	// ParseErrors; a non-nil error means the file could not be read at all.
	Parse(filePath string) ([]models.Row, []*models.ParseError, error)
}

// columnIndex maps each required column to its position in the header.
type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(RequiredColumns))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func (ci columnIndex) cell(record []string, col string) string {
	i := ci[col]
	if i >= len(record) {
		return ""
	}
	return record[i]
}

// rowsFromRecords turns a header plus data records into layout rows.
// firstLine is the 1-based line number of records[0].
func rowsFromRecords(records [][]string, firstLine int) ([]models.Row, []*models.ParseError, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptySheet
	}

	idx, err := indexHeader(records[0])
	if err != nil {
		return nil, nil, err
	}

	rows := make([]models.Row, 0, len(records)-1)
	errs := make([]*models.ParseError, 0)

	for i, record := range records[1:] {
		line := firstLine + i + 1
		if idx.blank(record) {
			continue
		}

		row := models.Row{Name: idx.cell(record, ColumnName), Line: line}
		var bad string
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{ColumnPosX, &row.PosX},
			{ColumnPosY, &row.PosY},
			{ColumnScaleX, &row.ScaleX},
			{ColumnScaleY, &row.ScaleY},
		} {
			v, err := parseNumber(idx.cell(record, f.col))
			if err != nil {
				bad = f.col
				break
			}
			*f.dst = v
		}
		if bad != "" {
			errs = append(errs, &models.ParseError{
				Line:    line,
				Content: strings.Join(record, ","),
				Reason:  fmt.Sprintf("invalid number in column %s", bad),
			})
			continue
		}

		rows = append(rows, row)
	}

	return rows, errs, nil
}

func (ci columnIndex) blank(record []string) bool {
	for _, col := range RequiredColumns {
		if strings.TrimSpace(ci.cell(record, col)) != "" {
			return false
		}
	}
	return true
}

func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
