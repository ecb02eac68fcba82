package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/layout-localizer/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// XLSXParser reads the first worksheet of an Excel workbook.
type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Name() string {
	return "xlsx"
}

func (p *XLSXParser) CanParse(filePath string) (bool, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext != ".xlsx" && ext != ".xlsm" {
		return false, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	// XLSX is a ZIP container
	magic := make([]byte, 2)
	if _, err := file.Read(magic); err != nil {
		return false, nil
	}
	return magic[0] == 'P' && magic[1] == 'K', nil
}

func (p *XLSXParser) Parse(filePath string) ([]models.Row, []*models.ParseError, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no worksheets")
	}

	// Raw values keep full float precision regardless of the cell number format.
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	rows, errs, err := rowsFromRecords(records, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	return rows, errs, nil
}
