// Package localize turns layout rows into a per-page, per-language document.
package localize

import (
	"sort"
	"strconv"

	"github.com/layout-localizer/backend/internal/models"
)

// Stats summarizes one conversion.
type Stats struct {
	Rows     int `json:"rows"`
	Skipped  int `json:"skipped"`
	Pages    int `json:"pages"`
	Elements int `json:"elements"`
}

// Converter groups rows into pages using a language table.
type Converter struct {
	languages *LanguageMapper
}

// NewConverter creates a Converter. A nil mapper uses the built-in table.
func NewConverter(languages *LanguageMapper) *Converter {
	if languages == nil {
		languages = DefaultLanguageMapper()
	}
	return &Converter{languages: languages}
}

// Languages returns the mapper used by the converter.
func (c *Converter) Languages() *LanguageMapper {
	return c.languages
}

// Convert is a shortcut for NewConverter(nil).Convert(rows).
func Convert(rows []models.Row) *models.Document {
	return NewConverter(nil).Convert(rows)
}

// Convert builds the document for rows.
func (c *Converter) Convert(rows []models.Row) *models.Document {
	doc, _ := c.ConvertWithStats(rows)
	return doc
}

// ConvertWithStats builds the document for rows and reports counts.
// Rows whose name does not parse are dropped.
func (c *Converter) ConvertWithStats(rows []models.Row) (*models.Document, Stats) {
	stats := Stats{Rows: len(rows)}

	pages := c.aggregate(rows, &stats)
	for _, p := range pages {
		Reconcile(p)
	}

	doc := models.NewDocument()
	doc.Pages = append(doc.Pages, pages...)

	stats.Pages = len(doc.Pages)
	stats.Elements = doc.ElementCount()
	return doc, stats
}

// aggregate buckets rows into pages in first-seen order.
func (c *Converter) aggregate(rows []models.Row, stats *Stats) []*models.Page {
	var pages []*models.Page
	byNum := make(map[string]*models.Page)

	for _, row := range rows {
		name, ok := ParseName(row.Name)
		if !ok {
			stats.Skipped++
			continue
		}

		e := models.Element{
			Name:   row.Name,
			PosX:   Round3(row.PosX),
			PosY:   Round3(row.PosY),
			ScaleX: row.ScaleX,
			ScaleY: row.ScaleY,
		}

		page, ok := byNum[name.PageNum]
		if !ok {
			page = models.NewPage(len(pages), name.PageNum)
			byNum[name.PageNum] = page
			pages = append(pages, page)
		}

		if name.Language == models.LanguageChinese {
			page.ContextCN = append(page.ContextCN, e)
			continue
		}
		if code, ok := c.languages.Code(name.Language); ok {
			page.AddContext(code, e)
			continue
		}
		page.Foreign = append(page.Foreign, e)
	}

	return pages
}

// Reconcile pads every language group shorter than Context_CN with the
// page's foreign pool, then drops the pool. Pages without a foreign pool are
// left untouched.
//
// Padding prepends the first len(Context_CN) pool elements (pool sorted by
// name) to the group and sorts the result by name. Names present in both are
// kept twice.
func Reconcile(p *models.Page) {
	if len(p.Foreign) == 0 {
		p.Foreign = nil
		return
	}

	pool := make([]models.Element, len(p.Foreign))
	copy(pool, p.Foreign)
	sortByName(pool)

	ref := len(p.ContextCN)
	take := ref
	if take > len(pool) {
		take = len(pool)
	}

	for _, code := range p.Order {
		group := p.Contexts[code]
		if len(group) >= ref {
			continue
		}
		padded := make([]models.Element, 0, take+len(group))
		padded = append(padded, pool[:take]...)
		padded = append(padded, group...)
		sortByName(padded)
		p.Contexts[code] = padded
	}

	p.Foreign = nil
}

func sortByName(els []models.Element) {
	sort.SliceStable(els, func(i, j int) bool {
		return els[i].Name < els[j].Name
	})
}

// Round3 rounds v to 3 decimal places from its exact binary value, ties to even.
func Round3(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 3, 64), 64)
	if err != nil {
		return v
	}
	return r
}
