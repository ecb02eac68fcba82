// Package models contains domain types for the layout localizer.
package models

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Context keys used in the output document.
const (
	ContextPrefix = "Context_"
	ContextCN     = "Context_CN"

	// LanguageChinese is the reference language label.
	LanguageChinese = "中"

	// BackgroundSuffix is appended to the page number to name the page background.
	BackgroundSuffix = "_底"
)

// Row is one record read from a layout sheet.
type Row struct {
	Name   string
	PosX   float64
	PosY   float64
	ScaleX float64
	ScaleY float64
	Line   int // 1-based source line, used for error reports only
}

// ParsedName is the (page, language, element) triple encoded in Row.Name.
type ParsedName struct {
	PageNum    string
	Language   string
	ElementNum string
}

// Element is a placed text element inside a context group.
type Element struct {
	Name   string  `json:"Name" msgpack:"Name"`
	PosX   float64 `json:"pos_x" msgpack:"pos_x"`
	PosY   float64 `json:"pos_y" msgpack:"pos_y"`
	ScaleX float64 `json:"scale_x" msgpack:"scale_x"`
	ScaleY float64 `json:"scale_y" msgpack:"scale_y"`
}

// Page groups the elements of one layout page by language.
type Page struct {
	PageIndex      int
	BackgroundName string
	ContextCN      []Element

	// Contexts maps a language code (EN, VN, ...) to its element group.
	Contexts map[string][]Element
	// Order lists the codes in Contexts in first-seen order.
	Order []string
	// Foreign is the generic pool (Context_外語) for unmapped languages.
	// It is emptied by reconciliation and never serialized.
	Foreign []Element

	PageNum string
}

// NewPage creates an empty page for the given page number.
func NewPage(index int, pageNum string) *Page {
	return &Page{
		PageIndex:      index,
		BackgroundName: pageNum + BackgroundSuffix,
		ContextCN:      make([]Element, 0),
		Contexts:       make(map[string][]Element),
		PageNum:        pageNum,
	}
}

// AddContext appends e to the group for code, creating the group if needed.
func (p *Page) AddContext(code string, e Element) {
	if _, ok := p.Contexts[code]; !ok {
		p.Order = append(p.Order, code)
		p.Contexts[code] = make([]Element, 0, 1)
	}
	p.Contexts[code] = append(p.Contexts[code], e)
}

// ElementCount returns the number of serialized elements on the page.
func (p *Page) ElementCount() int {
	n := len(p.ContextCN)
	for _, code := range p.Order {
		n += len(p.Contexts[code])
	}
	return n
}

// MarshalJSON writes the page keys in a fixed order followed by the
// language groups in first-seen order.
func (p *Page) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, v interface{}) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := marshalLiteral(key)
		if err != nil {
			return err
		}
		val, err := marshalLiteral(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := write("PageIndex", p.PageIndex); err != nil {
		return nil, err
	}
	if err := write("BackgroundName", p.BackgroundName); err != nil {
		return nil, err
	}
	if err := write(ContextCN, nonNil(p.ContextCN)); err != nil {
		return nil, err
	}
	for _, code := range p.Order {
		if err := write(ContextPrefix+code, nonNil(p.Contexts[code])); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeMsgpack mirrors MarshalJSON so both encodings share key names and order.
func (p *Page) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(3 + len(p.Order)); err != nil {
		return err
	}
	if err := encodePair(enc, "PageIndex", p.PageIndex); err != nil {
		return err
	}
	if err := encodePair(enc, "BackgroundName", p.BackgroundName); err != nil {
		return err
	}
	if err := encodePair(enc, ContextCN, nonNil(p.ContextCN)); err != nil {
		return err
	}
	for _, code := range p.Order {
		if err := encodePair(enc, ContextPrefix+code, nonNil(p.Contexts[code])); err != nil {
			return err
		}
	}
	return nil
}

// Document is the converted layout of one sheet.
type Document struct {
	Pages []*Page `json:"Pages" msgpack:"Pages"`
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{Pages: make([]*Page, 0)}
}

// ElementCount returns the number of serialized elements across all pages.
func (d *Document) ElementCount() int {
	n := 0
	for _, p := range d.Pages {
		n += p.ElementCount()
	}
	return n
}

func encodePair(enc *msgpack.Encoder, key string, v interface{}) error {
	if err := enc.EncodeString(key); err != nil {
		return err
	}
	return enc.Encode(v)
}

func nonNil(els []Element) []Element {
	if els == nil {
		return []Element{}
	}
	return els
}

// marshalLiteral encodes v without HTML escaping, so names like "a<b" survive as-is.
func marshalLiteral(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
