package localize

import "github.com/layout-localizer/backend/internal/models"

// LanguageMapper maps language labels to output codes.
type LanguageMapper struct {
	codes map[string]string
}

// NewLanguageMapper builds a mapper from a label to code table. A nil or
// empty table falls back to the built-in one. The reference label is never
// mapped since it always targets Context_CN.
func NewLanguageMapper(table map[string]string) *LanguageMapper {
	if len(table) == 0 {
		table = models.DefaultLanguages()
	}
	codes := make(map[string]string, len(table))
	for label, code := range table {
		if label == models.LanguageChinese || label == "" || code == "" {
			continue
		}
		codes[label] = code
	}
	return &LanguageMapper{codes: codes}
}

// DefaultLanguageMapper returns a mapper over the built-in table.
func DefaultLanguageMapper() *LanguageMapper {
	return NewLanguageMapper(nil)
}

// Code returns the code for label. ok is false when no mapping exists.
func (m *LanguageMapper) Code(label string) (code string, ok bool) {
	code, ok = m.codes[label]
	return code, ok
}

// Table returns a copy of the active label to code table.
func (m *LanguageMapper) Table() map[string]string {
	out := make(map[string]string, len(m.codes))
	for k, v := range m.codes {
		out[k] = v
	}
	return out
}
