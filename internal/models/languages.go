package models

// LanguageTable maps a single-glyph language label to its short code.
type LanguageTable struct {
	Languages map[string]string `json:"languages" yaml:"languages"`
}

// DefaultLanguages returns the built-in label to code table.
func DefaultLanguages() map[string]string {
	return map[string]string{
		"英": "EN",
		"越": "VN",
		"泰": "TH",
		"孟": "BD",
	}
}
