package localize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOK  bool
		page    string
		lang    string
		element string
	}{
		{"chinese", "12_中_03", true, "12", "中", "03"},
		{"english", "1_英_1", true, "1", "英", "1"},
		{"multi glyph language", "7_外語_2", true, "7", "外語", "2"},
		{"trailing text allowed", "3_泰_4_old", true, "3", "泰", "4"},
		{"leading zeros kept", "007_越_010", true, "007", "越", "010"},
		{"latin language token", "1_EN_1", false, "", "", ""},
		{"not a layout name", "abc_xyz", false, "", "", ""},
		{"missing element", "1_中_", false, "", "", ""},
		{"leading text", "x1_中_1", false, "", "", ""},
		{"empty", "", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.page, got.PageNum)
			assert.Equal(t, tt.lang, got.Language)
			assert.Equal(t, tt.element, got.ElementNum)
		})
	}
}

func TestComposeNameRoundTrip(t *testing.T) {
	for _, lang := range []string{"中", "英", "越", "泰", "孟", "外"} {
		name := ComposeName("12", lang, "03")
		got, ok := ParseName(name)
		require.True(t, ok, name)
		assert.Equal(t, "12", got.PageNum)
		assert.Equal(t, lang, got.Language)
		assert.Equal(t, "03", got.ElementNum)
	}
}

func TestLanguageMapper(t *testing.T) {
	m := DefaultLanguageMapper()

	for label, want := range map[string]string{"英": "EN", "越": "VN", "泰": "TH", "孟": "BD"} {
		code, ok := m.Code(label)
		assert.True(t, ok, label)
		assert.Equal(t, want, code)
	}

	for _, label := range []string{"中", "外", "日", ""} {
		code, ok := m.Code(label)
		assert.False(t, ok, label)
		assert.Empty(t, code)
	}
}

func TestLanguageMapperCustomTable(t *testing.T) {
	m := NewLanguageMapper(map[string]string{"日": "JP", "中": "CN", "韓": ""})

	code, ok := m.Code("日")
	assert.True(t, ok)
	assert.Equal(t, "JP", code)

	_, ok = m.Code("中")
	assert.False(t, ok, "reference label must never map")
	_, ok = m.Code("韓")
	assert.False(t, ok, "empty codes are ignored")
	_, ok = m.Code("英")
	assert.False(t, ok, "custom table replaces the default")

	assert.Equal(t, map[string]string{"日": "JP"}, m.Table())
}
