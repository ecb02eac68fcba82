package localize

import (
	"regexp"

	"github.com/layout-localizer/backend/internal/models"
)

// namePattern matches "<page>_<language>_<element>" at the start of a name.
// The language token is one or more CJK unified ideographs; trailing text is allowed.
var namePattern = regexp.MustCompile(`^(\p{Nd}+)_([\x{4e00}-\x{9fa5}]+)_(\p{Nd}+)`)

// ParseName extracts the page number, language label and element number from
// a composite element name. It reports false when the name does not match.
func ParseName(name string) (models.ParsedName, bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil || m[1] == "" {
		return models.ParsedName{}, false
	}
	return models.ParsedName{
		PageNum:    m[1],
		Language:   m[2],
		ElementNum: m[3],
	}, true
}

// ComposeName builds the composite name ParseName understands.
func ComposeName(pageNum, language, elementNum string) string {
	return pageNum + "_" + language + "_" + elementNum
}
