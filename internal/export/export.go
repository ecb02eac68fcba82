// Package export encodes converted documents and names their output files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/layout-localizer/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// DefaultOutputSuffix and DefaultOutputExt form "<stem>Localization.txt".
const (
	DefaultOutputSuffix = "Localization"
	DefaultOutputExt    = ".txt"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// WriteJSON writes doc as UTF-8 JSON with 4-space indentation. Non-ASCII
// text is written literally and HTML characters are not escaped.
func WriteJSON(w io.Writer, doc *models.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// MarshalJSON returns the WriteJSON encoding of doc.
func MarshalJSON(doc *models.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalMsgpack encodes doc as MessagePack with the same keys as the JSON output.
func MarshalMsgpack(doc *models.Document) ([]byte, error) {
	data, err := msgpack.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

// Marshal encodes doc in the given format.
func Marshal(doc *models.Document, format Format) ([]byte, error) {
	if format == FormatMsgpack {
		return MarshalMsgpack(doc)
	}
	return MarshalJSON(doc)
}

// OutputName returns the output file name for an input file:
// "<stem><suffix><ext>", e.g. "menu.xlsx" -> "menuLocalization.txt".
func OutputName(inputPath, suffix, ext string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + suffix + ext
}

// WriteFile encodes doc and writes it to path.
func WriteFile(path string, doc *models.Document, format Format) error {
	data, err := Marshal(doc, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
