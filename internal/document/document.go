// Package document serializes export documents and persists them.
//
// Both formats keep table and column order, keep integers and floats
// distinct, and are idempotent: decoding an artifact and encoding it again
// with the same settings reproduces it byte for byte.
package document

import (
	"fmt"
	"io"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Encode writes doc to w in format. indent is the number of spaces per
// nesting level; 0 writes compact JSON (YAML always indents, by at least 2).
// The output ends with a newline.
func Encode(w io.Writer, doc *types.Document, format types.Format, indent int) error {
	switch format {
	case types.FormatJSON:
		return encodeJSON(w, doc, indent)
	case types.FormatYAML:
		return encodeYAML(w, doc, indent)
	default:
		return fmt.Errorf("%w: %q", types.ErrFormatUnknown, format)
	}
}

// Decode reads a document written by Encode.
func Decode(r io.Reader, format types.Format) (*types.Document, error) {
	switch format {
	case types.FormatJSON:
		return decodeJSON(r)
	case types.FormatYAML:
		return decodeYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrFormatUnknown, format)
	}
}
