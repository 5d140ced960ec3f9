package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func encodeJSON(w io.Writer, doc *types.Document, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// errShape reports JSON that is not a {table: [{column: scalar}]} document.
var errShape = errors.New("not an export document")

// decodeJSON walks the token stream so table and column order survive.
func decodeJSON(r io.Reader) (*types.Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	doc := types.NewDocument()
	for dec.More() {
		table, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '['); err != nil {
			return nil, fmt.Errorf("table %q: %w", table, err)
		}
		records := []types.Record{}
		for dec.More() {
			rec, err := readRecord(dec)
			if err != nil {
				return nil, fmt.Errorf("table %q: row %d: %w", table, len(records)+1, err)
			}
			records = append(records, rec)
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, fmt.Errorf("table %q: %w", table, err)
		}
		doc.Put(table, records)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return doc, nil
}

func readRecord(dec *json.Decoder) (types.Record, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return types.Record{}, err
	}
	rec := types.NewRecord(0)
	for dec.More() {
		col, err := readKey(dec)
		if err != nil {
			return types.Record{}, err
		}
		tok, err := dec.Token()
		if err != nil {
			return types.Record{}, fmt.Errorf("column %q: %w", col, err)
		}
		v, err := scalarFromToken(tok)
		if err != nil {
			return types.Record{}, fmt.Errorf("column %q: %w", col, err)
		}
		rec.Set(col, v)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

func scalarFromToken(tok json.Token) (types.Value, error) {
	switch v := tok.(type) {
	case nil:
		return types.Null(), nil
	case bool:
		return types.Bool(v), nil
	case string:
		return types.Text(v), nil
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return types.Integer(i), nil
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Value{}, fmt.Errorf("number %s: %w", s, err)
		}
		return types.Float(f), nil
	default:
		return types.Value{}, fmt.Errorf("%w: nested value %v", errShape, tok)
	}
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected key, got %v", errShape, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", errShape, want, tok)
	}
	return nil
}
