package types

import "bytes"

// Column describes one column of a discovered table.
type Column struct {
	Name     string // Column name as declared.
	Type     string // Declared type; empty when the column has no declared type.
	Position int    // Zero-based position in declared order.
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Record is one row: an ordered mapping from column name to Value. Key order
// follows the table's declared column order and is kept for readability;
// callers look values up by key.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord returns an empty record sized for n columns.
func NewRecord(n int) Record {
	return Record{
		keys:   make([]string, 0, n),
		values: make(map[string]Value, n),
	}
}

// Set stores v under column. A new column is appended to the key order; an
// existing column keeps its position.
func (r *Record) Set(column string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[column]; !ok {
		r.keys = append(r.keys, column)
	}
	r.values[column] = v
}

// Get returns the value stored under column.
func (r Record) Get(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Keys returns the column names in order. The slice must not be modified.
func (r Record) Keys() []string { return r.keys }

// Len returns the number of columns in the record.
func (r Record) Len() int { return len(r.keys) }

// Equal reports whether both records hold the same keys, in the same order,
// with equal values.
func (r Record) Equal(o Record) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for i, k := range r.keys {
		if o.keys[i] != k || !r.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r Record) appendJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendJSONString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := r.values[k].appendJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
