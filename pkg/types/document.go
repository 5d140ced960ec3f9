package types

import "bytes"

// Document maps table names to their rows for one source database. Tables
// keep insertion (discovery) order. A Document holds no reference back to
// the database it was read from.
type Document struct {
	tables []string
	rows   map[string][]Record
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{rows: make(map[string][]Record)}
}

// Put stores the rows of table. A nil slice is stored as an empty one. Putting
// an existing table replaces its rows and keeps its position.
func (d *Document) Put(table string, records []Record) {
	if d.rows == nil {
		d.rows = make(map[string][]Record)
	}
	if records == nil {
		records = []Record{}
	}
	if _, ok := d.rows[table]; !ok {
		d.tables = append(d.tables, table)
	}
	d.rows[table] = records
}

// Rows returns the records of table and whether the table is present.
func (d *Document) Rows(table string) ([]Record, bool) {
	recs, ok := d.rows[table]
	return recs, ok
}

// Tables returns the table names in order. The slice must not be modified.
func (d *Document) Tables() []string { return d.tables }

// Len returns the number of tables.
func (d *Document) Len() int { return len(d.tables) }

// RowCount returns the total number of records across all tables.
func (d *Document) RowCount() int {
	n := 0
	for _, t := range d.tables {
		n += len(d.rows[t])
	}
	return n
}

// Equal reports whether both documents hold the same tables in the same
// order with equal records.
func (d *Document) Equal(o *Document) bool {
	if len(d.tables) != len(o.tables) {
		return false
	}
	for i, t := range d.tables {
		if o.tables[i] != t {
			return false
		}
		a, b := d.rows[t], o.rows[t]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if !a[j].Equal(b[j]) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the document as
// {"table": [{"column": value, ...}, ...], ...} in table order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range d.tables {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendJSONString(&buf, t); err != nil {
			return nil, err
		}
		buf.WriteString(":[")
		for j, rec := range d.rows[t] {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := rec.appendJSON(&buf); err != nil {
				return nil, err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
