package document

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// YAML short tags used for scalars.
const (
	tagNull   = "!!null"
	tagBool   = "!!bool"
	tagInt    = "!!int"
	tagFloat  = "!!float"
	tagStr    = "!!str"
	tagBinary = "!!binary"
	tagMap    = "!!map"
	tagSeq    = "!!seq"
)

func encodeYAML(w io.Writer, doc *types.Document, indent int) error {
	root, err := documentNode(doc)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	if indent < 2 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

// documentNode builds the node tree explicitly so that every scalar carries
// its tag: the encoder then quotes strings that would read back as numbers,
// booleans or null, and writes floats with their decimal point.
func documentNode(doc *types.Document) (*yaml.Node, error) {
	top := &yaml.Node{Kind: yaml.MappingNode, Tag: tagMap}
	for _, table := range doc.Tables() {
		rows, _ := doc.Rows(table)
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: tagSeq}
		if len(rows) == 0 {
			seq.Style = yaml.FlowStyle
		}
		for _, rec := range rows {
			m := &yaml.Node{Kind: yaml.MappingNode, Tag: tagMap}
			if rec.Len() == 0 {
				m.Style = yaml.FlowStyle
			}
			for _, col := range rec.Keys() {
				v, _ := rec.Get(col)
				vn, err := scalarNode(v)
				if err != nil {
					return nil, fmt.Errorf("table %q: column %q: %w", table, col, err)
				}
				m.Content = append(m.Content, strNode(col), vn)
			}
			seq.Content = append(seq.Content, m)
		}
		top.Content = append(top.Content, strNode(table), seq)
	}
	if len(top.Content) == 0 {
		top.Style = yaml.FlowStyle
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{top}}, nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: s}
}

func scalarNode(v types.Value) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Kind() {
	case types.KindNull:
		n.Tag, n.Value = tagNull, "null"
	case types.KindBool:
		b, _ := v.AsBool()
		n.Tag, n.Value = tagBool, strconv.FormatBool(b)
	case types.KindInteger:
		i, _ := v.AsInteger()
		n.Tag, n.Value = tagInt, strconv.FormatInt(i, 10)
	case types.KindFloat:
		f, _ := v.AsFloat()
		n.Tag, n.Value = tagFloat, types.FormatFloat(f)
	case types.KindText:
		s, _ := v.AsText()
		n.Tag, n.Value = tagStr, s
	case types.KindBytes:
		b, _ := v.AsBytes()
		n.Tag, n.Value = tagBinary, base64.StdEncoding.EncodeToString(b)
	default:
		return nil, fmt.Errorf("%w: kind %s", types.ErrUnsupportedValue, v.Kind())
	}
	return n, nil
}

func decodeYAML(r io.Reader) (*types.Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) == 1 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", errShape)
	}

	doc := types.NewDocument()
	for i := 0; i+1 < len(top.Content); i += 2 {
		table := top.Content[i].Value
		seq := top.Content[i+1]
		if seq.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("table %q: %w: rows are not a sequence", table, errShape)
		}
		records := make([]types.Record, 0, len(seq.Content))
		for j, m := range seq.Content {
			if m.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("table %q: row %d: %w: not a mapping", table, j+1, errShape)
			}
			rec := types.NewRecord(len(m.Content) / 2)
			for k := 0; k+1 < len(m.Content); k += 2 {
				col := m.Content[k].Value
				v, err := valueFromNode(m.Content[k+1])
				if err != nil {
					return nil, fmt.Errorf("table %q: row %d: column %q: %w", table, j+1, col, err)
				}
				rec.Set(col, v)
			}
			records = append(records, rec)
		}
		doc.Put(table, records)
	}
	return doc, nil
}

func valueFromNode(n *yaml.Node) (types.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return types.Value{}, fmt.Errorf("%w: nested value", errShape)
	}
	switch n.ShortTag() {
	case tagNull:
		return types.Null(), nil
	case tagBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return types.Value{}, err
		}
		return types.Bool(b), nil
	case tagInt:
		var i int64
		if err := n.Decode(&i); err != nil {
			return types.Value{}, err
		}
		return types.Integer(i), nil
	case tagFloat:
		var f float64
		if err := n.Decode(&f); err != nil {
			return types.Value{}, err
		}
		return types.Float(f), nil
	case tagBinary:
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return types.Value{}, fmt.Errorf("binary: %w", err)
		}
		return types.Bytes(b), nil
	default:
		return types.Text(n.Value), nil
	}
}
