package document

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func record(kv ...any) types.Record {
	rec := types.NewRecord(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Set(kv[i].(string), kv[i+1].(types.Value))
	}
	return rec
}

func usersDocument() *types.Document {
	doc := types.NewDocument()
	doc.Put("users", []types.Record{
		record("id", types.Integer(1), "name", types.Text("Ann"), "note", types.Null()),
		record("id", types.Integer(2), "name", types.Text("Bo"), "note", types.Text("hi")),
	})
	return doc
}

// richDocument exercises every value kind and the strings YAML would
// otherwise read back as something else.
func richDocument() *types.Document {
	doc := types.NewDocument()
	doc.Put("zeta", []types.Record{
		record(
			"int", types.Integer(-9007199254740993),
			"float", types.Float(1),
			"small", types.Float(1e-9),
			"big", types.Float(1e300),
			"neg_zero", types.Float(math.Copysign(0, -1)),
			"bool", types.Bool(false),
			"null", types.Null(),
			"bytes", types.Bytes([]byte{0, 1, 2, 0xff}),
		),
		record(
			"int", types.Text("42"),
			"float", types.Text("1.5"),
			"small", types.Text(""),
			"big", types.Text("null"),
			"neg_zero", types.Text("true"),
			"bool", types.Text("multi\nline\ntext"),
			"null", types.Text(`quotes " and 'single' <html> & ünïcødé`),
			"bytes", types.Text("- looks: like yaml"),
		),
	})
	doc.Put("alpha", nil)
	doc.Put("123", []types.Record{record()})
	return doc
}

func TestEncodeJSON_Users(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, usersDocument(), types.FormatJSON, 2))

	want := `{
  "users": [
    {
      "id": 1,
      "name": "Ann",
      "note": null
    },
    {
      "id": 2,
      "name": "Bo",
      "note": "hi"
    }
  ]
}
`
	assert.Equal(t, want, buf.String())
}

func TestEncodeJSON_Compact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, usersDocument(), types.FormatJSON, 0))
	assert.Equal(t,
		`{"users":[{"id":1,"name":"Ann","note":null},{"id":2,"name":"Bo","note":"hi"}]}`+"\n",
		buf.String())
}

func TestEncodeJSON_EmptyShapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, types.NewDocument(), types.FormatJSON, 2))
	assert.Equal(t, "{}\n", buf.String())

	doc := types.NewDocument()
	doc.Put("empty", nil)
	buf.Reset()
	require.NoError(t, Encode(&buf, doc, types.FormatJSON, 2))
	assert.Equal(t, "{\n  \"empty\": []\n}\n", buf.String())
}

func TestEncodeJSON_NullIsNotEmptyString(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, usersDocument(), types.FormatJSON, 2))
	assert.Contains(t, buf.String(), `"note": null`)
	assert.NotContains(t, buf.String(), `"note": ""`)
}

func TestRoundTrip(t *testing.T) {
	formats := []types.Format{types.FormatJSON, types.FormatYAML}
	docs := map[string]*types.Document{
		"users": usersDocument(),
		"rich":  richDocument(),
		"empty": types.NewDocument(),
	}
	for _, format := range formats {
		for name, doc := range docs {
			for _, indent := range []int{0, 2, 4} {
				t.Run(string(format)+"/"+name+"/indent"+strconv.Itoa(indent), func(t *testing.T) {
					var first bytes.Buffer
					require.NoError(t, Encode(&first, doc, format, indent))

					decoded, err := Decode(bytes.NewReader(first.Bytes()), format)
					require.NoError(t, err)

					var second bytes.Buffer
					require.NoError(t, Encode(&second, decoded, format, indent))
					if diff := cmp.Diff(first.String(), second.String()); diff != "" {
						t.Fatalf("re-encoded output differs (-first +second):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestDecodeJSON_PreservesOrderAndKinds(t *testing.T) {
	in := `{"b":[{"z":1,"a":1.0,"m":"x","n":null,"t":true}],"a":[]}`
	doc, err := Decode(strings.NewReader(in), types.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, doc.Tables())
	rows, _ := doc.Rows("b")
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"z", "a", "m", "n", "t"}, rows[0].Keys())

	z, _ := rows[0].Get("z")
	assert.Equal(t, types.KindInteger, z.Kind())
	a, _ := rows[0].Get("a")
	assert.Equal(t, types.KindFloat, a.Kind())
	n, _ := rows[0].Get("n")
	assert.True(t, n.IsNull())

	empty, ok := doc.Rows("a")
	require.True(t, ok)
	assert.Empty(t, empty)
}

func TestDecodeJSON_RejectsOtherShapes(t *testing.T) {
	for _, in := range []string{
		`[]`,
		`{"t": {}}`,
		`{"t": [1]}`,
		`{"t": [{"c": [1]}]}`,
		`{"t": [{"c": {"x": 1}}]}`,
	} {
		_, err := Decode(strings.NewReader(in), types.FormatJSON)
		assert.Error(t, err, in)
	}
}

func TestEncodeYAML_Scalars(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, richDocument(), types.FormatYAML, 2))
	out := buf.String()

	assert.Contains(t, out, "float: 1.0\n")
	assert.Contains(t, out, "int: \"42\"\n", "numeric-looking text must be quoted")
	assert.Contains(t, out, "big: \"null\"\n")
	assert.Contains(t, out, "\"null\": null\n", "keys that read as null must be quoted")
	assert.Contains(t, out, "bytes: !!binary AAEC/w==\n")
	assert.Contains(t, out, "alpha: []\n")
	assert.Contains(t, out, "\"123\":\n")

	decoded, err := Decode(strings.NewReader(out), types.FormatYAML)
	require.NoError(t, err)
	assert.True(t, richDocument().Equal(decoded), "YAML keeps every value kind")
}

func TestEncode_UnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, types.NewDocument(), "toml", 2)
	assert.ErrorIs(t, err, types.ErrFormatUnknown)

	_, err = Decode(strings.NewReader("{}"), "toml")
	assert.ErrorIs(t, err, types.ErrFormatUnknown)
}
