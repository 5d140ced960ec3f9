package sqlite

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// StorageClass is SQLite's runtime type of a stored value, as reported by
// typeof().
type StorageClass string

// SQLite storage classes.
const (
	ClassNull    StorageClass = "null"
	ClassInteger StorageClass = "integer"
	ClassReal    StorageClass = "real"
	ClassText    StorageClass = "text"
	ClassBlob    StorageClass = "blob"
)

// sqliteTimeLayout is the layout of CURRENT_TIMESTAMP.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999"

// Coerce maps one stored cell to a document-safe Value. class is the cell's
// storage class and raw is what the driver scanned. An unknown class falls
// back to the Go type of raw.
//
// Blobs, and text that is not valid UTF-8, follow policy. Non-finite floats
// cannot be represented in JSON and are rejected with ErrUnsupportedValue.
func Coerce(class StorageClass, raw any, policy types.BlobPolicy) (types.Value, error) {
	if raw == nil {
		return types.Null(), nil
	}
	switch class {
	case ClassNull:
		return types.Null(), nil
	case ClassInteger:
		if i, ok := raw.(int64); ok {
			return types.Integer(i), nil
		}
	case ClassReal:
		if f, ok := raw.(float64); ok {
			return coerceFloat(f)
		}
	case ClassText:
		switch v := raw.(type) {
		case string:
			return coerceText(v, policy)
		case []byte:
			return coerceText(string(v), policy)
		}
	case ClassBlob:
		switch v := raw.(type) {
		case []byte:
			return coerceBlob(v, policy)
		case string:
			return coerceBlob([]byte(v), policy)
		}
	}
	return coerceRaw(raw, policy)
}

// coerceRaw converts by Go type alone, for drivers that hand back values
// whose type does not match the storage class.
func coerceRaw(raw any, policy types.BlobPolicy) (types.Value, error) {
	switch v := raw.(type) {
	case nil:
		return types.Null(), nil
	case bool:
		return types.Bool(v), nil
	case int64:
		return types.Integer(v), nil
	case int:
		return types.Integer(int64(v)), nil
	case int32:
		return types.Integer(int64(v)), nil
	case float64:
		return coerceFloat(v)
	case float32:
		return coerceFloat(float64(v))
	case string:
		return coerceText(v, policy)
	case []byte:
		return coerceBlob(v, policy)
	case time.Time:
		return types.Text(v.Format(sqliteTimeLayout)), nil
	default:
		return types.Value{}, fmt.Errorf("%w: Go type %T", types.ErrUnsupportedValue, raw)
	}
}

func coerceFloat(f float64) (types.Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return types.Value{}, fmt.Errorf("%w: non-finite float %s",
			types.ErrUnsupportedValue, strconv.FormatFloat(f, 'g', -1, 64))
	}
	return types.Float(f), nil
}

func coerceText(s string, policy types.BlobPolicy) (types.Value, error) {
	if !utf8.ValidString(s) {
		return coerceBlob([]byte(s), policy)
	}
	return types.Text(s), nil
}

func coerceBlob(b []byte, policy types.BlobPolicy) (types.Value, error) {
	switch policy {
	case types.BlobBase64, "":
		return types.Bytes(b), nil
	case types.BlobHex:
		return types.Text(hex.EncodeToString(b)), nil
	case types.BlobReject:
		return types.Value{}, fmt.Errorf("%w: binary value of %d bytes (blob policy %q)",
			types.ErrUnsupportedValue, len(b), policy)
	default:
		return types.Value{}, fmt.Errorf("%w: %q", types.ErrBlobPolicyUnknown, policy)
	}
}
