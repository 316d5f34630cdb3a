package types

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	rawJSONType  = reflect.TypeOf(json.RawMessage(nil))
	uuidType     = reflect.TypeOf(uuid.UUID{})
	decimalType  = reflect.TypeOf(apd.Decimal{})
	bytesType    = reflect.TypeOf([]byte(nil))
)

// DefaultFor returns the semantic type used for a Go value when no explicit
// type is given. The second result is false for values with no mapping.
//
// nil maps to Null. Decimal literals are written as *apd.Decimal.
func DefaultFor(v any) (*Type, bool) {
	if v == nil {
		return Null, true
	}
	return defaultForType(reflect.TypeOf(v))
}

func defaultForType(rt reflect.Type) (*Type, bool) {
	switch rt {
	case timeType:
		return Timestamp, true
	case durationType:
		return Interval, true
	case rawJSONType:
		return JSON, true
	case uuidType:
		return UUID, true
	case decimalType:
		return Decimal, true
	case bytesType:
		return Bytes, true
	}

	switch rt.Kind() {
	case reflect.Pointer:
		return defaultForType(rt.Elem())
	case reflect.Bool:
		return Boolean, true
	case reflect.Int8, reflect.Uint8:
		return Tinyint, true
	case reflect.Int16, reflect.Uint16:
		return Smallint, true
	case reflect.Int32, reflect.Uint32:
		return Integer, true
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return Bigint, true
	case reflect.Float32:
		return Real, true
	case reflect.Float64:
		return Double, true
	case reflect.String:
		return Varchar, true
	case reflect.Slice, reflect.Array:
		elem, ok := defaultForType(rt.Elem())
		if !ok {
			return nil, false
		}
		return ArrayOf(elem), true
	default:
		return nil, false
	}
}
