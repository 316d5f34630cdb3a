package render

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// AppendLiteral appends v as an inline literal of semantic type t.
//
// A nil value renders NULL whatever the type. A value whose Go kind does
// not fit t is a construction error; a type the target cannot spell inline
// is a dialect error.
func (c *Context) AppendLiteral(t *types.Type, v any) error {
	if v == nil || t.IsNull() {
		c.WriteString("NULL")
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			c.WriteString("NULL")
			return nil
		}
		if _, isDecimal := v.(*apd.Decimal); !isDecimal {
			return c.AppendLiteral(t, rv.Elem().Interface())
		}
	}

	switch t.Kind() {
	case types.KindInteger:
		s, ok := formatInteger(v)
		if !ok {
			return literalMismatch(t, v)
		}
		c.WriteString(s)
	case types.KindDecimal:
		s, ok := formatDecimal(v)
		if !ok {
			return literalMismatch(t, v)
		}
		c.WriteString(s)
	case types.KindFloat:
		f, ok := toFloat(v)
		if !ok {
			return literalMismatch(t, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return sqlerr.InvalidOperand("literal", fmt.Sprintf("%v", f), "non-finite float has no SQL literal")
		}
		c.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case types.KindString:
		s, ok := v.(string)
		if !ok {
			return literalMismatch(t, v)
		}
		c.WriteString(c.QuoteString(s))
	case types.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return literalMismatch(t, v)
		}
		c.appendBool(b)
	case types.KindDate, types.KindTime, types.KindTimestamp:
		return c.appendTemporal(t, v)
	case types.KindInterval:
		return c.appendInterval(t, v)
	case types.KindJSON:
		return c.appendJSON(t, v)
	case types.KindBinary:
		b, ok := v.([]byte)
		if !ok {
			return literalMismatch(t, v)
		}
		c.appendBytes(b)
	case types.KindUUID:
		return c.appendUUID(t, v)
	case types.KindBit:
		return c.appendBits(t, v)
	case types.KindArray:
		return c.appendArray(t, v)
	default:
		return sqlerr.New(sqlerr.CodeInternal, "no literal rendering for type %s", t)
	}
	return nil
}

func literalMismatch(t *types.Type, v any) *sqlerr.Error {
	return sqlerr.InvalidOperand("literal", fmt.Sprintf("%v", v),
		fmt.Sprintf("Go value of type %T cannot be written as %s", v, t))
}

func (c *Context) appendBool(b bool) {
	if c.Family() == dialect.SQLite {
		if b {
			c.WriteString("1")
		} else {
			c.WriteString("0")
		}
		return
	}
	if b {
		c.WriteString("TRUE")
	} else {
		c.WriteString("FALSE")
	}
}

var temporalLayouts = map[types.Kind]struct {
	keyword string
	layout  string
}{
	types.KindDate:      {"DATE", "2006-01-02"},
	types.KindTime:      {"TIME", "15:04:05.999999"},
	types.KindTimestamp: {"TIMESTAMP", "2006-01-02 15:04:05.999999"},
}

func (c *Context) appendTemporal(t *types.Type, v any) error {
	spec := temporalLayouts[t.Kind()]
	var text string
	switch val := v.(type) {
	case time.Time:
		text = val.Format(spec.layout)
	case string:
		text = val
	default:
		return literalMismatch(t, v)
	}
	if c.Family() != dialect.SQLite {
		c.WriteString(spec.keyword)
		c.WriteByte(' ')
	}
	c.WriteString(c.QuoteString(text))
	return nil
}

func (c *Context) appendInterval(t *types.Type, v any) error {
	if c.Family() != dialect.PostgreSQL {
		return c.Unsupported("interval literal")
	}
	var text string
	switch val := v.(type) {
	case time.Duration:
		text = fmt.Sprintf("%d microseconds", val.Microseconds())
	case string:
		text = val
	default:
		return literalMismatch(t, v)
	}
	c.WriteString("INTERVAL ")
	c.WriteString(c.QuoteString(text))
	return nil
}

func (c *Context) appendJSON(t *types.Type, v any) error {
	var text string
	switch val := v.(type) {
	case json.RawMessage:
		text = string(val)
	case []byte:
		text = string(val)
	case string:
		text = val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return sqlerr.InvalidOperand("literal", fmt.Sprintf("%T", v), "value cannot be encoded as JSON: "+err.Error())
		}
		text = string(b)
	}
	c.WriteString(c.QuoteString(text))
	if c.Family() == dialect.PostgreSQL {
		if t == types.JSONB {
			c.WriteString("::JSONB")
		} else {
			c.WriteString("::JSON")
		}
	}
	return nil
}

func (c *Context) appendBytes(b []byte) {
	if c.Family() == dialect.PostgreSQL {
		c.WriteString(`'\x`)
		c.WriteString(hex.EncodeToString(b))
		c.WriteString(`'::BYTEA`)
		return
	}
	c.WriteString("X'")
	c.WriteString(strings.ToUpper(hex.EncodeToString(b)))
	c.WriteByte('\'')
}

func (c *Context) appendUUID(t *types.Type, v any) error {
	var text string
	switch val := v.(type) {
	case uuid.UUID:
		text = val.String()
	case string:
		id, err := uuid.Parse(val)
		if err != nil {
			return sqlerr.InvalidOperand("literal", val, "invalid UUID: "+err.Error())
		}
		text = id.String()
	default:
		return literalMismatch(t, v)
	}
	c.WriteString(c.QuoteString(text))
	if c.Family() == dialect.PostgreSQL {
		c.WriteString("::UUID")
	}
	return nil
}

func (c *Context) appendBits(t *types.Type, v any) error {
	if err := c.Require(dialect.FeatureBitLiteral); err != nil {
		return err
	}
	s, ok := v.(string)
	if !ok {
		return literalMismatch(t, v)
	}
	if strings.Trim(s, "01") != "" {
		return sqlerr.InvalidOperand("literal", s, "bit string may contain only 0 and 1")
	}
	c.WriteString("B'")
	c.WriteString(s)
	c.WriteByte('\'')
	return nil
}

func (c *Context) appendArray(t *types.Type, v any) error {
	if err := c.Require(dialect.FeatureArrayLiteral); err != nil {
		return err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return literalMismatch(t, v)
	}
	c.WriteString("ARRAY[")
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			c.WriteString(", ")
		}
		if err := c.AppendLiteral(t.Elem(), rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	c.WriteByte(']')
	if rv.Len() == 0 {
		name, _ := t.SQLName(c.Family())
		c.WriteString("::")
		c.WriteString(name)
	}
	return nil
}

func formatInteger(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	default:
		return "", false
	}
}

func formatDecimal(v any) (string, bool) {
	switch val := v.(type) {
	case *apd.Decimal:
		return val.Text('f'), true
	case apd.Decimal:
		return val.Text('f'), true
	case string:
		d, _, err := apd.NewFromString(val)
		if err != nil {
			return "", false
		}
		return d.Text('f'), true
	}
	if s, ok := formatInteger(v); ok {
		return s, true
	}
	if f, ok := toFloat(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}
