// Package types defines the semantic value types of SQL expressions and
// the promotion rules used to infer the type of arithmetic and bitwise
// operations.
//
// A *Type is immutable. Predefined types are package variables; array
// types are built with ArrayOf and compared with Equal rather than by
// pointer.
package types

import (
	"fmt"
	"strings"
)

// Kind is the storage-independent kind of a semantic type.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindDecimal
	KindFloat
	KindString
	KindBit
	KindBoolean
	KindDate
	KindTime
	KindTimestamp
	KindInterval
	KindJSON
	KindBinary
	KindUUID
	KindArray
)

// Class is the coarse classification used by the promotion rules.
type Class uint8

const (
	ClassOther Class = iota
	ClassNumber
	ClassString
	ClassBit
	ClassTemporal
	ClassBoolean
	ClassJSON
	ClassArray
)

func (c Class) String() string {
	switch c {
	case ClassNumber:
		return "number"
	case ClassString:
		return "string"
	case ClassBit:
		return "bit"
	case ClassTemporal:
		return "temporal"
	case ClassBoolean:
		return "boolean"
	case ClassJSON:
		return "json"
	case ClassArray:
		return "array"
	default:
		return "other"
	}
}

// Type is a semantic value type.
type Type struct {
	name string
	kind Kind
	// size is the width in bits for integer and float kinds.
	size int
	elem *Type
}

// Predefined semantic types.
var (
	Null      = &Type{name: "null", kind: KindNull}
	Tinyint   = &Type{name: "tinyint", kind: KindInteger, size: 8}
	Smallint  = &Type{name: "smallint", kind: KindInteger, size: 16}
	Mediumint = &Type{name: "mediumint", kind: KindInteger, size: 24}
	Integer   = &Type{name: "integer", kind: KindInteger, size: 32}
	Bigint    = &Type{name: "bigint", kind: KindInteger, size: 64}
	Decimal   = &Type{name: "decimal", kind: KindDecimal}
	Real      = &Type{name: "real", kind: KindFloat, size: 32}
	Double    = &Type{name: "double", kind: KindFloat, size: 64}
	Text      = &Type{name: "text", kind: KindString}
	Varchar   = &Type{name: "varchar", kind: KindString}
	Char      = &Type{name: "char", kind: KindString}
	Bit       = &Type{name: "bit", kind: KindBit}
	VarBit    = &Type{name: "varbit", kind: KindBit}
	Boolean   = &Type{name: "boolean", kind: KindBoolean}
	Date      = &Type{name: "date", kind: KindDate}
	Time      = &Type{name: "time", kind: KindTime}
	Timestamp = &Type{name: "timestamp", kind: KindTimestamp}
	Interval  = &Type{name: "interval", kind: KindInterval}
	JSON      = &Type{name: "json", kind: KindJSON}
	JSONB     = &Type{name: "jsonb", kind: KindJSON}
	Bytes     = &Type{name: "bytes", kind: KindBinary}
	UUID      = &Type{name: "uuid", kind: KindUUID}
)

// ArrayOf returns the array type with element type elem.
func ArrayOf(elem *Type) *Type {
	return &Type{name: elem.name + "[]", kind: KindArray, elem: elem}
}

// Name returns the canonical semantic name, e.g. "bigint" or "text[]".
func (t *Type) Name() string { return t.name }

// Kind returns the type's kind.
func (t *Type) Kind() Kind { return t.kind }

// Size returns the width in bits of integer and float types, or 0.
func (t *Type) Size() int { return t.size }

// Elem returns the element type of an array type, or nil.
func (t *Type) Elem() *Type { return t.elem }

func (t *Type) String() string { return t.name }

// Class returns the promotion class of the type.
func (t *Type) Class() Class {
	switch t.kind {
	case KindInteger, KindDecimal, KindFloat:
		return ClassNumber
	case KindString:
		return ClassString
	case KindBit:
		return ClassBit
	case KindDate, KindTime, KindTimestamp, KindInterval:
		return ClassTemporal
	case KindBoolean:
		return ClassBoolean
	case KindJSON:
		return ClassJSON
	case KindArray:
		return ClassArray
	default:
		return ClassOther
	}
}

// Equal reports exact type identity.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if t.kind != o.kind || t.name != o.name || t.size != o.size {
		return false
	}
	if t.kind == KindArray {
		return t.elem.Equal(o.elem)
	}
	return true
}

// IsNumber reports whether t is an integer, decimal or float type.
func (t *Type) IsNumber() bool { return t.Class() == ClassNumber }

// IsString reports whether t is a character string type.
func (t *Type) IsString() bool { return t.kind == KindString }

// IsInteger reports whether t is an integer type.
func (t *Type) IsInteger() bool { return t.kind == KindInteger }

// IsBit reports whether t is a bit-string type.
func (t *Type) IsBit() bool { return t.kind == KindBit }

// IsJSON reports whether t is a JSON document type.
func (t *Type) IsJSON() bool { return t.kind == KindJSON }

// IsArray reports whether t is an array type.
func (t *Type) IsArray() bool { return t.kind == KindArray }

// IsNull reports whether t is the type of the bare NULL literal.
func (t *Type) IsNull() bool { return t.kind == KindNull }

// NumberOrString reports whether t is classified as number or string, the
// domain over which numeric promotion applies.
func (t *Type) NumberOrString() bool {
	c := t.Class()
	return c == ClassNumber || c == ClassString
}

var byName = map[string]*Type{}

func init() {
	for _, t := range []*Type{
		Null, Tinyint, Smallint, Mediumint, Integer, Bigint, Decimal, Real, Double,
		Text, Varchar, Char, Bit, VarBit, Boolean, Date, Time, Timestamp, Interval,
		JSON, JSONB, Bytes, UUID,
	} {
		byName[t.name] = t
	}
	aliases := map[string]*Type{
		"int":              Integer,
		"int4":             Integer,
		"int8":             Bigint,
		"int2":             Smallint,
		"numeric":          Decimal,
		"float":            Double,
		"float8":           Double,
		"float4":           Real,
		"double precision": Double,
		"string":           Text,
		"bool":             Boolean,
		"datetime":         Timestamp,
		"bytea":            Bytes,
		"blob":             Bytes,
		"binary":           Bytes,
		"bit varying":      VarBit,
	}
	for k, v := range aliases {
		byName[k] = v
	}
}

// Parse returns the type named by s. Names are case-insensitive; a "[]"
// suffix denotes an array of the element type.
func Parse(s string) (*Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return nil, fmt.Errorf("empty type name")
	}
	if strings.HasSuffix(name, "[]") {
		elem, err := Parse(strings.TrimSuffix(name, "[]"))
		if err != nil {
			return nil, err
		}
		return ArrayOf(elem), nil
	}
	if t, ok := byName[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown type %q", s)
}
