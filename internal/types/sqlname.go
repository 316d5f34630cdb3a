package types

import "github.com/roach88/exprsql/internal/dialect"

// castNames holds the CAST target spelling per family. MySQL only accepts a
// short list of cast targets, hence SIGNED and CHAR.
var castNames = map[Kind]map[dialect.Family]string{
	KindDecimal:   {dialect.PostgreSQL: "NUMERIC", dialect.MySQL: "DECIMAL", dialect.SQLite: "NUMERIC"},
	KindString:    {dialect.PostgreSQL: "TEXT", dialect.MySQL: "CHAR", dialect.SQLite: "TEXT"},
	KindBoolean:   {dialect.PostgreSQL: "BOOLEAN"},
	KindDate:      {dialect.PostgreSQL: "DATE", dialect.MySQL: "DATE", dialect.SQLite: "TEXT"},
	KindTime:      {dialect.PostgreSQL: "TIME", dialect.MySQL: "TIME", dialect.SQLite: "TEXT"},
	KindTimestamp: {dialect.PostgreSQL: "TIMESTAMP", dialect.MySQL: "DATETIME", dialect.SQLite: "TEXT"},
	KindInterval:  {dialect.PostgreSQL: "INTERVAL"},
	KindBinary:    {dialect.PostgreSQL: "BYTEA", dialect.MySQL: "BINARY", dialect.SQLite: "BLOB"},
	KindUUID:      {dialect.PostgreSQL: "UUID", dialect.MySQL: "CHAR(36)", dialect.SQLite: "TEXT"},
}

// SQLName returns the spelling of t as a CAST target for family f. The
// second result is false when f has no equivalent type.
func (t *Type) SQLName(f dialect.Family) (string, bool) {
	switch t.kind {
	case KindInteger:
		switch f {
		case dialect.PostgreSQL:
			switch {
			case t.size <= 16:
				return "SMALLINT", true
			case t.size <= 32:
				return "INTEGER", true
			default:
				return "BIGINT", true
			}
		case dialect.MySQL:
			return "SIGNED", true
		case dialect.SQLite:
			return "INTEGER", true
		}
	case KindFloat:
		switch f {
		case dialect.PostgreSQL:
			if t.size <= 32 {
				return "REAL", true
			}
			return "DOUBLE PRECISION", true
		case dialect.MySQL:
			if t.size <= 32 {
				return "FLOAT", true
			}
			return "DOUBLE", true
		case dialect.SQLite:
			return "REAL", true
		}
	case KindString:
		if f == dialect.PostgreSQL && t == Varchar {
			return "VARCHAR", true
		}
	case KindJSON:
		switch f {
		case dialect.PostgreSQL:
			if t == JSONB {
				return "JSONB", true
			}
			return "JSON", true
		case dialect.MySQL:
			return "JSON", true
		case dialect.SQLite:
			return "TEXT", true
		}
	case KindBit:
		if f == dialect.PostgreSQL {
			if t == VarBit {
				return "VARBIT", true
			}
			return "BIT", true
		}
		return "", false
	case KindArray:
		if f != dialect.PostgreSQL {
			return "", false
		}
		elem, ok := t.elem.SQLName(f)
		if !ok {
			return "", false
		}
		return elem + "[]", true
	case KindNull:
		return "", false
	}
	if byFamily, ok := castNames[t.kind]; ok {
		name, ok := byFamily[f]
		return name, ok
	}
	return "", false
}
