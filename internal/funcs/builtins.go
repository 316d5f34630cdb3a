package funcs

import (
	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/types"
)

var (
	pgOnly      = []dialect.Family{dialect.PostgreSQL}
	mysqlSQLite = []dialect.Family{dialect.MySQL, dialect.SQLite}
)

// builtins are the functions every registry starts with.
var builtins = []Def{
	{Name: "coalesce", Min: 1, Max: Variadic},
	{Name: "nullif", Min: 2, Max: 2},
	{Name: "greatest", Min: 1, Max: Variadic, Families: []dialect.Family{dialect.PostgreSQL, dialect.MySQL}},
	{Name: "least", Min: 1, Max: Variadic, Families: []dialect.Family{dialect.PostgreSQL, dialect.MySQL}},
	{Name: "abs", Min: 1, Max: 1},
	{Name: "round", Min: 1, Max: 2},
	{Name: "lower", Min: 1, Max: 1, Return: types.Text},
	{Name: "upper", Min: 1, Max: 1, Return: types.Text},
	{Name: "length", Min: 1, Max: 1, Return: types.Integer},
	{Name: "substr", Min: 2, Max: 3, Return: types.Text},
	{Name: "replace", Min: 3, Max: 3, Return: types.Text},
	{Name: "concat", Min: 1, Max: Variadic, Return: types.Text, Families: []dialect.Family{dialect.PostgreSQL, dialect.MySQL}},
	{Name: "now", Min: 0, Max: 0, Return: types.Timestamp, Families: []dialect.Family{dialect.PostgreSQL, dialect.MySQL}},
	{Name: "count", Min: 0, Max: Variadic, Return: types.Bigint, Shape: ShapeKeyword},
	{Name: "sum", Min: 1, Max: 1, Shape: ShapeKeyword},
	{Name: "min", Min: 1, Max: 1, Shape: ShapeKeyword},
	{Name: "max", Min: 1, Max: 1, Shape: ShapeKeyword},
	{Name: "avg", Min: 1, Max: 1, Return: types.Double, Shape: ShapeKeyword},
	{Name: "extract", Min: 1, Max: 1, Return: types.Double, Shape: ShapeKeyword, Families: []dialect.Family{dialect.PostgreSQL, dialect.MySQL}},
	{Name: "row_number", Min: 0, Max: 0, Return: types.Bigint, Feature: dialect.FeatureWindow},
	{Name: "rank", Min: 0, Max: 0, Return: types.Bigint, Feature: dialect.FeatureWindow},
	{Name: "dense_rank", Min: 0, Max: 0, Return: types.Bigint, Feature: dialect.FeatureWindow},
	{Name: "lag", Min: 1, Max: 3, Feature: dialect.FeatureWindow},
	{Name: "lead", Min: 1, Max: 3, Feature: dialect.FeatureWindow},
	{Name: "json_build_object", Min: 0, Max: Variadic, Return: types.JSON, Shape: ShapeKeyValue, Families: pgOnly},
	{Name: "json_object", Min: 0, Max: Variadic, Return: types.JSON, Shape: ShapeKeyValue, Families: mysqlSQLite},
	{Name: "json_build_array", Min: 0, Max: Variadic, Return: types.JSON, Shape: ShapeRow, Families: pgOnly},
	{Name: "json_array", Min: 0, Max: Variadic, Return: types.JSON, Shape: ShapeRow, Families: mysqlSQLite},
	{Name: "make_interval", Min: 1, Max: MaxFixed, Return: types.Interval, Shape: ShapeNamed, Families: pgOnly},
}

// Builtins returns a registry holding the standard functions.
func Builtins() *Registry {
	r := NewRegistry()
	for _, d := range builtins {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}
