// Package probe runs rendered expression fragments on a live database to
// confirm that the target engine accepts the SQL and to read back the
// value it computes.
//
// Only fragments built by this module are executed, always wrapped as a
// single-row SELECT. The probe never runs statements taken from input.
package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/render"
)

// Drivers maps each supported database/sql driver name to its family.
var Drivers = map[string]dialect.Family{
	"sqlite3":  dialect.SQLite,
	"postgres": dialect.PostgreSQL,
	"mysql":    dialect.MySQL,
}

// Probe is an open connection plus the dialect detected from the server.
type Probe struct {
	db      *sql.DB
	driver  string
	dialect dialect.Dialect
	render  []render.Option
	logger  *slog.Logger
}

// Option configures a Probe.
type Option func(*Probe)

// WithRenderOptions passes options to every render call.
func WithRenderOptions(opts ...render.Option) Option {
	return func(p *Probe) { p.render = append(p.render, opts...) }
}

// WithLogger sets the logger for probe activity.
func WithLogger(l *slog.Logger) Option {
	return func(p *Probe) { p.logger = l }
}

// Open connects with driver and dsn, then asks the server for its version.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Probe, error) {
	family, ok := Drivers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q: must be sqlite3, postgres or mysql", driver)
	}
	if err := checkDSN(driver, dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite3" {
		// Every connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	p := &Probe{db: db, driver: driver}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	v, err := p.serverVersion(ctx, family)
	if err != nil {
		db.Close()
		return nil, err
	}
	p.dialect = dialect.Dialect{Family: family, Version: v}
	p.logger.Debug("probe connected", "driver", driver, "dialect", p.dialect.String())
	return p, nil
}

// checkDSN rejects malformed DSNs before a connection is attempted.
func checkDSN(driver, dsn string) error {
	switch driver {
	case "mysql":
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return fmt.Errorf("invalid mysql dsn: %w", err)
		}
	case "postgres":
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if _, err := pq.ParseURL(dsn); err != nil {
				return fmt.Errorf("invalid postgres dsn: %w", err)
			}
		}
	case "sqlite3":
		if dsn == "" {
			return errors.New("sqlite3 dsn must not be empty")
		}
	}
	return nil
}

var versionQueries = map[dialect.Family]string{
	dialect.SQLite:     "SELECT sqlite_version()",
	dialect.PostgreSQL: "SHOW server_version",
	dialect.MySQL:      "SELECT VERSION()",
}

func (p *Probe) serverVersion(ctx context.Context, f dialect.Family) (dialect.Version, error) {
	var raw string
	if err := p.db.QueryRowContext(ctx, versionQueries[f]).Scan(&raw); err != nil {
		return dialect.Version{}, fmt.Errorf("failed to read server version: %w", err)
	}
	v, err := dialect.ParseVersion(numericPrefix(raw))
	if err != nil {
		return dialect.Version{}, fmt.Errorf("unrecognized server version %q: %w", raw, err)
	}
	return v, nil
}

// numericPrefix strips vendor suffixes such as "-0ubuntu0.22.04.1" or
// " (Debian 16.2-1)".
func numericPrefix(s string) string {
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	return strings.TrimRight(s[:end], ".")
}

// Close closes the connection.
func (p *Probe) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Dialect returns the dialect detected at Open.
func (p *Probe) Dialect() dialect.Dialect { return p.dialect }

// Driver returns the database/sql driver name.
func (p *Probe) Driver() string { return p.driver }

// Statement renders n as a one-row SELECT for the probe's dialect. Named
// parameters take their values from named; a missing value is an error.
func (p *Probe) Statement(n expr.Node, named map[string]any) (string, []any, error) {
	text, args, err := expr.Render(n, p.dialect, p.render...)
	if err != nil {
		return "", nil, err
	}
	args, err = bindNamed(args, named)
	if err != nil {
		return "", nil, err
	}
	return "SELECT " + text, args, nil
}

// bindNamed replaces named-parameter slots with positional values so the
// arguments work with every driver, including those that reject
// sql.NamedArg.
func bindNamed(args []any, named map[string]any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		na, ok := a.(sql.NamedArg)
		if !ok {
			out[i] = a
			continue
		}
		v, ok := named[na.Name]
		if !ok {
			return nil, fmt.Errorf("no value for parameter %q", na.Name)
		}
		out[i] = v
	}
	return out, nil
}

// Scalar executes n and returns the single value it produces.
func (p *Probe) Scalar(ctx context.Context, n expr.Node, named map[string]any) (any, error) {
	query, args, err := p.Statement(n, named)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("probe scalar", "sql", query, "args", len(args))

	var v any
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return nil, fmt.Errorf("%s rejected %q: %w", p.dialect, query, err)
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	return v, nil
}

// Accepts prepares n without executing it and returns the statement text.
// A nil error means the engine parsed and planned the fragment. Named
// parameters need no values.
func (p *Probe) Accepts(ctx context.Context, n expr.Node) (string, error) {
	text, _, err := expr.Render(n, p.dialect, p.render...)
	if err != nil {
		return "", err
	}
	query := "SELECT " + text
	stmt, err := p.db.PrepareContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%s rejected %q: %w", p.dialect, query, err)
	}
	return query, stmt.Close()
}
