// Package dialect describes the database family and version a tree is
// rendered for, and which optional SQL features each one supports.
package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Family is a database product family.
type Family uint8

const (
	PostgreSQL Family = iota + 1
	MySQL
	SQLite
)

// Families lists every supported family in a stable order.
var Families = []Family{PostgreSQL, MySQL, SQLite}

func (f Family) String() string {
	switch f {
	case PostgreSQL:
		return "PostgreSQL"
	case MySQL:
		return "MySQL"
	case SQLite:
		return "SQLite"
	default:
		return "unknown"
	}
}

// Key returns the lowercase identifier used in configuration files.
func (f Family) Key() string {
	switch f {
	case PostgreSQL:
		return "postgresql"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return ""
	}
}

// ParseFamily accepts the family key or a common alias.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgresql", "postgres", "pg":
		return PostgreSQL, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unknown dialect family %q: must be postgresql, mysql or sqlite", s)
	}
}

// Version is a dotted product version.
type Version struct {
	Major, Minor, Patch int
}

// V is a shorthand constructor for Version.
func V(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// ParseVersion parses "16", "8.0" or "3.45.1".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Patch >= o.Patch
}

func (v Version) String() string {
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Dialect is a render target.
type Dialect struct {
	Family  Family
	Version Version
}

// Latest returns a dialect with a recent version of the family.
func Latest(f Family) Dialect {
	switch f {
	case PostgreSQL:
		return Dialect{Family: f, Version: V(17, 0, 0)}
	case MySQL:
		return Dialect{Family: f, Version: V(8, 4, 0)}
	case SQLite:
		return Dialect{Family: f, Version: V(3, 46, 0)}
	default:
		return Dialect{Family: f}
	}
}

// Parse builds a dialect from a family name and an optional version. An
// empty version selects Latest.
func Parse(family, version string) (Dialect, error) {
	f, err := ParseFamily(family)
	if err != nil {
		return Dialect{}, err
	}
	if version == "" {
		return Latest(f), nil
	}
	v, err := ParseVersion(version)
	if err != nil {
		return Dialect{}, err
	}
	return Dialect{Family: f, Version: v}, nil
}

func (d Dialect) String() string {
	return d.Family.String() + " " + d.Version.String()
}
