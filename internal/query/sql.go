package query

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

func goquDialect(dialect string) (goqu.DialectWrapper, error) {
	switch dialect {
	case "postgres":
		return goqu.Dialect("postgres"), nil
	case "sqlite":
		return goqu.Dialect("sqlite3"), nil
	default:
		return goqu.DialectWrapper{}, fmt.Errorf("query: unsupported dialect %q", dialect)
	}
}

// ToSQL renders the SELECT a filter over table turns into for the given GORM
// dialect name, with the values inlined. It is meant for display.
func ToSQL(dialect, table string, p Predicate) (string, error) {
	d, err := goquDialect(dialect)
	if err != nil {
		return "", err
	}

	ds := d.From(table)
	if p != nil {
		ds = ds.Where(p.Goqu())
	}

	sql, _, err := ds.ToSQL()
	if err != nil {
		return "", fmt.Errorf("render %s: %w", p, err)
	}
	return sql, nil
}
