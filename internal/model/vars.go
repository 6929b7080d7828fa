package model

import (
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// ErrNotFound is re-exported so callers need not import sqlx directly.
var ErrNotFound = sqlx.ErrNotFound

// Flavor selects the SQL dialect used for placeholders and upserts.
type Flavor int

const (
	FlavorPostgres Flavor = iota
	FlavorSQLite
)

// FlavorFromURL picks the dialect from a database URL scheme.
func FlavorFromURL(databaseURL string) Flavor {
	if strings.HasPrefix(strings.TrimSpace(databaseURL), "sqlite") {
		return FlavorSQLite
	}
	return FlavorPostgres
}

func (f Flavor) String() string {
	if f == FlavorSQLite {
		return "sqlite"
	}
	return "postgres"
}
