package repo

import (
	"fmt"
	"strings"

	// Database drivers registered for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"apollo67-api/internal/model"
)

// OpenConn maps a database URL onto a sql driver and opens a go-zero
// connection. Supported schemes: postgres://, postgresql:// (pgx) and
// sqlite:// (embedded single-file database).
func OpenConn(databaseURL string) (sqlx.SqlConn, model.Flavor, error) {
	url := strings.TrimSpace(databaseURL)
	flavor := model.FlavorFromURL(url)

	switch flavor {
	case model.FlavorSQLite:
		path := strings.TrimPrefix(url, "sqlite://")
		path = strings.TrimPrefix(path, "sqlite:")
		if path == "" {
			return nil, flavor, fmt.Errorf("repo: sqlite url %q has no file path", databaseURL)
		}
		return sqlx.NewSqlConn("sqlite", path), flavor, nil
	case model.FlavorPostgres:
		if !strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://") {
			return nil, flavor, fmt.Errorf("repo: unsupported database url %q", databaseURL)
		}
		return sqlx.NewSqlConn("pgx", url), flavor, nil
	default:
		return nil, flavor, fmt.Errorf("repo: unsupported database url %q", databaseURL)
	}
}
