// Package storeflag resolves the --store family of CLI flags into a
// concrete history store.
package storeflag

import (
	"fmt"

	"github.com/memoirhq/memoir"
)

// Kinds accepted by the --store flag.
const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Resolve opens the store selected by kind. An empty dbPath or postgresURI
// falls back to the configured defaults. The caller owns the returned store
// and must Close it.
func Resolve(cfg *memoir.Config, kind string, dbPath string, postgresURI string) (memoir.Store, error) {
	switch kind {
	case KindMemory, "":
		return memoir.NewMemoryStore(), nil

	case KindSQLite:
		if dbPath == "" {
			dbPath = cfg.SQLitePath
		}
		store, err := memoir.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("could not open sqlite store %s: %w", dbPath, err)
		}
		return store, nil

	case KindPostgres:
		if postgresURI == "" {
			postgresURI = cfg.PostgresURI
		}
		if postgresURI == "" {
			return nil, fmt.Errorf("postgres store selected but no URI given (set --postgres or POSTGRES_URI)")
		}
		store, err := memoir.NewPostgresStore(postgresURI)
		if err != nil {
			return nil, fmt.Errorf("could not connect to postgres: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store kind %q (want %s, %s or %s)", kind, KindMemory, KindSQLite, KindPostgres)
	}
}
