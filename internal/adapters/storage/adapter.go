package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/goliatone/go-sitekit/internal/navigation"
	"github.com/goliatone/go-sitekit/internal/pagecontent"
	"github.com/goliatone/go-sitekit/internal/runtimeconfig"
)

var (
	ErrSQLProviderRequired = errors.New("storage: provider does not use a database")
	ErrDSNRequired         = errors.New("storage: DSN is required")
)

// Open connects to the database selected by cfg and wraps it with bun. The
// memory provider has no database and returns ErrSQLProviderRequired.
func Open(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	provider := runtimeconfig.NormalizeProvider(cfg.Provider)
	var driver string
	switch provider {
	case runtimeconfig.StorageSQLite:
		driver = "sqlite3"
	case runtimeconfig.StoragePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("%w: %q", ErrSQLProviderRequired, provider)
	}

	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w for %s", ErrDSNRequired, provider)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", provider, err)
	}

	var db *bun.DB
	if provider == runtimeconfig.StorageSQLite {
		sqlDB.SetMaxOpenConns(1)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	} else {
		db = bun.NewDB(sqlDB, pgdialect.New())
	}
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

type tableIndex struct {
	model   any
	name    string
	columns []string
}

// Models lists the bun models persisted by sitekit.
func Models() []any {
	return []any{
		(*navigation.PageModel)(nil),
		(*pagecontent.DocumentModel)(nil),
	}
}

func indexes() []tableIndex {
	return []tableIndex{
		{model: (*navigation.PageModel)(nil), name: "site_pages_page_language_idx", columns: []string{"page_id", "language"}},
		{model: (*pagecontent.DocumentModel)(nil), name: "site_page_contents_page_language_idx", columns: []string{"page_id", "language"}},
	}
}

// Migrate creates the sitekit tables and their unique indexes. It is safe
// to run on every start.
func Migrate(ctx context.Context, db bun.IDB) error {
	if db == nil {
		return errors.New("storage: database is nil")
	}
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table for %T: %w", model, err)
		}
	}
	for _, idx := range indexes() {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			Unique().
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("storage: create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Ping verifies the connection.
func Ping(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return errors.New("storage: database is nil")
	}
	return db.PingContext(ctx)
}
