package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"polyglot/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	ProviderSettings string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		ProviderSettings: fmt.Sprintf("%sprovider_settings", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool.
//
// Settings traffic is tiny, so the pool is kept small. Port 6543 (a PgBouncer
// transaction pooler, e.g. Supabase) does not support prepared statements, so
// QueryExecModeCacheDescribe is selected there unless the connection string
// already sets default_query_exec_mode.
func CreateConnectionPool(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		logger.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the tables used by this package if they do not exist.
// Runs inside one transaction so a half-created schema is never left behind.
func EnsureSchema(ctx context.Context, txManager repositories.TransactionManager, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				owner_id   TEXT PRIMARY KEY,
				provider   TEXT NOT NULL,
				api_key    TEXT NOT NULL DEFAULT '',
				base_url   TEXT NOT NULL DEFAULT '',
				model      TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`, tables.ProviderSettings),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_updated_at_idx ON %s (updated_at)`,
			tables.ProviderSettings, tables.ProviderSettings),
	}

	return txManager.ExecTx(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, pool)
		for _, stmt := range statements {
			if _, err := executor.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
