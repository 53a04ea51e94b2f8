// Package taskdb clears the Foreman task and Dynflow history tables.
package taskdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"

	"github.com/lakshaymaurya-felt/satreset/internal/config"
	"github.com/lakshaymaurya-felt/satreset/internal/log"
	"github.com/lakshaymaurya-felt/satreset/internal/system"
)

// TaskTables are emptied together in a single statement. The order follows
// the foreign keys from the leaf tables up to foreman_tasks_tasks.
var TaskTables = []string{
	"dynflow_envelopes",
	"dynflow_delayed_plans",
	"dynflow_steps",
	"dynflow_actions",
	"dynflow_execution_plans",
	"foreman_tasks_locks",
	"foreman_tasks_tasks",
}

// TruncateStatement builds one TRUNCATE covering every table.
func TruncateStatement(tables []string) (string, error) {
	if len(tables) == 0 {
		return "", errors.New("no tables to truncate")
	}
	targets := make([]any, len(tables))
	for i, t := range tables {
		targets[i] = t
	}
	stmt, _, err := goqu.Dialect("postgres").Truncate(targets...).ToSQL()
	if err != nil {
		return "", fmt.Errorf("failed to build truncate statement: %w", err)
	}
	return stmt, nil
}

// Truncator empties a set of tables atomically.
type Truncator interface {
	Truncate(ctx context.Context, tables []string) error
}

// PSQLTruncator runs the statement through psql as the database OS user.
type PSQLTruncator struct {
	runner system.Runner
	cfg    config.PostgresConfig
}

// NewPSQLTruncator returns a Truncator that shells out to psql.
func NewPSQLTruncator(runner system.Runner, cfg config.PostgresConfig) *PSQLTruncator {
	return &PSQLTruncator{runner: runner, cfg: cfg}
}

func (p *PSQLTruncator) Truncate(ctx context.Context, tables []string) error {
	stmt, err := TruncateStatement(tables)
	if err != nil {
		return err
	}
	log.Debug().Str("sql", stmt).Str("database", p.cfg.Database).Msg("truncating via psql")
	if _, err := p.runner.Run(ctx, "sudo", "-i", "-u", p.cfg.OSUser,
		"psql", "-d", p.cfg.Database, "-c", stmt); err != nil {
		return fmt.Errorf("failed to truncate task tables: %w", err)
	}
	return nil
}

// PgxTruncator connects directly and truncates inside a transaction.
type PgxTruncator struct {
	connConfig *pgx.ConnConfig
}

// NewPgxTruncator parses dsn up front so a bad setting fails before any
// service is stopped.
func NewPgxTruncator(dsn string) (*PgxTruncator, error) {
	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	return &PgxTruncator{connConfig: cc}, nil
}

func (p *PgxTruncator) Truncate(ctx context.Context, tables []string) error {
	stmt, err := TruncateStatement(tables)
	if err != nil {
		return err
	}

	conn, err := pgx.ConnectConfig(ctx, p.connConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", p.connConfig.Database, err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	log.Debug().Str("sql", stmt).Str("database", p.connConfig.Database).Msg("truncating via pgx")
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to truncate task tables: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit truncate: %w", err)
	}
	return nil
}

// New picks the pgx truncator when a DSN is configured, psql otherwise.
// Dry runs always go through the runner so nothing is executed.
func New(runner system.Runner, cfg config.PostgresConfig, dryRun bool) (Truncator, error) {
	if cfg.DSN == "" || dryRun {
		return NewPSQLTruncator(runner, cfg), nil
	}
	return NewPgxTruncator(cfg.DSN)
}

var (
	_ Truncator = (*PSQLTruncator)(nil)
	_ Truncator = (*PgxTruncator)(nil)
)
