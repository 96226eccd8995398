package testsupport

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"oitracker/internal/adapters/postgres"
)

// The schema is applied once per test binary; every test then works inside
// its own transaction so repositories never see each other's rows.
var (
	pgOnce   sync.Once
	pgClient *postgres.Client
	pgErr    error
)

func sharedPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := PostgresConfigFromEnv(t)

	pgOnce.Do(func() {
		pgClient, pgErr = postgres.NewClient(cfg)
		if pgErr != nil {
			return
		}
		pgErr = pgClient.Migrate(context.Background())
	})
	if pgErr != nil {
		t.Fatalf("postgres test database unavailable: %v", pgErr)
	}
	return pgClient
}

// TestPostgres is a per-test transaction over the shared test database
type TestPostgres struct {
	db   *sqlx.DB
	tx   *sqlx.Tx
	once sync.Once
}

// NewTestPostgres opens a transaction that is rolled back when the test ends.
// Settings come from POSTGRES_* and the test is skipped when they are unset.
func NewTestPostgres(t *testing.T) *TestPostgres {
	t.Helper()

	db := sharedPostgres(t).DB()
	tx, err := db.BeginTxx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin test transaction: %v", err)
	}

	tp := &TestPostgres{db: db, tx: tx}
	t.Cleanup(tp.Rollback)
	return tp
}

// Tx is the handle repositories under test should use
func (p *TestPostgres) Tx() *sqlx.Tx { return p.tx }

// DB sees only committed state
func (p *TestPostgres) DB() *sqlx.DB { return p.db }

// Rollback discards the test's writes. Safe to call more than once.
func (p *TestPostgres) Rollback() {
	p.once.Do(func() { _ = p.tx.Rollback() })
}
