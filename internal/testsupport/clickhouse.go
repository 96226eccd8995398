package testsupport

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"oitracker/internal/adapters/clickhouse"
)

var stockSeq uint64

// UniqueStock returns a symbol no other test run uses, for shared tables.
func UniqueStock(prefix string) string {
	n := atomic.AddUint64(&stockSeq, 1)
	return fmt.Sprintf("%s%d%d", prefix, time.Now().UnixNano()%1_000_000, n)
}

// ClickHouseTestHelper manages cleanup for ClickHouse integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper connects using settings from the environment.
func NewClickHouseTestHelper(t *testing.T) *ClickHouseTestHelper {
	t.Helper()

	client, err := clickhouse.NewClient(ClickHouseConfigFromEnv(t))
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	helper := &ClickHouseTestHelper{client: client}
	t.Cleanup(func() { _ = client.Close() })
	return helper
}

// Client exposes the raw ClickHouse client for queries.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}

// RegisterTableCleanup deletes matching rows of a shared table after the test.
func (h *ClickHouseTestHelper) RegisterTableCleanup(t *testing.T, table, condition string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = h.client.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", table, condition))
	})
}
