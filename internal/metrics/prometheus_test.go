package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBatch(t *testing.T) {
	before := testutil.ToFloat64(SymbolsTotal.WithLabelValues("error"))
	beforeBatches := testutil.ToFloat64(BatchesTotal.WithLabelValues("partial"))

	RecordBatch("partial", 2*time.Second, 2, 1)

	assert.Equal(t, before+1, testutil.ToFloat64(SymbolsTotal.WithLabelValues("error")))
	assert.Equal(t, beforeBatches+1, testutil.ToFloat64(BatchesTotal.WithLabelValues("partial")))
}

func TestRecordRows(t *testing.T) {
	before := testutil.ToFloat64(RowsExtracted.WithLabelValues("live"))
	RecordRows(3, 4)
	assert.Equal(t, before+4, testutil.ToFloat64(RowsExtracted.WithLabelValues("live")))
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}
