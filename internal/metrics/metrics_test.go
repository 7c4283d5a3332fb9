package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBatch(t *testing.T) {
	before := testutil.ToFloat64(TitleOutcomesTotal.WithLabelValues("NEW_REQUEST"))
	runsBefore := testutil.ToFloat64(BatchRunsTotal.WithLabelValues("completed"))

	finished := time.Unix(1700000000, 0)
	RecordBatch("completed", map[string]int{"NEW_REQUEST": 3, "NOT_FOUND": 1}, 2*time.Second, finished)

	assert.Equal(t, before+3, testutil.ToFloat64(TitleOutcomesTotal.WithLabelValues("NEW_REQUEST")))
	assert.Equal(t, runsBefore+1, testutil.ToFloat64(BatchRunsTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(LastBatchTitles.WithLabelValues("NOT_FOUND")))
	assert.Equal(t, float64(1700000000), testutil.ToFloat64(LastBatchTimestamp))

	RecordBatch("completed", map[string]int{"ERROR": 1}, time.Second, finished)
	assert.Equal(t, 1, testutil.CollectAndCount(LastBatchTitles))
}
