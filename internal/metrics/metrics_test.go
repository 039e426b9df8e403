package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.Mutation("Illumina", "deduct", ResultSuccess)
	r.Mutation("Illumina", "deduct", ResultSuccess)
	r.Mutation("Illumina", "deduct", ResultRejected)
	r.Fallback("PacBio", "history", "malformed")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.mutations.WithLabelValues("Illumina", "deduct", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mutations.WithLabelValues("Illumina", "deduct", ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("PacBio", "history", "malformed")))
}

func TestRecorderExportsOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRecorder(reg).Fallback("Illumina", "stock", "invalid_cell")

	count, err := testutil.GatherAndCount(reg, "kitledger_backend_fallbacks_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Mutation("Illumina", "add", ResultSuccess)
		r.Fallback("Illumina", "stock", "unavailable")
	})
}
