package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

// Mutation results.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Recorder exposes the inventory counters. A nil *Recorder records nothing.
type Recorder struct {
	mutations *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewRecorder registers the counters on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitledger",
			Name:      "mutations_total",
			Help:      "Stock mutation commands by equipment, operation and result.",
		}, []string{"equipment", "operation", "result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitledger",
			Name:      "backend_fallbacks_total",
			Help:      "Table loads that fell back to a default because the backend failed or returned malformed data.",
		}, []string{"equipment", "table", "reason"}),
	}
	reg.MustRegister(r.mutations, r.fallbacks)
	return r
}

// Mutation counts one deduct/add command.
func (r *Recorder) Mutation(equipment models.Equipment, operation, result string) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(string(equipment), operation, result).Inc()
}

// Fallback counts one default substitution on load.
func (r *Recorder) Fallback(equipment models.Equipment, table, reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(string(equipment), table, reason).Inc()
}
