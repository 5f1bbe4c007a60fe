package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AllocationsComputed counts allocation runs; every explicit "calculate"
// action increments it once.
var AllocationsComputed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "patungan_allocations_computed_total",
	Help: "Number of bill allocations computed.",
})

// BillWrites counts store writes by operation.
var BillWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "patungan_bill_writes_total",
	Help: "Number of store writes, labeled by operation.",
}, []string{"op"})

// LiveFeedClients tracks connected websocket clients across all bills.
var LiveFeedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "patungan_live_feed_clients",
	Help: "Currently connected live-feed websocket clients.",
})
