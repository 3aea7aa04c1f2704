// Package metrics registers prometheus collectors for coordinator
// activity. The core never starts an HTTP listener to serve them -
// registering collectors here and leaving serving to the surrounding
// binary mirrors the pattern in estuary-flow/go/network/metrics.go,
// whose metrics.go files only call promauto.NewCounterVec and never
// touch net/http themselves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commits counts committed transactions, labeled by transaction kind (RW/RO).
var Commits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "repcrec_transaction_commits_total",
	Help: "counter of transactions that reached COMMITTED",
}, []string{"kind"})

// DeadlockAborts counts transactions aborted as deadlock victims.
var DeadlockAborts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "repcrec_deadlock_aborts_total",
	Help: "counter of transactions aborted as the youngest member of a detected cycle",
}, []string{})

// SiteFailureAborts counts RW transactions aborted due to a touched site failing.
var SiteFailureAborts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "repcrec_site_failure_aborts_total",
	Help: "counter of read-write transactions aborted because a site they touched failed",
}, []string{})

// SiteFailures counts fail(s) commands applied.
var SiteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "repcrec_site_failures_total",
	Help: "counter of site failures applied by the coordinator",
}, []string{"site"})

// SiteRecoveries counts recover(s) commands applied.
var SiteRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "repcrec_site_recoveries_total",
	Help: "counter of site recoveries applied by the coordinator",
}, []string{"site"})

// OperationsWaiting counts how many times an operation was retried while
// still IN_PROGRESS at the end of a tick.
var OperationsWaiting = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "repcrec_operations_waiting_total",
	Help: "counter of retry-pass attempts that left an operation IN_PROGRESS",
}, []string{"kind"})

// DeadlocksDetected counts ticks in which a cycle was found in the waits-for graph.
var DeadlocksDetected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "repcrec_deadlocks_detected_total",
	Help: "counter of ticks in which deadlock detection found at least one cycle",
}, []string{})
