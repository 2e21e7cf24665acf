// Package engine is the scheduling core: it drives a dependency graph
// of jobs to convergence. Each eligible node is taken through the
// check/run/recheck protocol, failed nodes are retried across phases
// within their try budget, and every constructed instance is cleaned up
// in reverse creation order once the run stops.
//
// Execution is deliberately single-threaded and synchronous: exactly one
// job instance runs at a time and a node's backoff wait stalls the whole
// scheduler. That is a documented simplicity trade-off, not a contract
// worth preserving if per-node timers ever become necessary.
package engine
