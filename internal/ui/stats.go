package ui

import "sync/atomic"

// Stats counts scan outcomes for the closing summary.
type Stats struct {
	Found   atomic.Int64
	Cached  atomic.Int64
	Absent  atomic.Int64
	Failed  atomic.Int64
	Skipped atomic.Int64
}
