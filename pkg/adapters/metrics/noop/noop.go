// Package noop provides a metrics collector that discards everything.
// Used in tests and when metrics are disabled.
package noop

import "time"

// Collector implements MetricsCollector as a no-op.
type Collector struct{}

// NewCollector creates a no-op collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (*Collector) RecordSessionInitiated(string)                {}
func (*Collector) RecordSessionCompleted(string, time.Duration) {}
func (*Collector) RecordFulfillment(string, time.Duration)      {}
func (*Collector) RecordProofComputed(string, time.Duration)    {}
func (*Collector) RecordUploadAttempts(int, string)             {}
func (*Collector) RecordSessionsSwept(int)                      {}
func (*Collector) SetActiveSessions(int)                        {}
func (*Collector) RecordWorkerPoolStatus(int, int, int)         {}
