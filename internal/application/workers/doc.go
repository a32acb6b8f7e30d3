// Package workers runs the proof computations on a fixed-size pool of
// worker goroutines, keeping the CPU-bound prover off the scheduler's
// I/O path so a slow proof cannot starve fulfillment checks for other
// sessions. A health monitor periodically reports pool utilization.
package workers
