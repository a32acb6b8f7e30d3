// Package orchestrator implements the session orchestrator that drives a
// deal session from the initial request to a ready, provably-fair game.
//
// The manager coordinates the full lifecycle:
//   - Initiate validates parameters, registers the session, and requests
//     oracle randomness in the background
//   - a periodic scheduler retries fulfillment checks for sessions awaiting
//     randomness, with an in-flight marker per session so overlapping ticks
//     never spawn duplicate attempts
//   - finalize shuffles deterministically from the random word, computes the
//     proof on the worker pool, archives it, and publishes the result
//   - a periodic sweeper purges sessions that never completed
//
// Per-session failures are recorded in the registry and surfaced through
// status queries; they never take down the background machinery.
package orchestrator
