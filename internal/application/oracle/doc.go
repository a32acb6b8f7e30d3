// Package oracle implements the randomness coordinator: requesting a random
// word from the oracle contract and retrieving its fulfillment through a
// hybrid protocol. A historical log query first guards against fulfillments
// that landed before we started watching; after that a live subscription and
// a fixed-interval poll race under a single timeout, and whichever resolves
// first wins while the other is cancelled.
package oracle
