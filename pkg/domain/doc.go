// Package domain contains the core types of the fair-deal service: session
// records and their lifecycle status, oracle words, the 108-card pack, the
// deterministic shuffle rule, and the gameplay operations over a dealt game.
//
// Everything in this package is pure data and computation; adapters and
// application services live elsewhere and depend on this package, never the
// other way around.
package domain
