// Package config provides configuration management for the fair deal
// service.
//
// Configuration is loaded from environment variables using the env package.
// All values have development-friendly defaults; the memory backends for
// the oracle, the artifact store, and the event bus let the service run
// with no external dependencies at all.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
