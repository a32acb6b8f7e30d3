// Package registry implements the session registry: the single owner of all
// session records. Reads return snapshots; every mutation is serialized
// behind a reader/writer lock and no I/O ever happens while it is held.
package registry
