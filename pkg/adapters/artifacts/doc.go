// Package artifacts provides proof artifact archival backends.
//
// Implementations:
//   - pinata: pins artifacts to IPFS through the Pinata API
//   - redis: content-addressed storage in Redis
//   - memory: in-memory storage for development and testing
package artifacts
