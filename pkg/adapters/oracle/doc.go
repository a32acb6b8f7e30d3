// Package oracle provides oracle client implementations.
//
// Implementations:
//   - ethrpc: JSON-RPC against the on-chain VRF consumer contract
//   - memory: scriptable in-memory oracle for development and testing
package oracle
