// Package uploader wraps the artifact store with bounded retry: transient
// provider failures are retried a fixed number of times with a fixed delay,
// configuration failures are never retried, and exhaustion surfaces the last
// underlying error.
package uploader
