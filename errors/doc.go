// Package errors provides the structured error type shared by cachekit packages.
// Every failure carries a machine-readable code so callers can tell a wiring
// defect (no provider registered) from an unsupported request (every provider
// declined) without string matching.
package errors
