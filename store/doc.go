// Package store defines the storage engine contract that providers create.
//
// Engines live in sub-packages (heap, disk, clustered, tiered). Each exposes
// a Provider that ranks itself against a requested resource set; the
// provider package picks one and the caller drives its lifecycle.
package store
