// Package disk provides a persistent store provider that keeps one file per
// entry on an afero filesystem. It ranks 1 for a request of exactly {disk}.
//
// Values are encoded with the store's codec (JSON by default), so a decoded
// value takes its generic serialized shape.
package disk
