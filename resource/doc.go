// Package resource defines the capability tags a cache request asks for.
//
// A Type names one storage tier (heap, off-heap, disk, clustered) and
// carries the facets providers use when ranking themselves. A Set is the
// immutable collection of Types a single request requires. Selection code
// treats both as opaque tokens; only providers interpret the facets.
package resource
