// Package tiered provides a two-tier store provider. A request for {heap}
// plus one persistent type ({disk} or {clustered}) ranks 2, above any
// single-tier provider. Each tier is chosen by running selection again over
// the same candidates: {heap} for the caching tier and the remaining types
// for the authority tier.
//
// Reads go to the caching tier first and fall through to the authority,
// populating the cache on hit. Writes go to the authority and invalidate
// the caching tier.
package tiered
