// Package clustered provides a store provider backed by a shared Redis
// server through go-redis. It ranks 1 for a request of exactly {clustered}
// once its client is connected.
//
// Keys are namespaced as "{prefix}:{cache}:{key}" so several caches can
// share one server. Values are encoded with the store's codec.
//
// Commands are retried on failure and share one circuit breaker per
// provider. While the circuit is open the provider ranks 0, so new caches
// fall back to other providers instead of binding to a failing server.
package clustered
