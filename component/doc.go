// Package component defines the lifecycle contract for long-lived parts of a
// cachekit deployment, such as a cache.Manager, and a Registry that starts
// them in registration order and stops them in reverse.
package component
