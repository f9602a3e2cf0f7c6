// Package cache assembles named caches from configuration.
//
// Each configured cache lists the resource types it needs. On Start the
// Manager runs provider selection for that set over its registry (heap,
// disk, clustered and tiered by default) and builds a store with the
// winner. A cache nothing can serve fails Start with an error naming its
// resources.
//
//	cfg, err := cache.Load("cachekit")
//	m, err := cache.NewManager(*cfg)
//	components := component.NewRegistry()
//	_ = components.Register(m)
//	if err := components.StartAll(ctx); err != nil { ... }
//	defer components.StopAll(ctx)
//
//	users, _ := m.Cache("users")
//	_ = users.Put(ctx, "42", profile)
package cache
