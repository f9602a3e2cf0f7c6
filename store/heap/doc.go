// Package heap provides the on-heap store provider. It ranks 1 for a request
// of exactly {heap} and declines everything else.
//
//	reg := provider.NewRegistry()
//	_ = reg.Register(heap.New())
package heap
