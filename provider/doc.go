// Package provider selects the storage backend that best suits a request.
//
// Every backend implements Provider and ranks itself against a Descriptor
// (the required resource types plus opaque auxiliary configuration).
// Select ranks every candidate exactly once, keeps only eligible ranks and
// returns the highest, breaking exact ties in favour of the candidate that
// appears first. The result is an Outcome that either carries the winning
// instance or classifies the failure:
//
//   - NoCandidate: nothing was registered; a wiring defect.
//   - NoEligibleProvider: every candidate declined the resources.
//   - AmbiguousTie: several candidates share the top rank and the policy
//     uses TieBreakStrict instead of the default TieBreakFirst.
//
// The default eligibility gate requires rank > 0. EligibilityNonNegative
// also admits zero for systems where zero means "generic fallback".
//
// # Usage
//
//	reg := provider.NewRegistry()
//	reg.Register(heap.NewProvider())
//	reg.Register(disk.NewProvider(fs))
//
//	sel := provider.Chain(
//	    provider.WithLogging(logger.Get("provider")),
//	    provider.WithTracing("cachekit"),
//	)(provider.NewRankSelector(provider.DefaultPolicy()))
//
//	mgr := provider.NewManager(reg, sel)
//	h, err := mgr.CreateStore(ctx, store.Config{Name: "users", Resources: resource.NewSet(resource.Heap)})
//
// Select itself holds no state and takes no locks. Registry hands out
// copy-on-read snapshots so registration can continue while selections run.
package provider
