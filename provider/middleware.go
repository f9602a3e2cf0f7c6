package provider

// Middleware wraps a Selector with cross-cutting behavior (logging,
// metrics, tracing). Wrappers must return the inner Outcome unchanged.
type Middleware func(Selector) Selector

// Chain composes multiple middlewares into one. The first middleware is
// outermost: Chain(a, b, c)(s) is equivalent to a(b(c(s))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Selector) Selector {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}
