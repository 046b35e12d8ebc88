package guard

import "github.com/okian/meritrack/pkg/logger"

// Option configures a Guard.
type Option func(*Guard)

// WithPrincipal replaces how the caller id is read from a request.
func WithPrincipal(fn PrincipalFunc) Option {
	return func(g *Guard) {
		if fn != nil {
			g.principal = fn
		}
	}
}

// WithErrorHandler replaces how failures are written.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(g *Guard) {
		if fn != nil {
			g.onError = fn
		}
	}
}

// WithLogger sets the guard logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}
