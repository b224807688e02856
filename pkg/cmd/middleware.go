package cmd

import "context"

// Step is one stage of handler invocation. The innermost step runs the node's
// handler.
type Step func(ctx context.Context, c *Context) error

// Middleware wraps handler invocation (e.g. logging, cooldowns, guild checks).
// It only runs for resolved and authorized commands.
type Middleware func(next Step) Step

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(s Step, mws ...Middleware) Step {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}
