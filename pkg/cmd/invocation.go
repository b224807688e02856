package cmd

import (
	"context"
	"fmt"
)

// Caller identifies who sent a command line. Adapters fill it; the core only
// reads Mention for %author% substitution and ID for logging.
type Caller struct {
	ID        string
	Name      string
	Mention   string
	GuildID   string
	ChannelID string
}

// Replier sends text back to wherever the command line came from.
type Replier interface {
	Reply(ctx context.Context, content string) error
}

// ReplyFunc adapts a function to Replier.
type ReplyFunc func(ctx context.Context, content string) error

func (f ReplyFunc) Reply(ctx context.Context, content string) error { return f(ctx, content) }

// Context is handed to Invocable handlers. Args are in descent order with user
// tokens already resolved to the UserResolver's entities.
type Context struct {
	// ID is unique per dispatch.
	ID string
	// Name is the canonical top-level name, even when invoked by alias.
	Name   string
	Prefix string
	Caller Caller
	Args   []any
	// Path is the symbolic path of the resolved node.
	Path []string
	Node *Command
	// Permission is the level the node requires; CallerLevel is what the caller holds.
	Permission  Level
	CallerLevel Level
	Registry    *Registry
	// Data carries transport extras (session, event) the core never reads.
	Data any

	replier Replier
}

// Reply sends content to the caller.
func (c *Context) Reply(ctx context.Context, content string) error {
	if c.replier == nil {
		return fmt.Errorf("no reply channel for %s", c.Name)
	}
	return c.replier.Reply(ctx, content)
}

// Replyf formats and sends a reply.
func (c *Context) Replyf(ctx context.Context, format string, a ...any) error {
	return c.Reply(ctx, fmt.Sprintf(format, a...))
}

// Replier exposes the reply capability, e.g. for middlewares.
func (c *Context) Replier() Replier {
	return c.replier
}

// Arg returns the i-th parsed argument or nil.
func (c *Context) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// String returns the i-th argument as text.
func (c *Context) String(i int) string {
	switch v := c.Arg(i).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Number returns the i-th argument if it came from a number branch.
func (c *Context) Number(i int) (float64, bool) {
	f, ok := c.Arg(i).(float64)
	return f, ok
}

// ArgAs returns the i-th argument as T, typically the transport's user type.
func ArgAs[T any](c *Context, i int) (T, bool) {
	v, ok := c.Arg(i).(T)
	return v, ok
}

// DataAs returns the transport extras as T.
func DataAs[T any](c *Context) (T, bool) {
	v, ok := c.Data.(T)
	return v, ok
}
