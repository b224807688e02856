package middleware

import (
	"context"

	"github.com/keshon/botcmd/pkg/cmd"
)

// WithGuildOnly refuses the named commands outside a guild.
func WithGuildOnly(names ...string) cmd.Middleware {
	guarded := make(map[string]bool, len(names))
	for _, n := range names {
		guarded[n] = true
	}
	return func(next cmd.Step) cmd.Step {
		return func(ctx context.Context, c *cmd.Context) error {
			if guarded[c.Name] && c.Caller.GuildID == "" {
				return c.Reply(ctx, "This command can only be used in a server.")
			}
			return next(ctx, c)
		}
	}
}
