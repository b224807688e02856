package middleware

import (
	"context"

	"github.com/keshon/botcmd/pkg/cmd"
)

// GroupStore reports which command categories a guild switched off.
type GroupStore interface {
	IsGroupDisabled(guildID, group string) (bool, error)
}

// WithGroupAccessCheck stops commands whose category is disabled in the
// caller's guild. Commands in the always category cannot be disabled.
func WithGroupAccessCheck(store GroupStore, always string) cmd.Middleware {
	return func(next cmd.Step) cmd.Step {
		return func(ctx context.Context, c *cmd.Context) error {
			if c.Caller.GuildID == "" || c.Registry == nil {
				return next(ctx, c)
			}
			group := c.Registry.Category(c.Name)
			if group == "" || group == always {
				return next(ctx, c)
			}
			disabled, err := store.IsGroupDisabled(c.Caller.GuildID, group)
			if err != nil || !disabled {
				return next(ctx, c)
			}
			return c.Replyf(ctx, "This command is disabled on this server.\nUse `%scommands status` to check which commands are disabled.", c.Prefix)
		}
	}
}
