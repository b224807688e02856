package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/pkg/cmd"
)

func levelCommand() *cmd.Command {
	return &cmd.Command{
		Description: "Show your permission level.",
		Aliases:     []string{"perms", "whoami"},
		Endpoint:    true,
		Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
			msg := fmt.Sprintf("%s, your permission level is `%s` (%d).",
				c.Caller.Mention, permission.Name(c.CallerLevel), c.CallerLevel)
			// Slash interactions carry the member's resolved permission bits.
			if ic, ok := cmd.DataAs[*discordgo.InteractionCreate](c); ok && ic.Member != nil {
				if names := permission.Describe(ic.Member.Permissions); len(names) > 0 {
					msg += "\nServer permissions: " + strings.Join(names, ", ")
				}
			}
			return c.Reply(ctx, msg)
		}),
	}
}
