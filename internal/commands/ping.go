package commands

import (
	"context"

	"github.com/keshon/botcmd/pkg/cmd"
)

func pingCommand(d *Deps) *cmd.Command {
	return &cmd.Command{
		Description: "Pong!",
		Endpoint:    true,
		Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
			if d.Latency == nil {
				return c.Reply(ctx, "🏓 Pong!")
			}
			return c.Replyf(ctx, "🏓 Pong! Response time: `%dms`", d.Latency().Milliseconds())
		}),
	}
}
