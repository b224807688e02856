package commands

import (
	"context"

	"github.com/keshon/botcmd/pkg/cmd"
)

var eightBallAnswers = []string{
	"It is certain.",
	"Without a doubt.",
	"You may rely on it.",
	"Most likely.",
	"Signs point to yes.",
	"Reply hazy, try again.",
	"Ask again later.",
	"Cannot predict now.",
	"Don't count on it.",
	"My sources say no.",
	"Very doubtful.",
}

func eightBallCommand(d *Deps) *cmd.Command {
	return &cmd.Command{
		Description: "Ask the magic 8-ball a question.",
		Aliases:     []string{"8b", "ask"},
		Run:         cmd.StaticReply("🎱 Ask me a question, %author%!"),
		Any: &cmd.Command{
			Usage: "<question...>",
			Rest:  true,
			Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
				answer := eightBallAnswers[d.intN(len(eightBallAnswers))]
				return c.Replyf(ctx, "🎱 %s", answer)
			}),
		},
	}
}

func echoCommand() *cmd.Command {
	return &cmd.Command{
		Description: "Repeat what you say.",
		Aliases:     []string{"say"},
		Run:         cmd.StaticReply("Say what?"),
		Any: &cmd.Command{
			Usage: "<text...>",
			Rest:  true,
			Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
				return c.Reply(ctx, c.String(0))
			}),
		},
	}
}
