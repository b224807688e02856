// /internal/commands/about.go
package commands

import "github.com/keshon/botcmd/pkg/cmd"

func aboutCommand() *cmd.Command {
	return &cmd.Command{
		Description: "Shows info about the bot.",
		Endpoint:    true,
		Run: cmd.StaticReply("ℹ️ About\n\n**%bot%** routes chat commands through nested command trees. " +
			"Type `%prefix%help` to see what it can do, or `%prefix%help money` for a tour of the economy.\n" +
			"Repository: https://github.com/keshon/botcmd"),
	}
}
