package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/pkg/cmd"
)

const (
	maxMessageLength      = 2000
	codeLeftBlockWrapper  = "```md"
	codeRightBlockWrapper = "```"
)

var maxContentLength = maxMessageLength - len(codeLeftBlockWrapper) - len(codeRightBlockWrapper) - 2

func historyCommand(d *Deps) *cmd.Command {
	return &cmd.Command{
		Description: "Review the most recent commands on this server",
		Aliases:     []string{"cmd-log", "log"},
		Permission:  cmd.Require(permission.Moderator),
		Endpoint:    true,
		Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
			records, err := d.Store.FetchCommandHistory(c.Caller.GuildID)
			if err != nil {
				return fmt.Errorf("fetch command history: %w", err)
			}
			if len(records) == 0 {
				return c.Reply(ctx, "No command logs found.")
			}

			var builder strings.Builder
			builder.WriteString(fmt.Sprintf("%-19s\t%-15s\t%s\n", "# Datetime", "# Username", "# Command"))

			// latest first
			for i := len(records) - 1; i >= 0; i-- {
				r := records[i]
				command := strings.TrimSpace(r.Command + " " + r.Param)
				line := fmt.Sprintf("%-19s\t%-15s\t%s%s\n", r.Datetime.Format("2006-01-02 15:04:05"), r.Username, c.Prefix, command)
				if builder.Len()+len(line) > maxContentLength {
					break
				}
				builder.WriteString(line)
			}
			return c.Reply(ctx, codeLeftBlockWrapper+"\n"+builder.String()+codeRightBlockWrapper)
		}),
	}
}
