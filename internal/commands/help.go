package commands

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/pkg/cmd"
)

func helpCommand(d *Deps) *cmd.Command {
	return &cmd.Command{
		Description: "Show a list of available commands.",
		Aliases:     []string{"h"},
		Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
			return c.Reply(ctx, buildHelpMessage(c))
		}),
		Any: &cmd.Command{
			Description: "Show how to use a command, e.g. `help money send`.",
			Usage:       "<command> [subcommand|<user>|<number>|<any>...]",
			Rest:        true,
			Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
				return c.Reply(ctx, buildCommandHelp(c, cmd.SplitArgs(c.String(0))))
			}),
		},
	}
}

func categoryWeight(cat string) int {
	if w, ok := config.CategoryWeights[cat]; ok {
		return w
	}
	return math.MaxInt
}

// buildHelpMessage lists the commands the caller may run, grouped by category.
func buildHelpMessage(c *cmd.Context) string {
	cats := c.Registry.Categories()
	names := make([]string, 0, len(cats))
	for cat := range cats {
		names = append(names, cat)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := categoryWeight(names[i]), categoryWeight(names[j])
		if wi != wj {
			return wi < wj
		}
		return names[i] < names[j]
	})

	var sb strings.Builder
	sb.WriteString("**📖 Available Commands**\n")
	for _, cat := range names {
		var lines []string
		for _, e := range cats[cat] {
			res, err := cmd.Resolve(e.Command, nil)
			if err != nil || res.Permission > c.CallerLevel {
				continue
			}
			lines = append(lines, fmt.Sprintf("`%s%s` - %s", c.Prefix, e.Name, e.Command.Desc()))
		}
		if len(lines) == 0 {
			continue
		}
		title := cat
		if title == "" {
			title = "Other"
		}
		fmt.Fprintf(&sb, "\n**%s**\n%s\n", title, strings.Join(lines, "\n"))
	}
	fmt.Fprintf(&sb, "\nType `%shelp <command>` for details.", c.Prefix)
	return sb.String()
}

// buildCommandHelp walks the same tree the dispatcher walks, with symbols
// standing in for values.
func buildCommandHelp(c *cmd.Context, tokens []string) string {
	if len(tokens) == 0 {
		return buildHelpMessage(c)
	}
	root, ok := c.Registry.Get(tokens[0])
	if !ok {
		return fmt.Sprintf("The command `%s` was not found.", tokens[0])
	}
	res, err := cmd.ResolveHelp(root, tokens[1:])
	if err != nil {
		return fmt.Sprintf("No help for that: %v", err)
	}
	node := res.Node

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s%s** - %s\n", c.Prefix, strings.Join(res.Path, " "), node.Desc())
	fmt.Fprintf(&sb, "Usage: `%s%s`\n", c.Prefix, cmd.UsageLine(res))

	aliases := node.Aliases
	if node == root {
		aliases = c.Registry.AliasesOf(res.Path[0])
	}
	if len(aliases) > 0 {
		fmt.Fprintf(&sb, "Aliases: `%s`\n", strings.Join(aliases, "`, `"))
	}
	if res.Permission > cmd.LowestLevel {
		fmt.Fprintf(&sb, "Requires: `%s`\n", permission.Name(res.Permission))
	}

	if branches := cmd.Branches(node); len(branches) > 0 {
		sb.WriteString("\n")
		for _, b := range branches {
			line := strings.Join(append(append([]string{}, res.Path...), b.Token), " ")
			fmt.Fprintf(&sb, "`%s%s` - %s\n", c.Prefix, line, b.Command.Desc())
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
