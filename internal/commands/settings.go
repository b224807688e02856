package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/pkg/cmd"
)

const maxPrefixLength = 5

func prefixCommand(d *Deps) *cmd.Command {
	set := func(ctx context.Context, c *cmd.Context, prefix string) error {
		if err := d.Store.SetGuildPrefix(c.Caller.GuildID, prefix); err != nil {
			return fmt.Errorf("set prefix: %w", err)
		}
		if prefix == "" {
			return c.Replyf(ctx, "Prefix reset to `%s`.", d.Config.Prefix)
		}
		return c.Replyf(ctx, "Prefix set to `%s`. Try `%shelp`.", prefix, prefix)
	}
	return &cmd.Command{
		Description: "Show or change the command prefix for this server.",
		Run:         cmd.StaticReply("The prefix here is `%prefix%`. You can also mention me instead."),
		Subcommands: map[string]*cmd.Command{
			"reset": {
				Description: "Go back to the default prefix",
				Permission:  cmd.Require(permission.Administrator),
				Endpoint:    true,
				Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
					return set(ctx, c, "")
				}),
			},
		},
		Any: &cmd.Command{
			Description: "Set a new prefix",
			Usage:       "<prefix>",
			Permission:  cmd.Require(permission.Administrator),
			Endpoint:    true,
			Run: cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
				prefix := c.String(0)
				if len([]rune(prefix)) > maxPrefixLength {
					return c.Replyf(ctx, "A prefix can be at most %d characters long.", maxPrefixLength)
				}
				return set(ctx, c, prefix)
			}),
		},
	}
}

func commandsCommand(d *Deps) *cmd.Command {
	status := cmd.Invocable(func(ctx context.Context, c *cmd.Context) error {
		disabled, err := d.Store.GetDisabledGroups(c.Caller.GuildID)
		if err != nil {
			return fmt.Errorf("read disabled groups: %w", err)
		}
		off := make(map[string]bool, len(disabled))
		for _, g := range disabled {
			off[g] = true
		}
		var enabledList, disabledList []string
		for _, cat := range categoryNames(c.Registry) {
			if off[cat] {
				disabledList = append(disabledList, "`"+cat+"`")
			} else {
				enabledList = append(enabledList, "`"+cat+"`")
			}
		}
		if len(disabledList) == 0 {
			disabledList = []string{"_none_"}
		}
		if len(enabledList) == 0 {
			enabledList = []string{"_none_"}
		}
		return c.Replyf(ctx, "**Commands Status**\n**Disabled**: %s\n**Enabled**: %s\n%s can't be disabled.",
			strings.Join(disabledList, ", "), strings.Join(enabledList, ", "), config.CategorySettings)
	})

	toggle := func(enable bool) cmd.Invocable {
		return func(ctx context.Context, c *cmd.Context) error {
			cat, ok := matchCategory(c.Registry, c.String(0))
			if !ok {
				return c.Replyf(ctx, "There is no category called `%s`. See `%scommands status`.", c.String(0), c.Prefix)
			}
			if cat == config.CategorySettings {
				return c.Replyf(ctx, "%s can't be disabled.", cat)
			}
			var err error
			if enable {
				err = d.Store.EnableGroup(c.Caller.GuildID, cat)
			} else {
				err = d.Store.DisableGroup(c.Caller.GuildID, cat)
			}
			if err != nil {
				return fmt.Errorf("toggle %s: %w", cat, err)
			}
			state := "disabled"
			if enable {
				state = "enabled"
			}
			return c.Replyf(ctx, "Commands in %s are now %s.", cat, state)
		}
	}

	category := func(desc string, enable bool) *cmd.Command {
		return &cmd.Command{
			Description: desc,
			Permission:  cmd.Require(permission.Administrator),
			Run:         cmd.StaticReply("Which category? See `%prefix%commands status`."),
			Any: &cmd.Command{
				Description: desc,
				Usage:       "<category...>",
				Rest:        true,
				Run:         toggle(enable),
			},
		}
	}

	return &cmd.Command{
		Description: "Check which command categories are enabled or disabled",
		Aliases:     []string{"cmd"},
		Run:         status,
		Subcommands: map[string]*cmd.Command{
			"status":  {Description: "List enabled and disabled categories", Endpoint: true, Run: status},
			"disable": category("Disable a category on this server", false),
			"enable":  category("Enable a category on this server", true),
		},
	}
}

func categoryNames(reg *cmd.Registry) []string {
	var out []string
	for cat := range reg.Categories() {
		if cat != "" {
			out = append(out, cat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return categoryWeight(out[i]) < categoryWeight(out[j]) ||
			categoryWeight(out[i]) == categoryWeight(out[j]) && out[i] < out[j]
	})
	return out
}

// matchCategory accepts a category's full name or its words without the
// leading emoji, case insensitively.
func matchCategory(reg *cmd.Registry, input string) (string, bool) {
	want := bareCategory(input)
	if want == "" {
		return "", false
	}
	for _, cat := range categoryNames(reg) {
		if strings.EqualFold(cat, input) || strings.EqualFold(bareCategory(cat), want) {
			return cat, true
		}
	}
	return "", false
}

func bareCategory(s string) string {
	return strings.TrimSpace(strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
}
