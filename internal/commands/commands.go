// Package commands holds the bot's command trees and the single place where
// they are registered.
package commands

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
)

// Member is the value transports resolve <user> tokens to.
type Member struct {
	ID      string
	Name    string
	Mention string
	Bot     bool
}

// Deps are the services command handlers use.
type Deps struct {
	Config *config.Config
	Store  *storage.Storage
	// Prompts may be nil; confirmations are then skipped.
	Prompts *prompt.Registry
	// Users resolves IDs for listings such as the leaderboard.
	Users cmd.UserResolver
	// Latency reports the transport's round trip, when it has one.
	Latency func() time.Duration
	Log     zerolog.Logger
	Rand    *rand.Rand
	Now     func() time.Time
	// Static are custom reply commands loaded from YAML.
	Static []StaticCommand
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) intN(n int) int {
	if d.Rand != nil {
		return d.Rand.IntN(n)
	}
	return rand.IntN(n)
}

// GuildOnly names the commands that keep per-guild state.
var GuildOnly = []string{"money", "prefix", "commands", "history"}

// Definitions returns every built-in command plus the static ones, in
// registration order.
func Definitions(d *Deps) []cmd.Definition {
	defs := []cmd.Definition{
		{Name: "help", Category: config.CategoryInformation, Command: helpCommand(d)},
		{Name: "ping", Category: config.CategoryInformation, Command: pingCommand(d)},
		{Name: "about", Category: config.CategoryInformation, Command: aboutCommand()},
		{Name: "level", Category: config.CategoryInformation, Command: levelCommand()},
		{Name: "echo", Category: config.CategoryUtilities, Command: echoCommand()},
		{Name: "money", Category: config.CategoryEconomy, Command: moneyCommand(d)},
		{Name: "roll", Category: config.CategoryFun, Command: rollCommand(d)},
		{Name: "8ball", Category: config.CategoryFun, Command: eightBallCommand(d)},
		{Name: "prefix", Category: config.CategorySettings, Command: prefixCommand(d)},
		{Name: "commands", Category: config.CategorySettings, Command: commandsCommand(d)},
		{Name: "history", Category: config.CategorySettings, Command: historyCommand(d)},
	}
	for _, s := range d.Static {
		defs = append(defs, s.Definition())
	}
	return defs
}

// member returns the i-th argument as a resolved Member.
func member(c *cmd.Context, i int) (Member, bool) {
	return cmd.ArgAs[Member](c, i)
}

func lookupMember(ctx context.Context, d *Deps, id string) Member {
	if d.Users != nil {
		if v, err := d.Users.ResolveUser(ctx, id); err == nil {
			if m, ok := v.(Member); ok {
				return m
			}
		}
	}
	return Member{ID: id, Name: id, Mention: "<@" + id + ">"}
}
