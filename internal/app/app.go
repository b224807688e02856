// Package app assembles the command registry and dispatcher shared by every
// transport.
package app

import (
	"fmt"
	"time"

	"github.com/keshon/botcmd/internal/commands"
	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/middleware"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/internal/version"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
)

type Options struct {
	Config  *config.Config
	Store   *storage.Storage
	Prompts *prompt.Registry
	Users   cmd.UserResolver
	Latency func() time.Duration
	Log     zerolog.Logger
}

// Build loads static commands, the registry and a dispatcher with the
// standard middleware chain.
func Build(opts Options) (*cmd.Dispatcher, []cmd.Warning, error) {
	cfg := opts.Config

	var static []commands.StaticCommand
	if cfg.StaticCommandsPath != "" {
		var err error
		static, err = commands.LoadStatic(cfg.StaticCommandsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("static commands: %w", err)
		}
	}

	deps := &commands.Deps{
		Config:  cfg,
		Store:   opts.Store,
		Prompts: opts.Prompts,
		Users:   opts.Users,
		Latency: opts.Latency,
		Log:     opts.Log,
		Static:  static,
	}
	reg, warnings := cmd.Load(opts.Log, commands.Definitions(deps)...)

	cooldown := middleware.NewCooldown(cfg.CooldownPerMinute, permission.BotSupport)
	d := cmd.NewDispatcher(reg,
		cmd.WithLogger(opts.Log),
		cmd.WithUserResolver(opts.Users),
		cmd.WithLevelNamer(permission.Name),
		cmd.WithVariables(map[string]string{
			"bot":      version.AppName,
			"currency": cfg.Currency,
		}),
		cmd.WithMiddleware(
			middleware.WithCommandLogger(opts.Store, opts.Log),
			middleware.WithGuildOnly(commands.GuildOnly...),
			middleware.WithGroupAccessCheck(opts.Store, config.CategorySettings),
			cooldown.Middleware(),
		),
	)
	return d, warnings, nil
}
