// Package cli is a local front end for the command engine: it runs lines
// against the same registry, storage and middleware as the Discord bot.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/botcmd/internal/app"
	"github.com/keshon/botcmd/internal/commands"
	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/console"
	"github.com/keshon/botcmd/internal/logging"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/internal/version"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	asUser   string
	members  []string
	levelArg string
	logLevel string
)

// session is what every subcommand runs against.
type session struct {
	cfg        *config.Config
	log        zerolog.Logger
	closeLog   io.Closer
	store      *storage.Storage
	prompts    *prompt.Registry
	dispatcher *cmd.Dispatcher
	warnings   []cmd.Warning
	console    *console.Console
}

func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.closeLog != nil {
		s.closeLog.Close()
	}
}

var rootCmd = &cobra.Command{
	Use:           "botcmd",
	Short:         "Run bot commands from a terminal",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `botcmd runs chat commands locally against the bot's registry and datastore.

Commands:
  run      - execute one command line
  repl     - interactive session
  commands - list the registry and any load warnings
  readme   - render the command list into a README template`,
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&asUser, "as", "0:console", "speak as id:name")
	rootCmd.PersistentFlags().StringArrayVar(&members, "member", nil, "known member id:name, repeatable")
	rootCmd.PersistentFlags().StringVar(&levelArg, "level", "BotOwner", "permission level name or number")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
}

func openSession(out io.Writer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	level, ok := permission.Parse(levelArg)
	if !ok {
		return nil, fmt.Errorf("unknown permission level %q", levelArg)
	}
	user, err := console.ParseMember(asUser)
	if err != nil {
		return nil, err
	}
	known := []commands.Member{user}
	for _, m := range members {
		member, err := console.ParseMember(m)
		if err != nil {
			return nil, err
		}
		known = append(known, member)
	}

	s := &session{cfg: cfg}
	s.log, s.closeLog = logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: true})
	s.store, err = storage.New(cfg.StoragePath)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.prompts = prompt.NewRegistry(cfg.PromptTimeout)
	s.dispatcher, s.warnings, err = app.Build(app.Options{
		Config:  cfg,
		Store:   s.store,
		Prompts: s.prompts,
		Users:   console.Resolver(known...),
		Log:     s.log,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.console = console.New(console.Options{
		Dispatcher: s.dispatcher,
		Prompts:    s.prompts,
		Out:        out,
		Prefix:     cfg.Prefix,
		User:       user,
		Level:      level,
		Log:        s.log,
	})
	return s, nil
}
