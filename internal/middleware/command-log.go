package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
)

// HistoryStore receives one record per invocation in a guild.
type HistoryStore interface {
	AppendCommandToHistory(guildID string, rec storage.CommandHistoryRecord) error
}

// WithCommandLogger logs every invocation and appends it to the guild's
// command history once the handler finished, panics included.
func WithCommandLogger(store HistoryStore, log zerolog.Logger) cmd.Middleware {
	return func(next cmd.Step) cmd.Step {
		return func(ctx context.Context, c *cmd.Context) (err error) {
			start := time.Now()
			defer func() {
				r := recover()
				record(store, log, c, start, err != nil || r != nil)
				if r != nil {
					panic(r)
				}
			}()
			return next(ctx, c)
		}
	}
}

func record(store HistoryStore, log zerolog.Logger, c *cmd.Context, start time.Time, failed bool) {
	log.Info().
		Str("invocation", c.ID).
		Str("command", c.Name).
		Str("path", strings.Join(c.Path, " ")).
		Str("user", c.Caller.ID).
		Str("guild", c.Caller.GuildID).
		Dur("took", time.Since(start)).
		Bool("failed", failed).
		Msg("Command invoked")

	if c.Caller.GuildID == "" || store == nil {
		return
	}
	rec := storage.CommandHistoryRecord{
		ChannelID: c.Caller.ChannelID,
		UserID:    c.Caller.ID,
		Username:  c.Caller.Name,
		Command:   c.Name,
		Param:     strings.Join(c.Path[1:], " "),
		Datetime:  start,
	}
	if e := store.AppendCommandToHistory(c.Caller.GuildID, rec); e != nil {
		log.Warn().Err(e).Str("command", c.Name).Msg("Failed to log command")
	}
}
