package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/botcmd/internal/commands"
	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/keshon/botcmd/pkg/retrylimit"
	"github.com/rs/zerolog"
)

// Bot is the Discord transport: it turns messages and slash commands into
// dispatcher requests.
type Bot struct {
	dg         *discordgo.Session
	cfg        *config.Config
	storage    *storage.Storage
	prompts    *prompt.Registry
	dispatcher *cmd.Dispatcher
	limiter    *retrylimit.AdaptiveLimiter
	log        zerolog.Logger
}

// New prepares a session without connecting.
func New(cfg *config.Config, store *storage.Storage, prompts *prompt.Registry, log zerolog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Bot{
		dg:      dg,
		cfg:     cfg,
		storage: store,
		prompts: prompts,
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		log:     log.With().Str("component", "discord").Logger(),
	}, nil
}

// Attach sets the dispatcher that handles every command line.
func (b *Bot) Attach(d *cmd.Dispatcher) {
	b.dispatcher = d
}

// Run connects and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if b.dispatcher == nil {
		return errors.New("no dispatcher attached")
	}

	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("❎ Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
}

// Latency is the gateway heartbeat round trip.
func (b *Bot) Latency() time.Duration {
	return b.dg.HeartbeatLatency()
}

// ResolveUser fetches a Discord user and converts it to a command Member.
func (b *Bot) ResolveUser(_ context.Context, id string) (any, error) {
	u, err := b.dg.User(id)
	if err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Response != nil &&
			(rest.Response.StatusCode == http.StatusNotFound || rest.Response.StatusCode == http.StatusBadRequest) {
			return nil, cmd.ErrUserNotFound
		}
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return toMember(u), nil
}

func toMember(u *discordgo.User) commands.Member {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return commands.Member{ID: u.ID, Name: name, Mention: u.Mention(), Bot: u.Bot}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if b.isGuildBlacklisted(g.ID) {
			b.leaveGuild(s, g.ID)
			continue
		}
		if err := b.registerCommands(g.ID); err != nil {
			b.log.Error().Err(err).Str("guild", g.ID).Msg("Error registering slash commands")
		}
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("✅ Discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild", g.Guild.ID).Str("name", g.Guild.Name).Msg("Bot added to guild")
	if b.isGuildBlacklisted(g.Guild.ID) {
		b.leaveGuild(s, g.Guild.ID)
		return
	}
	if err := b.registerCommands(g.Guild.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.Guild.ID).Msg("Failed to register commands for new guild")
	}
}

func (b *Bot) leaveGuild(s *discordgo.Session, guildID string) {
	b.log.Info().Str("guild", guildID).Msg("Leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("Failed to leave guild")
	}
}

func (b *Bot) isGuildBlacklisted(guildID string) bool {
	return b.cfg.IsGuildBlacklisted(guildID)
}

// onMessageCreate feeds pending prompts first, then dispatches prefixed lines.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID != "" && b.isGuildBlacklisted(m.GuildID) {
		return
	}
	if b.prompts.Deliver(prompt.Key{ChannelID: m.ChannelID, UserID: m.Author.ID}, m.Content) {
		return
	}

	prefix := b.guildPrefix(m.GuildID)
	line, ok := StripPrefix(m.Content, prefix, s.State.User.ID)
	if !ok {
		return
	}

	ctx := context.Background()
	out := b.dispatcher.Dispatch(ctx, &cmd.Request{
		Line:   line,
		Prefix: prefix,
		Caller: b.caller(m.Author, m.Member, m.GuildID, m.ChannelID),
		Reply:  &channelReplier{bot: b, channelID: m.ChannelID, reference: m.Reference()},
		Level:  b.levelFunc(m.Author.ID, m.GuildID, m.ChannelID),
		Data:   m,
	})
	b.log.Debug().Str("state", out.State.String()).Str("command", out.Name).Msg("Message handled")
}

func (b *Bot) guildPrefix(guildID string) string {
	if guildID != "" {
		if p, err := b.storage.GuildPrefix(guildID); err == nil && p != "" {
			return p
		}
	}
	return b.cfg.Prefix
}

func (b *Bot) caller(u *discordgo.User, m *discordgo.Member, guildID, channelID string) cmd.Caller {
	name := toMember(u).Name
	if m != nil && m.Nick != "" {
		name = m.Nick
	}
	return cmd.Caller{
		ID:        u.ID,
		Name:      name,
		Mention:   u.Mention(),
		GuildID:   guildID,
		ChannelID: channelID,
	}
}
