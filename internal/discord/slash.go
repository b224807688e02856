package discord

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/botcmd/pkg/cmd"
)

// Every top-level command is mirrored as a slash command taking its
// arguments as a single free-text option.
const argsOption = "args"

var slashName = regexp.MustCompile(`^[-_\p{Ll}\p{N}]{1,32}$`)

// slashDefinitions builds one chat command per canonical registry entry.
func slashDefinitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, e := range reg.All() {
		if !slashName.MatchString(e.Name) {
			continue
		}
		defs = append(defs, &discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        e.Name,
			Description: truncate(e.Command.Desc(), 100),
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        argsOption,
				Description: truncate(argsDescription(e.Command), 100),
			}},
		})
	}
	return defs
}

func argsDescription(c *cmd.Command) string {
	if u := cmd.Usage(c); u != "" {
		return "Arguments: " + u
	}
	return "Arguments"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// registerCommands syncs slash commands for a guild: deletes obsolete ones and
// upserts those whose definition changed since the last sync.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	local := slashDefinitions(b.dispatcher.Registry())
	hashes := b.loadCommandHashes(guildID)

	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}
	for _, rc := range remote {
		if _, ok := localNames[rc.Name]; ok {
			continue
		}
		b.log.Info().Str("guild", guildID).Str("command", rc.Name).Msg("Deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", rc.Name).Msg("Failed to delete command")
			continue
		}
		delete(hashes, rc.Name)
	}

	registered := make(map[string]struct{}, len(remote))
	for _, rc := range remote {
		registered[rc.Name] = struct{}{}
	}
	changed := 0
	for _, d := range local {
		h := hashCommand(d)
		if _, ok := registered[d.Name]; ok && hashes[d.Name] == h {
			continue
		}
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", d.Name).Msg("Failed to register command")
			continue
		}
		hashes[d.Name] = h
		changed++
		time.Sleep(25 * time.Millisecond)
	}
	if changed > 0 {
		b.log.Info().Str("guild", guildID).Int("count", changed).Msg("Registered changed commands")
	}
	return b.saveCommandHashes(guildID, hashes)
}

func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// onInteractionCreate dispatches a slash command as if it had been typed.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID != "" && b.isGuildBlacklisted(i.GuildID) {
		return
	}
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	ctx := context.Background()
	reply := &interactionReplier{bot: b, interaction: i.Interaction}
	prefix := b.guildPrefix(i.GuildID)
	out := b.dispatcher.Dispatch(ctx, &cmd.Request{
		Line:   interactionLine(i.ApplicationCommandData()),
		Prefix: prefix,
		Caller: b.caller(user, i.Member, i.GuildID, i.ChannelID),
		Reply:  reply,
		Level:  b.levelFunc(user.ID, i.GuildID, i.ChannelID),
		Data:   i,
	})
	reply.acknowledge(ctx)
	b.log.Debug().Str("state", out.State.String()).Str("command", out.Name).Msg("Interaction handled")
}

func interactionLine(data discordgo.ApplicationCommandInteractionData) string {
	line := data.Name
	for _, o := range data.Options {
		if o.Name == argsOption && o.Type == discordgo.ApplicationCommandOptionString {
			if args := strings.TrimSpace(o.StringValue()); args != "" {
				line += " " + args
			}
		}
	}
	return line
}

// Command hash cache, kept next to the datastore file.

func (b *Bot) commandHashPath(guildID string) string {
	return filepath.Join(filepath.Dir(b.cfg.StoragePath), "commands", guildID+".json")
}

func (b *Bot) loadCommandHashes(guildID string) map[string]string {
	out := make(map[string]string)
	if data, err := os.ReadFile(b.commandHashPath(guildID)); err == nil {
		if err := json.Unmarshal(data, &out); err != nil {
			b.log.Warn().Err(err).Str("guild", guildID).Msg("Ignoring corrupt command cache")
		}
	}
	return out
}

func (b *Bot) saveCommandHashes(guildID string, hashes map[string]string) error {
	path := b.commandHashPath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		out[i] = map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
