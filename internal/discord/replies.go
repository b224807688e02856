package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/botcmd/pkg/retrylimit"
)

// MessageLimit is the longest message Discord accepts.
const MessageLimit = 2000

// restStatus extracts the HTTP status of a discordgo REST failure.
func restStatus(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

// classify turns client errors other than 429 into fatal ones.
func classify(err error) error {
	code := restStatus(err)
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return &retrylimit.FatalError{Err: err}
	}
	return err
}

func (b *Bot) send(ctx context.Context, fn func() error) error {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 5
	cfg.Status = restStatus
	cfg.Logger = b.log
	return retrylimit.WithRetryConfig(ctx, func() error { return classify(fn()) }, b.limiter, cfg)
}

// splitMessage cuts content into chunks of at most limit runes, preferring
// line breaks.
func splitMessage(content string, limit int) []string {
	runes := []rune(content)
	if len(runes) <= limit {
		return []string{content}
	}
	var chunks []string
	for len(runes) > limit {
		cut := limit
		if i := lastIndex(runes[:limit], '\n'); i > 0 {
			cut = i + 1
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// channelReplier answers a prefixed message in its channel.
type channelReplier struct {
	bot       *Bot
	channelID string
	reference *discordgo.MessageReference
}

func (r *channelReplier) Reply(ctx context.Context, content string) error {
	if !canSend(r.bot.dg, r.channelID) {
		r.bot.log.Warn().Str("channel", r.channelID).Msg("Missing permission to send messages")
		return nil
	}
	for i, chunk := range splitMessage(content, MessageLimit) {
		msg := &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
		}
		if i == 0 {
			msg.Reference = r.reference
		}
		err := r.bot.send(ctx, func() error {
			_, err := r.bot.dg.ChannelMessageSendComplex(r.channelID, msg)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// interactionReplier answers a slash command: the first reply completes the
// interaction, later ones are followups.
type interactionReplier struct {
	bot         *Bot
	interaction *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

func (r *interactionReplier) Reply(ctx context.Context, content string) error {
	for _, chunk := range splitMessage(content, MessageLimit) {
		r.mu.Lock()
		first := !r.responded
		r.responded = true
		r.mu.Unlock()

		err := r.bot.send(ctx, func() error {
			if first {
				return r.bot.dg.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseChannelMessageWithSource,
					Data: &discordgo.InteractionResponseData{Content: chunk},
				})
			}
			_, err := r.bot.dg.FollowupMessageCreate(r.interaction, false, &discordgo.WebhookParams{Content: chunk})
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// acknowledge completes an interaction that produced no reply.
func (r *interactionReplier) acknowledge(ctx context.Context) {
	r.mu.Lock()
	done := r.responded
	r.mu.Unlock()
	if !done {
		_ = r.Reply(ctx, "Done.")
	}
}
