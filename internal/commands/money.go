package commands

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/pkg/cmd"
)

const (
	// DailyReward is credited by money get.
	DailyReward      int64 = 100
	leaderboardLimit       = 10
	maxTransfer            = 1_000_000_000
)

const askRecipient = "Who are you sending this to?"

type money struct {
	d *Deps
}

func moneyCommand(d *Deps) *cmd.Command {
	m := &money{d: d}
	return &cmd.Command{
		Description: "Check your balance",
		Aliases:     []string{"cash", "bal", "balance"},
		Run:         cmd.Invocable(m.balance),
		User: &cmd.Command{
			Description: "Check someone else's balance",
			Endpoint:    true,
			Run:         cmd.Invocable(m.balanceOf),
		},
		Subcommands: map[string]*cmd.Command{
			"send": {
				Description: "Send money to someone",
				Aliases:     []string{"give", "pay"},
				Run:         cmd.StaticReply(askRecipient),
				User: &cmd.Command{
					Description: "Pick how much to send",
					Run:         cmd.StaticReply("How much are you sending?"),
					Number: &cmd.Command{
						Description: "Transfer the amount",
						Endpoint:    true,
						Run:         cmd.Invocable(m.send),
					},
				},
				// "money send 50" still asks for the recipient.
				Any: &cmd.Command{
					Description: "A recipient is required first",
					Run:         cmd.StaticReply(askRecipient),
				},
			},
			"get": {
				Description: "Claim your daily reward",
				Aliases:     []string{"daily"},
				Endpoint:    true,
				Run:         cmd.Invocable(m.daily),
			},
			"top": {
				Description: "Show the richest members",
				Aliases:     []string{"leaderboard", "lb"},
				Endpoint:    true,
				Run:         cmd.Invocable(m.top),
			},
		},
	}
}

func (m *money) currency() string {
	if m.d.Config != nil && m.d.Config.Currency != "" {
		return m.d.Config.Currency
	}
	return "coins"
}

func (m *money) balance(ctx context.Context, c *cmd.Context) error {
	bal, err := m.d.Store.Balance(c.Caller.GuildID, c.Caller.ID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	return c.Replyf(ctx, "%s, you have **%d %s**. Claim more with `%smoney get`.", c.Caller.Mention, bal, m.currency(), c.Prefix)
}

func (m *money) balanceOf(ctx context.Context, c *cmd.Context) error {
	who, ok := member(c, 0)
	if !ok {
		return fmt.Errorf("unexpected user argument %T", c.Arg(0))
	}
	bal, err := m.d.Store.Balance(c.Caller.GuildID, who.ID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	return c.Replyf(ctx, "%s has **%d %s**.", who.Name, bal, m.currency())
}

func (m *money) send(ctx context.Context, c *cmd.Context) error {
	to, ok := member(c, 0)
	if !ok {
		return fmt.Errorf("unexpected user argument %T", c.Arg(0))
	}
	raw, _ := c.Number(1)
	if raw <= 0 || raw != math.Trunc(raw) || raw > maxTransfer {
		return c.Reply(ctx, "The amount must be a positive whole number.")
	}
	amount := int64(raw)
	switch {
	case to.Bot:
		return c.Reply(ctx, "Bots have no use for money.")
	case to.ID == c.Caller.ID:
		return c.Reply(ctx, "You can't send money to yourself.")
	}

	if m.d.Prompts != nil {
		if err := c.Replyf(ctx, "Send **%d %s** to %s? Reply `yes` to confirm.", amount, m.currency(), to.Name); err != nil {
			return err
		}
		confirmed, err := m.d.Prompts.Confirm(ctx, prompt.Key{ChannelID: c.Caller.ChannelID, UserID: c.Caller.ID})
		switch {
		case errors.Is(err, prompt.ErrTimeout):
			return c.Reply(ctx, "No answer, transfer cancelled.")
		case errors.Is(err, prompt.ErrReplaced), errors.Is(err, prompt.ErrCancelled):
			return nil
		case err != nil:
			return err
		case !confirmed:
			return c.Reply(ctx, "Transfer cancelled.")
		}
	}

	left, err := m.d.Store.Transfer(c.Caller.GuildID, c.Caller.ID, to.ID, amount)
	switch {
	case errors.Is(err, storage.ErrInsufficientFunds):
		return c.Replyf(ctx, "You only have **%d %s**.", left, m.currency())
	case err != nil:
		return fmt.Errorf("transfer: %w", err)
	}
	m.d.Log.Info().
		Str("guild", c.Caller.GuildID).
		Str("from", c.Caller.ID).
		Str("to", to.ID).
		Int64("amount", amount).
		Msg("Money transferred")
	return c.Replyf(ctx, "Sent **%d %s** to %s. You have **%d %s** left.", amount, m.currency(), to.Name, left, m.currency())
}

func (m *money) daily(ctx context.Context, c *cmd.Context) error {
	now := m.d.now()
	bal, next, err := m.d.Store.ClaimDaily(c.Caller.GuildID, c.Caller.ID, DailyReward, now)
	switch {
	case errors.Is(err, storage.ErrAlreadyClaimed):
		return c.Replyf(ctx, "You already claimed your reward. Come back in %s.", next.Sub(now).Round(time.Minute))
	case err != nil:
		return fmt.Errorf("claim daily: %w", err)
	}
	return c.Replyf(ctx, "You claimed **%d %s**! You now have **%d %s**.", DailyReward, m.currency(), bal, m.currency())
}

func (m *money) top(ctx context.Context, c *cmd.Context) error {
	accounts, err := m.d.Store.Leaderboard(c.Caller.GuildID, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	if len(accounts) == 0 {
		return c.Replyf(ctx, "Nobody has any %s yet. Be the first with `%smoney get`!", m.currency(), c.Prefix)
	}
	var sb strings.Builder
	sb.WriteString("**💰 Leaderboard**\n")
	for i, a := range accounts {
		who := lookupMember(ctx, m.d, a.UserID)
		fmt.Fprintf(&sb, "%d. %s: **%d %s**\n", i+1, who.Name, a.Balance, m.currency())
	}
	return c.Reply(ctx, strings.TrimRight(sb.String(), "\n"))
}
