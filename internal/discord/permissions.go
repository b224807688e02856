package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/pkg/cmd"
)

func (b *Bot) staff() permission.Staff {
	return permission.Staff{
		Owner:   b.cfg.DeveloperID,
		Admins:  b.cfg.BotAdmins,
		Support: b.cfg.BotSupport,
	}
}

// levelFunc defers the permission lookup until the dispatcher needs it.
func (b *Bot) levelFunc(userID, guildID, channelID string) cmd.LevelFunc {
	return func(context.Context) (cmd.Level, error) {
		subject, err := b.subject(userID, guildID, channelID)
		if err != nil {
			return permission.Compute(b.staff(), permission.Subject{UserID: userID}), err
		}
		return permission.Compute(b.staff(), subject), nil
	}
}

func (b *Bot) subject(userID, guildID, channelID string) (permission.Subject, error) {
	s := permission.Subject{UserID: userID}
	if guildID == "" {
		return s, nil
	}

	guild, err := b.dg.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, err = b.dg.Guild(guildID)
		if err != nil {
			return s, fmt.Errorf("fetch guild %s: %w", guildID, err)
		}
	}
	s.GuildOwnerID = guild.OwnerID

	perms, err := b.dg.State.UserChannelPermissions(userID, channelID)
	if err != nil {
		perms, err = b.dg.UserChannelPermissions(userID, channelID)
		if err != nil {
			return s, fmt.Errorf("fetch permissions for %s: %w", userID, err)
		}
	}
	s.Permissions = perms
	return s, nil
}

// canSend reports whether the bot may post in a channel.
func canSend(s *discordgo.Session, channelID string) bool {
	perms, err := s.State.UserChannelPermissions(s.State.User.ID, channelID)
	if err != nil {
		return true
	}
	return perms&discordgo.PermissionSendMessages != 0
}
