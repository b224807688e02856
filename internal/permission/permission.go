// Package permission maps Discord identities onto the ordered levels the
// command tree is gated by.
package permission

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/botcmd/pkg/cmd"
)

const (
	User cmd.Level = iota
	Moderator
	Administrator
	ServerOwner
	BotSupport
	BotAdmin
	BotOwner
)

var levelNames = []string{
	User:          "User",
	Moderator:     "Moderator",
	Administrator: "Administrator",
	ServerOwner:   "Server Owner",
	BotSupport:    "Bot Support",
	BotAdmin:      "Bot Admin",
	BotOwner:      "Bot Owner",
}

// Name returns the display name of a level. Levels outside the table are
// named by number.
func Name(l cmd.Level) string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("Level %d", l)
}

// Parse accepts a level name (case insensitive) or its number.
func Parse(s string) (cmd.Level, bool) {
	s = strings.TrimSpace(s)
	for l, name := range levelNames {
		if strings.EqualFold(name, s) || fmt.Sprint(l) == s {
			return cmd.Level(l), true
		}
	}
	return 0, false
}

// Staff lists the bot-wide identities that outrank any guild role.
type Staff struct {
	Owner   string
	Admins  []string
	Support []string
}

// Subject is everything needed to place a caller on the ladder.
type Subject struct {
	UserID       string
	GuildOwnerID string
	// Permissions are the member's effective permission bits in the channel.
	Permissions int64
}

const moderatorBits = discordgo.PermissionManageRoles |
	discordgo.PermissionManageMessages |
	discordgo.PermissionKickMembers |
	discordgo.PermissionBanMembers

// Compute returns the highest level the subject qualifies for.
func Compute(staff Staff, s Subject) cmd.Level {
	switch {
	case staff.Owner != "" && s.UserID == staff.Owner:
		return BotOwner
	case contains(staff.Admins, s.UserID):
		return BotAdmin
	case contains(staff.Support, s.UserID):
		return BotSupport
	case s.GuildOwnerID != "" && s.UserID == s.GuildOwnerID:
		return ServerOwner
	case s.Permissions&discordgo.PermissionAdministrator != 0:
		return Administrator
	case s.Permissions&moderatorBits != 0:
		return Moderator
	default:
		return User
	}
}

func contains(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var bitNames = map[int64]string{
	discordgo.PermissionAdministrator:   "Administrator",
	discordgo.PermissionManageGuild:     "Manage Server",
	discordgo.PermissionManageRoles:     "Manage Roles",
	discordgo.PermissionManageChannels:  "Manage Channels",
	discordgo.PermissionManageMessages:  "Manage Messages",
	discordgo.PermissionKickMembers:     "Kick Members",
	discordgo.PermissionBanMembers:      "Ban Members",
	discordgo.PermissionModerateMembers: "Moderate Members",
}

// Describe names the staff-relevant permission bits set in perms, sorted.
func Describe(perms int64) []string {
	var out []string
	for bit, name := range bitNames {
		if perms&bit != 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
