package permission

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	staff := Staff{Owner: "1", Admins: []string{"2"}, Support: []string{"3"}}

	tests := []struct {
		name    string
		subject Subject
		want    cmd.Level
	}{
		{name: "bot owner beats guild owner", subject: Subject{UserID: "1", GuildOwnerID: "1"}, want: BotOwner},
		{name: "bot admin", subject: Subject{UserID: "2"}, want: BotAdmin},
		{name: "bot support", subject: Subject{UserID: "3", Permissions: discordgo.PermissionAdministrator}, want: BotSupport},
		{name: "guild owner", subject: Subject{UserID: "4", GuildOwnerID: "4"}, want: ServerOwner},
		{name: "administrator", subject: Subject{UserID: "5", Permissions: discordgo.PermissionAdministrator}, want: Administrator},
		{name: "kick makes moderator", subject: Subject{UserID: "6", Permissions: discordgo.PermissionKickMembers}, want: Moderator},
		{name: "manage messages makes moderator", subject: Subject{UserID: "6", Permissions: discordgo.PermissionManageMessages}, want: Moderator},
		{name: "plain member", subject: Subject{UserID: "7", Permissions: discordgo.PermissionSendMessages}, want: User},
		{name: "empty ids never match", subject: Subject{}, want: User},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(staff, tt.subject))
		})
	}
}

func TestNameAndParse(t *testing.T) {
	assert.Equal(t, "Server Owner", Name(ServerOwner))
	assert.Equal(t, "Level 9", Name(9))

	l, ok := Parse("bot admin")
	assert.True(t, ok)
	assert.Equal(t, BotAdmin, l)

	l, ok = Parse("2")
	assert.True(t, ok)
	assert.Equal(t, Administrator, l)

	_, ok = Parse("emperor")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	perms := int64(discordgo.PermissionKickMembers | discordgo.PermissionBanMembers | discordgo.PermissionSendMessages)
	assert.Equal(t, []string{"Ban Members", "Kick Members"}, Describe(perms))
	assert.Empty(t, Describe(0))
}
