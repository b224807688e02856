package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memory struct {
	mu       sync.Mutex
	history  []storage.CommandHistoryRecord
	disabled map[string]bool
	fail     bool
}

func (m *memory) AppendCommandToHistory(_ string, rec storage.CommandHistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.history = append(m.history, rec)
	return nil
}

func (m *memory) IsGroupDisabled(_, group string) (bool, error) {
	return m.disabled[group], nil
}

type replies []string

func (r *replies) Reply(_ context.Context, s string) error {
	*r = append(*r, s)
	return nil
}

func dispatcher(t *testing.T, mws ...cmd.Middleware) *cmd.Dispatcher {
	t.Helper()
	reg, warnings := cmd.Load(zerolog.Nop(),
		cmd.Definition{Name: "ping", Category: "Utilities", Command: &cmd.Command{Run: cmd.StaticReply("pong")}},
		cmd.Definition{Name: "roll", Category: "Fun", Command: &cmd.Command{
			Run: cmd.StaticReply("4"),
			Any: &cmd.Command{Run: cmd.StaticReply("6")},
		}},
	)
	require.Empty(t, warnings)
	return cmd.NewDispatcher(reg, cmd.WithMiddleware(mws...))
}

func send(d *cmd.Dispatcher, line, guild string, level cmd.Level) (cmd.Outcome, replies) {
	var r replies
	out := d.Dispatch(context.Background(), &cmd.Request{
		Line:   line,
		Prefix: "$",
		Caller: cmd.Caller{ID: "u1", Name: "one", GuildID: guild, ChannelID: "c1"},
		Reply:  &r,
		Level:  func(context.Context) (cmd.Level, error) { return level, nil },
	})
	return out, r
}

func TestWithCommandLogger(t *testing.T) {
	store := &memory{}
	d := dispatcher(t, WithCommandLogger(store, zerolog.Nop()))

	send(d, "roll d20", "g1", 0)
	send(d, "ping", "", 0)

	require.Len(t, store.history, 1)
	rec := store.history[0]
	assert.Equal(t, "roll", rec.Command)
	assert.Equal(t, "<any>", rec.Param)
	assert.Equal(t, "c1", rec.ChannelID)
	assert.Equal(t, "u1", rec.UserID)
	assert.False(t, rec.Datetime.IsZero())

	store.fail = true
	out, r := send(d, "ping", "g1", 0)
	assert.Equal(t, cmd.Replied, out.State)
	assert.Equal(t, replies{"pong"}, r)
}

func TestWithCommandLogger_RecordsPanickingHandler(t *testing.T) {
	store := &memory{}
	reg, _ := cmd.Load(zerolog.Nop(), cmd.Definition{Name: "crash", Command: &cmd.Command{
		Run: cmd.Invocable(func(context.Context, *cmd.Context) error { panic("kaput") }),
	}})
	d := cmd.NewDispatcher(reg, cmd.WithMiddleware(WithCommandLogger(store, zerolog.Nop())))

	out, r := send(d, "crash", "g1", 0)
	assert.Equal(t, cmd.HandlerFailed, out.State)
	require.Len(t, r, 1)
	assert.Contains(t, r[0], "panic: kaput")
	require.Len(t, store.history, 1)
	assert.Equal(t, "crash", store.history[0].Command)
}

func TestWithGuildOnly(t *testing.T) {
	d := dispatcher(t, WithGuildOnly("roll"))

	_, r := send(d, "roll", "", 0)
	assert.Equal(t, replies{"This command can only be used in a server."}, r)
	_, r = send(d, "roll", "g1", 0)
	assert.Equal(t, replies{"4"}, r)
	_, r = send(d, "ping", "", 0)
	assert.Equal(t, replies{"pong"}, r)
}

func TestWithGroupAccessCheck(t *testing.T) {
	store := &memory{disabled: map[string]bool{"Fun": true, "Utilities": true}}
	d := dispatcher(t, WithGroupAccessCheck(store, "Utilities"))

	_, r := send(d, "roll", "g1", 0)
	require.Len(t, r, 1)
	assert.Contains(t, r[0], "disabled on this server")
	assert.Contains(t, r[0], "$commands status")

	_, r = send(d, "ping", "g1", 0)
	assert.Equal(t, replies{"pong"}, r)
	_, r = send(d, "roll", "", 0)
	assert.Equal(t, replies{"4"}, r)
}

func TestCooldown(t *testing.T) {
	cd := NewCooldown(2, 5)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cd.now = func() time.Time { return now }
	d := dispatcher(t, cd.Middleware())

	for i := 0; i < 2; i++ {
		_, r := send(d, "ping", "g1", 0)
		assert.Equal(t, replies{"pong"}, r)
	}
	_, r := send(d, "ping", "g1", 0)
	require.Len(t, r, 1)
	assert.Contains(t, r[0], "Slow down")

	_, r = send(d, "ping", "g1", 5)
	assert.Equal(t, replies{"pong"}, r)

	now = now.Add(30 * time.Second)
	_, r = send(d, "ping", "g1", 0)
	assert.Equal(t, replies{"pong"}, r)

	assert.True(t, NewCooldown(0, 0).Allow("anyone"))
}
