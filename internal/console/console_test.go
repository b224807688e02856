package console

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keshon/botcmd/internal/commands"
	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/internal/storage"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// The datastore installs a signal handler; its runtime loop outlives tests.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("os/signal.signal_recv"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var (
	alice = commands.Member{ID: "1", Name: "alice", Mention: "<@1>"}
	bob   = commands.Member{ID: "2", Name: "bob", Mention: "<@2>"}
)

func newConsole(t *testing.T, out io.Writer) (*Console, *prompt.Registry) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	prompts := prompt.NewRegistry(time.Second)
	users := Resolver(alice, bob)
	deps := &commands.Deps{
		Config:  &config.Config{Prefix: "$", Currency: "Mons"},
		Store:   store,
		Prompts: prompts,
		Users:   users,
		Log:     zerolog.Nop(),
	}
	reg, _ := cmd.Load(zerolog.Nop(), commands.Definitions(deps)...)
	d := cmd.NewDispatcher(reg, cmd.WithUserResolver(users), cmd.WithLevelNamer(permission.Name))
	return New(Options{
		Dispatcher: d,
		Prompts:    prompts,
		Out:        out,
		Prefix:     "$",
		User:       alice,
		Level:      permission.BotOwner,
		Log:        zerolog.Nop(),
	}), prompts
}

func TestExecute(t *testing.T) {
	out := &syncBuffer{}
	c, _ := newConsole(t, out)

	res := c.Execute(context.Background(), "$echo hello there")
	assert.Equal(t, cmd.Invoked, res.State)
	assert.Equal(t, "hello there\n", out.String())

	res = c.Execute(context.Background(), "mony")
	assert.Equal(t, cmd.NotFound, res.State)
}

func TestRun_PromptRoundTrip(t *testing.T) {
	out := &syncBuffer{}
	c, prompts := newConsole(t, out)
	pr, pw := io.Pipe()

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), pr) }()

	write := func(line string) {
		_, err := io.WriteString(pw, line+"\n")
		require.NoError(t, err)
	}
	waitFor := func(s string) {
		require.Eventually(t, func() bool { return strings.Contains(out.String(), s) }, 2*time.Second, 5*time.Millisecond, out.String())
	}

	write("money get")
	waitFor("You claimed **100 Mons**")
	write("money send <@2> 40")
	waitFor("Reply `yes` to confirm.")
	require.Eventually(t, func() bool { return prompts.Pending() == 1 }, 2*time.Second, time.Millisecond)
	write("yes")
	waitFor("Sent **40 Mons** to bob. You have **60 Mons** left.")

	write("exit")
	require.NoError(t, <-done)
	require.NoError(t, pw.Close())
}

func TestRun_ExitCancelsPendingPrompt(t *testing.T) {
	out := &syncBuffer{}
	c, prompts := newConsole(t, out)
	pr, pw := io.Pipe()

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), pr) }()

	write := func(line string) {
		_, err := io.WriteString(pw, line+"\n")
		require.NoError(t, err)
	}

	write("money get")
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "You claimed") }, 2*time.Second, 5*time.Millisecond)
	write("money send <@2> 40")
	require.Eventually(t, func() bool { return prompts.Pending() == 1 }, 2*time.Second, time.Millisecond)

	// The prompt timeout is one second; exit must not wait for it.
	write("exit")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Run blocked on the pending prompt")
	}
	assert.Zero(t, prompts.Pending())
	assert.NotContains(t, out.String(), "Sent **40 Mons**")
	assert.NotContains(t, out.String(), "No answer")
	require.NoError(t, pw.Close())
}

func TestRun_EndsOnEOF(t *testing.T) {
	out := &syncBuffer{}
	c, _ := newConsole(t, out)

	err := c.Run(context.Background(), strings.NewReader("ping\n\n"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Pong!")
}

func TestParseMember(t *testing.T) {
	m, err := ParseMember("42:carol")
	require.NoError(t, err)
	assert.Equal(t, commands.Member{ID: "42", Name: "carol", Mention: "<@42>"}, m)

	_, err = ParseMember("carol")
	assert.Error(t, err)
	_, err = ParseMember(":x")
	assert.Error(t, err)
}
