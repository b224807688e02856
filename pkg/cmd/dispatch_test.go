package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *recorder) Reply(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, content)
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *recorder) last() string {
	all := r.all()
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1]
}

type fakeUser struct {
	ID   string
	Name string
}

func fakeUsers(known ...string) UserResolver {
	return UserResolverFunc(func(_ context.Context, id string) (any, error) {
		for _, k := range known {
			if k == id {
				return fakeUser{ID: id, Name: "user" + id}, nil
			}
		}
		return nil, ErrUserNotFound
	})
}

func levelOf(l Level) LevelFunc {
	return func(context.Context) (Level, error) { return l, nil }
}

type transfer struct {
	to     fakeUser
	amount float64
}

func newTestDispatcher(t *testing.T, transfers chan<- transfer, opts ...Option) *Dispatcher {
	t.Helper()
	money := &Command{
		Description: "Check your balance",
		Aliases:     []string{"cash"},
		Run:         StaticReply("%author% has 100 coins. Try %prefix%money send."),
		Subcommands: map[string]*Command{
			"send": {
				Run: StaticReply("Who are you sending this to?"),
				User: &Command{
					Run: StaticReply("How much are you sending?"),
					Number: &Command{
						Endpoint: true,
						Run: Invocable(func(ctx context.Context, c *Context) error {
							to, ok := ArgAs[fakeUser](c, 0)
							if !ok {
								return fmt.Errorf("unexpected target %T", c.Arg(0))
							}
							amount, _ := c.Number(1)
							transfers <- transfer{to: to, amount: amount}
							return c.Replyf(ctx, "Sent %v to %s.", amount, to.Name)
						}),
					},
				},
			},
		},
	}
	admin := &Command{
		Permission: Require(2),
		Run:        StaticReply("admin only"),
		Subcommands: map[string]*Command{
			"open": {Permission: Require(0), Run: StaticReply("open to all")},
		},
	}
	fail := &Command{Run: Invocable(func(context.Context, *Context) error { return errors.New("boom") })}
	crash := &Command{Run: Invocable(func(context.Context, *Context) error { panic("kaput") })}

	reg := load(t,
		Definition{Name: "money", Command: money},
		Definition{Name: "admin", Command: admin},
		Definition{Name: "fail", Command: fail},
		Definition{Name: "crash", Command: crash},
		Definition{Name: "noop", Command: &Command{}},
	)
	names := map[Level]string{0: "User", 1: "Moderator", 2: "Administrator"}
	opts = append([]Option{
		WithLogger(zerolog.Nop()),
		WithUserResolver(fakeUsers("123")),
		WithLevelNamer(func(l Level) string { return names[l] }),
	}, opts...)
	return NewDispatcher(reg, opts...)
}

func request(line string, rec *recorder, level Level) *Request {
	return &Request{
		Line:   line,
		Prefix: "$",
		Caller: Caller{ID: "7", Name: "seven", Mention: "<@7>"},
		Reply:  rec,
		Level:  levelOf(level),
	}
}

func TestDispatch_EndToEndTransfer(t *testing.T) {
	transfers := make(chan transfer, 1)
	d := newTestDispatcher(t, transfers)
	rec := &recorder{}

	out := d.Dispatch(context.Background(), request(`money send <@123> 50`, rec, 0))
	require.Equal(t, Invoked, out.State, out.Err)
	assert.Equal(t, "money", out.Name)
	assert.Equal(t, transfer{to: fakeUser{ID: "123", Name: "user123"}, amount: 50}, <-transfers)
	assert.Equal(t, []string{"Sent 50 to user123."}, rec.all())
}

func TestDispatch_StaticReplySubstitution(t *testing.T) {
	d := newTestDispatcher(t, nil, WithVariables(map[string]string{"currency": "coins"}))
	rec := &recorder{}

	out := d.Dispatch(context.Background(), request("cash", rec, 0))
	assert.Equal(t, Replied, out.State)
	assert.Equal(t, "money", out.Name)
	assert.Equal(t, "<@7> has 100 coins. Try $money send.", rec.last())

	d.Dispatch(context.Background(), request("money send", rec, 0))
	assert.Equal(t, "Who are you sending this to?", rec.last())

	d.Dispatch(context.Background(), request("noop", rec, 0))
	assert.Equal(t, DefaultReply, rec.last())
}

func TestDispatch_NotFound(t *testing.T) {
	d := newTestDispatcher(t, nil)
	rec := &recorder{}

	out := d.Dispatch(context.Background(), request("mony", rec, 0))
	assert.Equal(t, NotFound, out.State)
	assert.Equal(t, "The command `mony` was not found. Did you mean `$money`?", rec.last())

	out = d.Dispatch(context.Background(), request("   ", rec, 0))
	assert.Equal(t, Empty, out.State)
	assert.Len(t, rec.all(), 1)
}

func TestSuggest_IgnoresCase(t *testing.T) {
	reg := load(t,
		Definition{Name: "Weather", Command: &Command{}},
		Definition{Name: "ping", Command: &Command{}},
	)
	d := NewDispatcher(reg)

	assert.Equal(t, "Weather", d.Suggest("wether"))
	assert.Equal(t, "Weather", d.Suggest("WAETHER"))
	assert.Equal(t, "ping", d.Suggest("PNIG"))
	assert.Equal(t, "", d.Suggest("zzzzzz"))
}

func TestDispatch_ResolveErrors(t *testing.T) {
	d := newTestDispatcher(t, nil)
	rec := &recorder{}

	out := d.Dispatch(context.Background(), request("money take 5", rec, 0))
	assert.Equal(t, ResolveFailed, out.State)
	assert.Contains(t, rec.last(), "`take`")
	assert.Contains(t, rec.last(), "Usage: `$money [send]`")

	out = d.Dispatch(context.Background(), request("money send 50", rec, 0))
	assert.Equal(t, ResolveFailed, out.State)
	assert.Contains(t, rec.last(), "`50`")

	out = d.Dispatch(context.Background(), request("money send <@123> 5 more", rec, 0))
	assert.Equal(t, ResolveFailed, out.State)
	assert.Contains(t, rec.last(), "too many arguments")
}

func TestDispatch_PermissionDenied(t *testing.T) {
	d := newTestDispatcher(t, nil)
	rec := &recorder{}

	out := d.Dispatch(context.Background(), request("admin", rec, 1))
	assert.Equal(t, Denied, out.State)
	assert.Equal(t,
		"You don't have access to this command! Your permission level is `Moderator` (1), but this command requires `Administrator` (2).",
		rec.last())

	out = d.Dispatch(context.Background(), request("admin", rec, 2))
	assert.Equal(t, Replied, out.State)

	out = d.Dispatch(context.Background(), request("admin open", rec, 0))
	assert.Equal(t, Replied, out.State)
	assert.Equal(t, "open to all", rec.last())

	req := request("admin", rec, 0)
	req.Level = func(context.Context) (Level, error) { return 5, errors.New("no member") }
	out = d.Dispatch(context.Background(), req)
	assert.Equal(t, Denied, out.State)
}

func TestDispatch_UnknownUser(t *testing.T) {
	transfers := make(chan transfer, 1)
	d := newTestDispatcher(t, transfers)
	rec := &recorder{}

	out := d.Dispatch(context.Background(), request("money send <@999> 5", rec, 0))
	assert.Equal(t, UserNotFound, out.State)
	assert.ErrorIs(t, out.Err, ErrUserNotFound)
	assert.Equal(t, "No user found by the ID `999`!", rec.last())
	assert.Empty(t, transfers)
}

func TestDispatch_HandlerFailureIsolation(t *testing.T) {
	transfers := make(chan transfer, 1)
	d := newTestDispatcher(t, transfers)
	rec := &recorder{}

	out := d.Dispatch(context.Background(), request("fail", rec, 0))
	assert.Equal(t, HandlerFailed, out.State)
	assert.Contains(t, rec.last(), "boom")

	out = d.Dispatch(context.Background(), request("crash", rec, 0))
	assert.Equal(t, HandlerFailed, out.State)
	var perr *PanicError
	require.ErrorAs(t, out.Err, &perr)
	assert.Equal(t, "kaput", perr.Value)
	assert.Contains(t, rec.last(), "panic: kaput")

	out = d.Dispatch(context.Background(), request("money send 123456789012345678 1", rec, 0))
	assert.Equal(t, UserNotFound, out.State)
	out = d.Dispatch(context.Background(), request("money send <@123> 1", rec, 0))
	assert.Equal(t, Invoked, out.State)
	assert.Equal(t, float64(1), (<-transfers).amount)
}

func TestDispatch_NilSubcommandFallsThrough(t *testing.T) {
	tree := &Command{
		Run: StaticReply("root"),
		Subcommands: map[string]*Command{
			"gone": nil,
			"here": {Run: StaticReply("here")},
		},
	}
	reg, warnings := Load(zerolog.Nop(),
		Definition{Name: "x", Command: tree},
		Definition{Name: "y", Command: &Command{
			Subcommands: map[string]*Command{"gone": nil},
			Any:         &Command{Run: StaticReply("any")},
		}},
	)
	require.Len(t, warnings, 2)
	d := NewDispatcher(reg, WithLogger(zerolog.Nop()))
	rec := &recorder{}

	var out Outcome
	require.NotPanics(t, func() { out = d.Dispatch(context.Background(), request("x gone", rec, 0)) })
	assert.Equal(t, ResolveFailed, out.State)
	assert.Contains(t, rec.last(), "`gone`")

	out = d.Dispatch(context.Background(), request("y gone", rec, 0))
	assert.Equal(t, Replied, out.State)
	assert.Equal(t, "any", rec.last())

	out = d.Dispatch(context.Background(), request("x here", rec, 0))
	assert.Equal(t, Replied, out.State)
	assert.Equal(t, "here", rec.last())
}

func TestDispatch_MiddlewareOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		trace []string
	)
	mark := func(name string) Middleware {
		return func(next Step) Step {
			return func(ctx context.Context, c *Context) error {
				mu.Lock()
				trace = append(trace, name+":"+c.Name)
				mu.Unlock()
				return next(ctx, c)
			}
		}
	}
	block := func(next Step) Step {
		return func(ctx context.Context, c *Context) error {
			if c.Name == "admin" {
				return c.Reply(ctx, "blocked")
			}
			return next(ctx, c)
		}
	}
	d := newTestDispatcher(t, nil, WithMiddleware(mark("outer"), mark("inner"), block))
	rec := &recorder{}

	d.Dispatch(context.Background(), request("cash", rec, 0))
	d.Dispatch(context.Background(), request("admin", rec, 2))
	d.Dispatch(context.Background(), request("admin", rec, 0))

	assert.Equal(t, []string{"outer:money", "inner:money", "outer:admin", "inner:admin"}, trace)
	assert.Contains(t, rec.all(), "blocked")
}

func TestDispatch_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	transfers := make(chan transfer, 64)
	d := newTestDispatcher(t, transfers)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := &recorder{}
			line := fmt.Sprintf("money send <@123> %d", i)
			if i%2 == 1 {
				line = "fail"
			}
			out := d.Dispatch(context.Background(), request(line, rec, 0))
			if i%2 == 1 {
				assert.Equal(t, HandlerFailed, out.State)
			} else {
				assert.Equal(t, Invoked, out.State)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, transfers, 16)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "handler_failed", HandlerFailed.String())
	assert.Equal(t, "not_found", NotFound.String())
}
