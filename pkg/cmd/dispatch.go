package cmd

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
)

// ErrUserNotFound is returned by a UserResolver for IDs without an entity.
var ErrUserNotFound = errors.New("user not found")

// UserResolver turns an identity-shaped token into the transport's user value.
type UserResolver interface {
	ResolveUser(ctx context.Context, id string) (any, error)
}

// UserResolverFunc adapts a function to UserResolver.
type UserResolverFunc func(ctx context.Context, id string) (any, error)

func (f UserResolverFunc) ResolveUser(ctx context.Context, id string) (any, error) { return f(ctx, id) }

// LevelFunc computes the caller's permission level. It is only called once a
// command resolved.
type LevelFunc func(ctx context.Context) (Level, error)

// LevelNamer names a permission level for messages.
type LevelNamer func(Level) string

// Request is what a transport hands over per inbound command line.
type Request struct {
	// Line is the text after the prefix.
	Line   string
	Prefix string
	Caller Caller
	Reply  Replier
	Level  LevelFunc
	Data   any
}

// State is the terminal state of a dispatch.
type State int

const (
	Empty State = iota
	NotFound
	ResolveFailed
	Denied
	UserNotFound
	Replied
	Invoked
	HandlerFailed
)

var stateNames = map[State]string{
	Empty:         "empty",
	NotFound:      "not_found",
	ResolveFailed: "resolve_failed",
	Denied:        "denied",
	UserNotFound:  "user_not_found",
	Replied:       "replied",
	Invoked:       "invoked",
	HandlerFailed: "handler_failed",
}

func (s State) String() string { return stateNames[s] }

// Outcome reports how a dispatch ended.
type Outcome struct {
	State State
	// Name is the canonical command name when the header matched.
	Name string
	Err  error
}

// UserError reports a user token that did not resolve to an entity.
type UserError struct {
	ID  string
	Err error
}

func (e *UserError) Error() string { return fmt.Sprintf("resolve user %s: %v", e.ID, e.Err) }
func (e *UserError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic: %v", p.Value) }

// Dispatcher runs command lines against a Registry. It holds no per-dispatch
// state, so Dispatch may be called from many goroutines at once.
type Dispatcher struct {
	registry   *Registry
	log        zerolog.Logger
	users      UserResolver
	namer      LevelNamer
	middleware []Middleware
	vars       map[string]string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithUserResolver sets how user tokens become entities.
func WithUserResolver(r UserResolver) Option {
	return func(d *Dispatcher) { d.users = r }
}

// WithLevelNamer sets how levels are named in denial messages.
func WithLevelNamer(n LevelNamer) Option {
	return func(d *Dispatcher) { d.namer = n }
}

// WithMiddleware appends middlewares; the first is the outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(d *Dispatcher) { d.middleware = append(d.middleware, mws...) }
}

// WithVariables adds %key% substitutions for static replies.
func WithVariables(vars map[string]string) Option {
	return func(d *Dispatcher) {
		for k, v := range vars {
			d.vars[k] = v
		}
	}
}

// NewDispatcher returns a dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		log:      zerolog.Nop(),
		namer:    func(l Level) string { return fmt.Sprintf("level %d", l) },
		vars:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher reads.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch tokenizes, resolves, authorizes and invokes one command line. Every
// failure, handler errors and panics included, is reported to the caller
// through req.Reply and never escapes.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) Outcome {
	header, args := Tokenize(req.Line)
	if header == "" {
		return Outcome{State: Empty}
	}
	log := d.log.With().Str("command", header).Str("caller", req.Caller.ID).Logger()

	root, ok := d.registry.Get(header)
	if !ok {
		msg := fmt.Sprintf("The command `%s` was not found.", header)
		if s := d.Suggest(header); s != "" {
			msg += fmt.Sprintf(" Did you mean `%s%s`?", req.Prefix, s)
		}
		d.reply(ctx, log, req, msg)
		log.Debug().Msg("Command not found")
		return Outcome{State: NotFound}
	}
	name, _ := d.registry.Canonical(header)

	res, err := Resolve(root, args)
	if err != nil {
		msg := err.Error()
		var rerr *ResolveError
		if errors.As(err, &rerr) {
			if at, herr := ResolveHelp(root, rerr.Path[1:]); herr == nil {
				msg += fmt.Sprintf("\nUsage: `%s%s`", req.Prefix, UsageLine(at))
			}
		}
		d.reply(ctx, log, req, msg)
		log.Debug().Err(err).Msg("Resolution failed")
		return Outcome{State: ResolveFailed, Name: name, Err: err}
	}

	callerLevel := LowestLevel
	if req.Level != nil {
		if callerLevel, err = req.Level(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to compute caller level, assuming lowest")
			callerLevel = LowestLevel
		}
	}
	if callerLevel < res.Permission {
		d.reply(ctx, log, req, fmt.Sprintf(
			"You don't have access to this command! Your permission level is `%s` (%d), but this command requires `%s` (%d).",
			d.namer(callerLevel), callerLevel, d.namer(res.Permission), res.Permission,
		))
		log.Debug().Int("caller_level", int(callerLevel)).Int("required", int(res.Permission)).Msg("Permission denied")
		return Outcome{State: Denied, Name: name}
	}

	resolved, err := d.resolveUsers(ctx, res.Args)
	if err != nil {
		var uerr *UserError
		if errors.As(err, &uerr) {
			d.reply(ctx, log, req, fmt.Sprintf("No user found by the ID `%s`!", uerr.ID))
		}
		log.Debug().Err(err).Msg("User resolution failed")
		return Outcome{State: UserNotFound, Name: name, Err: err}
	}

	c := &Context{
		ID:          uuid.NewString(),
		Name:        name,
		Prefix:      req.Prefix,
		Caller:      req.Caller,
		Args:        resolved,
		Path:        res.Path,
		Node:        res.Node,
		Permission:  res.Permission,
		CallerLevel: callerLevel,
		Registry:    d.registry,
		Data:        req.Data,
		replier:     req.Reply,
	}
	log = log.With().Str("invocation", c.ID).Logger()

	state := Invoked
	if _, static := res.Node.Handler().(StaticReply); static {
		state = Replied
	}
	if err := d.invoke(ctx, Apply(d.run, d.middleware...), c); err != nil {
		ev := log.Error().Err(err).Strs("path", res.Path)
		var perr *PanicError
		if errors.As(err, &perr) {
			ev = ev.Bytes("stack", perr.Stack)
		}
		ev.Msg("Command handler failed")
		d.reply(ctx, log, req, fmt.Sprintf("There was an error while trying to execute that command!\n```\n%s\n```", err))
		return Outcome{State: HandlerFailed, Name: name, Err: err}
	}
	log.Debug().Strs("path", res.Path).Msg("Command executed")
	return Outcome{State: state, Name: name}
}

// Suggest returns the registered name closest to header, or "".
func (d *Dispatcher) Suggest(header string) string {
	names := d.registry.Names()
	ranks := fuzzy.RankFindFold(header, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	folded := strings.ToLower(header)
	best, bestDist := "", 3
	for _, name := range names {
		if dist := fuzzy.LevenshteinDistance(folded, strings.ToLower(name)); dist < bestDist {
			best, bestDist = name, dist
		}
	}
	return best
}

// Substitute expands %author%, %prefix%, %name% and configured variables.
func (d *Dispatcher) Substitute(text string, c *Context) string {
	pairs := []string{
		"%author%", c.Caller.Mention,
		"%prefix%", c.Prefix,
		"%name%", c.Name,
	}
	for k, v := range d.vars {
		pairs = append(pairs, "%"+k+"%", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (d *Dispatcher) run(ctx context.Context, c *Context) error {
	switch h := c.Node.Handler().(type) {
	case StaticReply:
		return c.Reply(ctx, d.Substitute(string(h), c))
	case Invocable:
		return h(ctx, c)
	default:
		return fmt.Errorf("unsupported handler %T", h)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, step Step, c *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return step(ctx, c)
}

func (d *Dispatcher) resolveUsers(ctx context.Context, args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		ref, ok := arg.(UserRef)
		if !ok || d.users == nil {
			out[i] = arg
			continue
		}
		u, err := d.users.ResolveUser(ctx, ref.ID)
		if err != nil {
			return nil, &UserError{ID: ref.ID, Err: err}
		}
		out[i] = u
	}
	return out, nil
}

func (d *Dispatcher) reply(ctx context.Context, log zerolog.Logger, req *Request, msg string) {
	if req.Reply == nil {
		return
	}
	if err := req.Reply.Reply(ctx, msg); err != nil {
		log.Warn().Err(err).Msg("Failed to send reply")
	}
}
