// Package console runs the dispatcher against a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/keshon/botcmd/internal/commands"
	"github.com/keshon/botcmd/internal/prompt"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/rs/zerolog"
)

// GuildID is the pseudo guild every console session belongs to.
const GuildID = "console"

// Options configures a Console.
type Options struct {
	Dispatcher *cmd.Dispatcher
	Prompts    *prompt.Registry
	Out        io.Writer
	Prefix     string
	// User is who the operator speaks as.
	User  commands.Member
	Level cmd.Level
	Log   zerolog.Logger
}

type Console struct {
	opts Options
	mu   sync.Mutex
}

func New(opts Options) *Console {
	if opts.User.ID == "" {
		opts.User = commands.Member{ID: "0", Name: "console", Mention: "@console"}
	}
	return &Console{opts: opts}
}

// Reply writes a line to the output.
func (c *Console) Reply(_ context.Context, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.opts.Out, content)
	return err
}

func (c *Console) key() prompt.Key {
	return prompt.Key{ChannelID: GuildID, UserID: c.opts.User.ID}
}

// Execute dispatches one line and waits for it to finish.
func (c *Console) Execute(ctx context.Context, line string) cmd.Outcome {
	line = strings.TrimSpace(line)
	if c.opts.Prefix != "" {
		line = strings.TrimPrefix(line, c.opts.Prefix)
	}
	level := c.opts.Level
	return c.opts.Dispatcher.Dispatch(ctx, &cmd.Request{
		Line:   line,
		Prefix: c.opts.Prefix,
		Caller: cmd.Caller{
			ID:        c.opts.User.ID,
			Name:      c.opts.User.Name,
			Mention:   c.opts.User.Mention,
			GuildID:   GuildID,
			ChannelID: GuildID,
		},
		Reply: c,
		Level: func(context.Context) (cmd.Level, error) { return level, nil },
	})
}

// Run reads lines until in is exhausted, "exit" is typed or ctx ends. Lines
// other than "exit" answer a pending prompt first; anything else is a
// command. Commands still running when Run returns are cancelled and waited
// for.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		var err error
		defer func() {
			readErr <- err
			close(lines)
		}()
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if !isExit(text) && c.opts.Prompts != nil && c.opts.Prompts.Deliver(c.key(), text) {
				continue
			}
			select {
			case lines <- text:
			case <-runCtx.Done():
				return
			}
		}
		err = scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case text, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if isExit(text) {
				return nil
			}
			// Handlers may block on a prompt, so the reader keeps going.
			wg.Add(1)
			go func() {
				defer wg.Done()
				out := c.Execute(runCtx, text)
				c.opts.Log.Debug().Str("state", out.State.String()).Str("command", out.Name).Msg("Console line handled")
			}()
		}
	}
}

func isExit(text string) bool {
	switch strings.ToLower(text) {
	case "exit", "quit":
		return true
	}
	return false
}

// Resolver resolves the operator and a fixed set of members by ID.
func Resolver(members ...commands.Member) cmd.UserResolver {
	byID := make(map[string]commands.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	return cmd.UserResolverFunc(func(_ context.Context, id string) (any, error) {
		if m, ok := byID[id]; ok {
			return m, nil
		}
		return nil, cmd.ErrUserNotFound
	})
}

// ParseMember reads "id:name" as given on the command line.
func ParseMember(s string) (commands.Member, error) {
	id, name, ok := strings.Cut(s, ":")
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if !ok || id == "" || name == "" {
		return commands.Member{}, fmt.Errorf("member %q must look like id:name", s)
	}
	return commands.Member{ID: id, Name: name, Mention: "<@" + id + ">"}, nil
}
