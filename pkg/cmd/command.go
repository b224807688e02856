// Package cmd provides a transport-agnostic command core: a command is a tree of
// nodes with literal subcommands and typed branches (user, number, any). A raw
// line is tokenized, resolved against the tree and dispatched to the handler of
// the terminal node. How lines arrive and how replies leave (Discord, CLI) is
// defined by adapters that fill a Request.
package cmd

import (
	"context"
	"sort"
)

// DefaultDescription is used for nodes that do not set one.
const DefaultDescription = "No description."

// DefaultReply is what a node without a handler answers.
const DefaultReply = "No action was set on this command!"

// Level is a caller rank. Higher levels include lower ones; 0 is the lowest.
type Level int

// LowestLevel is the effective level of a tree where no node sets one.
const LowestLevel Level = 0

// Requirement is the explicit permission level of a node. The zero value is
// Inherit: the node takes the level of its nearest explicit ancestor.
type Requirement struct {
	level    Level
	explicit bool
}

// Inherit defers to the nearest ancestor with an explicit level.
var Inherit = Requirement{}

// Require returns an explicit requirement for level l.
func Require(l Level) Requirement {
	return Requirement{level: l, explicit: true}
}

// Explicit reports the level and whether it was set.
func (r Requirement) Explicit() (Level, bool) {
	if !r.explicit || r.level < 0 {
		return 0, false
	}
	return r.level, true
}

// Handler is either a StaticReply or an Invocable.
type Handler interface {
	isHandler()
}

// StaticReply is sent as-is after %variable% substitution.
type StaticReply string

// Invocable runs with a per-invocation context.
type Invocable func(ctx context.Context, c *Context) error

func (StaticReply) isHandler() {}
func (Invocable) isHandler()   {}

// Command is a node of the command tree. Trees are built once from literals and
// are read-only afterwards, so they can be shared by concurrent dispatches.
type Command struct {
	Description string
	// Usage overrides the derived usage line when non-empty.
	Usage      string
	Permission Requirement
	// Aliases are only honored where the node is registered under a name:
	// top-level or as an entry of a parent's Subcommands.
	Aliases []string
	// Endpoint forbids trailing tokens beneath this node.
	Endpoint bool
	Run      Handler

	Subcommands map[string]*Command
	User        *Command
	Number      *Command
	Any         *Command
	// Rest makes an Any branch capture every remaining token as one string.
	Rest bool

	originalName string
	aliases      map[string]*Command
}

// OriginalName is the canonical name assigned at load time. Typed branches
// have none.
func (c *Command) OriginalName() string {
	return c.originalName
}

// Desc returns the description or DefaultDescription.
func (c *Command) Desc() string {
	if c.Description == "" {
		return DefaultDescription
	}
	return c.Description
}

// Handler returns the node's handler, falling back to DefaultReply.
func (c *Command) Handler() Handler {
	if c.Run == nil {
		return StaticReply(DefaultReply)
	}
	return c.Run
}

// HasBranches reports whether any token could descend from this node.
func (c *Command) HasBranches() bool {
	return len(c.Subcommands) > 0 || c.User != nil || c.Number != nil || c.Any != nil
}

// subcommand looks up a literal child, then the alias table built by Load.
func (c *Command) subcommand(token string) (*Command, bool) {
	if child := c.Subcommands[token]; child != nil {
		return child, true
	}
	child, ok := c.aliases[token]
	return child, ok
}

// SubcommandNames returns the literal child names in sorted order.
func (c *Command) SubcommandNames() []string {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
