package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Definition is a top-level command as handed to Load.
type Definition struct {
	Name     string
	Category string
	Command  *Command
}

// WarningKind classifies configuration problems found at load time.
type WarningKind int

const (
	DuplicateName WarningKind = iota
	AliasOnTypedBranch
	AliasShadowsSubcommand
	DuplicateAlias
	EndpointWithBranches
	NegativePermission
	RestOutsideAny
	EmptyDefinition
	NilBranch
)

// Warning is a configuration problem. Loading continues past it and the first
// registrant of a name wins.
type Warning struct {
	Kind    WarningKind
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// Entry is a registered top-level command under its canonical name.
type Entry struct {
	Name     string
	Category string
	Command  *Command
}

// Registry maps top-level names and aliases to canonical command trees. An
// alias entry points at the same node as its canonical name.
type Registry struct {
	commands   map[string]*Command
	canonical  map[string]string
	categories map[string]string
}

// Load builds a registry from defs in order. Every warning is logged and
// returned; none of them aborts the load.
func Load(logger zerolog.Logger, defs ...Definition) (*Registry, []Warning) {
	r := &Registry{
		commands:   make(map[string]*Command),
		canonical:  make(map[string]string),
		categories: make(map[string]string),
	}
	var warnings []Warning
	warn := func(w Warning) {
		warnings = append(warnings, w)
		logger.Warn().Str("path", w.Path).Msg(w.Message)
	}

	visited := make(map[*Command]bool)
	for _, def := range defs {
		if def.Name == "" || def.Command == nil {
			warn(Warning{Kind: EmptyDefinition, Path: def.Name, Message: "definition without a name or command skipped"})
			continue
		}
		if owner, exists := r.canonical[def.Name]; exists {
			warn(Warning{
				Kind:    DuplicateName,
				Path:    def.Name,
				Message: fmt.Sprintf("name %q is already taken by %q", def.Name, owner),
			})
			continue
		}

		node := def.Command
		if node.originalName == "" {
			node.originalName = def.Name
		}
		r.commands[def.Name] = node
		r.canonical[def.Name] = def.Name
		r.categories[def.Name] = def.Category

		for _, alias := range node.Aliases {
			if owner, exists := r.canonical[alias]; exists {
				warn(Warning{
					Kind:    DuplicateName,
					Path:    def.Name,
					Message: fmt.Sprintf("alias %q of %q is already taken by %q", alias, def.Name, owner),
				})
				continue
			}
			r.commands[alias] = node
			r.canonical[alias] = def.Name
		}

		validate(node, def.Name, false, visited, warn)
	}

	logger.Info().Int("commands", len(r.categories)).Int("warnings", len(warnings)).Msg("Commands loaded")
	return r, warnings
}

// validate walks a tree once, builds each node's alias table and reports
// configuration problems.
func validate(node *Command, path string, typed bool, visited map[*Command]bool, warn func(Warning)) {
	if visited[node] {
		return
	}
	visited[node] = true

	if typed && len(node.Aliases) > 0 {
		warn(Warning{
			Kind:    AliasOnTypedBranch,
			Path:    path,
			Message: fmt.Sprintf("aliases %v on a typed branch are ignored", node.Aliases),
		})
	}
	if node.Endpoint && node.HasBranches() {
		warn(Warning{Kind: EndpointWithBranches, Path: path, Message: "endpoint declares branches that can never be reached"})
	}
	if node.Permission.explicit && node.Permission.level < 0 {
		warn(Warning{
			Kind:    NegativePermission,
			Path:    path,
			Message: fmt.Sprintf("permission %d is negative, inheriting instead", node.Permission.level),
		})
	}
	if node.Rest && !typed {
		warn(Warning{Kind: RestOutsideAny, Path: path, Message: "rest capture only applies to an any branch"})
	}

	node.aliases = make(map[string]*Command)
	names := node.SubcommandNames()
	for _, name := range names {
		child := node.Subcommands[name]
		if child == nil {
			warn(Warning{Kind: NilBranch, Path: path + " " + name, Message: "subcommand has no command and is ignored"})
			continue
		}
		if child.originalName == "" {
			child.originalName = name
		}
		for _, alias := range child.Aliases {
			if node.Subcommands[alias] != nil {
				warn(Warning{
					Kind:    AliasShadowsSubcommand,
					Path:    path + " " + name,
					Message: fmt.Sprintf("alias %q collides with subcommand %q", alias, alias),
				})
				continue
			}
			if owner, dup := node.aliases[alias]; dup {
				warn(Warning{
					Kind:    DuplicateAlias,
					Path:    path + " " + name,
					Message: fmt.Sprintf("alias %q is already used by %q", alias, owner.originalName),
				})
				continue
			}
			node.aliases[alias] = child
		}
	}

	for _, name := range names {
		if child := node.Subcommands[name]; child != nil {
			validate(child, path+" "+name, false, visited, warn)
		}
	}
	if node.User != nil {
		validate(node.User, path+" "+SymbolUser, true, visited, warn)
	}
	if node.Number != nil {
		validate(node.Number, path+" "+SymbolNumber, true, visited, warn)
	}
	if node.Any != nil {
		validate(node.Any, path+" "+SymbolAny, true, visited, warn)
	}
}

// Get returns the command registered under name or alias.
func (r *Registry) Get(name string) (*Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Canonical returns the canonical name for a name or alias.
func (r *Registry) Canonical(name string) (string, bool) {
	n, ok := r.canonical[name]
	return n, ok
}

// Category returns the category of a canonical name or alias.
func (r *Registry) Category(name string) string {
	return r.categories[r.canonical[name]]
}

// Names returns every lookup key, aliases included, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the canonical commands sorted by name.
func (r *Registry) All() []Entry {
	list := make([]Entry, 0, len(r.categories))
	for name, category := range r.categories {
		list = append(list, Entry{Name: name, Category: category, Command: r.commands[name]})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Categories groups All by category.
func (r *Registry) Categories() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range r.All() {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}

// AliasesOf returns the top-level aliases registered for a canonical name.
func (r *Registry) AliasesOf(name string) []string {
	var aliases []string
	for key, owner := range r.canonical {
		if owner == name && key != name {
			aliases = append(aliases, key)
		}
	}
	sort.Strings(aliases)
	return aliases
}

// String lists canonical names; handy in logs.
func (r *Registry) String() string {
	names := make([]string, 0, len(r.categories))
	for _, e := range r.All() {
		names = append(names, e.Name)
	}
	return strings.Join(names, ", ")
}
