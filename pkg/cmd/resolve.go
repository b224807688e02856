package cmd

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Symbolic tokens accepted by ResolveHelp in place of typed values.
const (
	SymbolUser   = "<user>"
	SymbolNumber = "<number>"
	SymbolAny    = "<any>"
)

var (
	mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)
	idPattern      = regexp.MustCompile(`^\d{17,19}$`)
)

// UserRef is the resolver's value for an identity-shaped token. The dispatcher
// replaces it with the entity returned by its UserResolver.
type UserRef struct {
	ID string
}

// ResolveErrorKind classifies resolution failures.
type ResolveErrorKind int

const (
	// NoMatch means no literal or typed branch accepted the token.
	NoMatch ResolveErrorKind = iota
	// TooManyArguments means a token followed an endpoint node.
	TooManyArguments
)

// ResolveError identifies the offending token and where it occurred.
type ResolveError struct {
	Kind  ResolveErrorKind
	Token string
	Index int
	// Path is the symbolic path walked before the failure.
	Path []string
}

func (e *ResolveError) Error() string {
	where := strings.Join(e.Path, " ")
	switch e.Kind {
	case TooManyArguments:
		return fmt.Sprintf("too many arguments: `%s` takes nothing after it, got `%s`", where, e.Token)
	default:
		return fmt.Sprintf("no matching command: `%s` has no subcommand `%s`", where, e.Token)
	}
}

// Resolution is a successful walk to a terminal node.
type Resolution struct {
	Node *Command
	// Path holds canonical names for literal steps and <user>/<number>/<any>
	// for typed steps, starting with the root name.
	Path []string
	// Args holds parsed values in descent order: UserRef, float64 or string.
	Args       []any
	Permission Level
}

// Resolve walks args through the tree below root. Tie-break order per token is
// literal subcommand (then alias), user, number, any.
func Resolve(root *Command, args []string) (*Resolution, error) {
	return walk(root, args, valueMatcher{})
}

// ResolveHelp walks the tree like Resolve but also accepts <user>, <number> and
// <any> in place of values, so help follows the exact path a call would take.
func ResolveHelp(root *Command, tokens []string) (*Resolution, error) {
	return walk(root, tokens, symbolMatcher{})
}

// ParseUser returns the ID of a mention or bare ID token.
func ParseUser(token string) (string, bool) {
	if m := mentionPattern.FindStringSubmatch(token); m != nil {
		return m[1], true
	}
	if idPattern.MatchString(token) {
		return token, true
	}
	return "", false
}

// ParseNumber accepts finite numbers only; "Infinity" and NaN are rejected.
func ParseNumber(token string) (float64, bool) {
	f, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// JoinRest is the value captured by a rest branch.
func JoinRest(tokens []string) string {
	return strings.Join(tokens, " ")
}

type matcher interface {
	user(token string) (any, bool)
	number(token string) (any, bool)
}

type valueMatcher struct{}

func (valueMatcher) user(token string) (any, bool) {
	id, ok := ParseUser(token)
	if !ok {
		return nil, false
	}
	return UserRef{ID: id}, true
}

func (valueMatcher) number(token string) (any, bool) {
	f, ok := ParseNumber(token)
	if !ok {
		return nil, false
	}
	return f, true
}

type symbolMatcher struct{}

func (symbolMatcher) user(token string) (any, bool) {
	if token == SymbolUser {
		return UserRef{}, true
	}
	return valueMatcher{}.user(token)
}

func (symbolMatcher) number(token string) (any, bool) {
	if token == SymbolNumber {
		return float64(0), true
	}
	return valueMatcher{}.number(token)
}

func walk(root *Command, tokens []string, m matcher) (*Resolution, error) {
	res := &Resolution{
		Node:       root,
		Path:       []string{root.originalName},
		Args:       make([]any, 0, len(tokens)),
		Permission: LowestLevel,
	}
	if l, ok := root.Permission.Explicit(); ok {
		res.Permission = l
	}

	node := root
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if node.Endpoint {
			return nil, &ResolveError{Kind: TooManyArguments, Token: token, Index: i, Path: res.Path}
		}

		var (
			next *Command
			step string
			rest bool
		)
		if child, ok := node.subcommand(token); ok {
			next, step = child, token
			if child.originalName != "" {
				step = child.originalName
			}
		} else if v, ok := matchBranch(node.User, token, m.user); ok {
			next, step = node.User, SymbolUser
			res.Args = append(res.Args, v)
		} else if v, ok := matchBranch(node.Number, token, m.number); ok {
			next, step = node.Number, SymbolNumber
			res.Args = append(res.Args, v)
		} else if node.Any != nil {
			next, step = node.Any, SymbolAny
			if node.Any.Rest {
				res.Args = append(res.Args, JoinRest(tokens[i:]))
				rest = true
			} else {
				res.Args = append(res.Args, token)
			}
		} else {
			return nil, &ResolveError{Kind: NoMatch, Token: token, Index: i, Path: res.Path}
		}

		node = next
		res.Node = node
		res.Path = append(res.Path, step)
		if l, ok := node.Permission.Explicit(); ok {
			res.Permission = l
		}
		if rest {
			break
		}
	}
	return res, nil
}

func matchBranch(branch *Command, token string, match func(string) (any, bool)) (any, bool) {
	if branch == nil {
		return nil, false
	}
	return match(token)
}
