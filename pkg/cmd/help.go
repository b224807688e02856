package cmd

import "strings"

// Branch is one way to descend from a node, as listed by help.
type Branch struct {
	// Token is the literal name or <user>, <number>, <any>.
	Token   string
	Aliases []string
	Command *Command
}

// Branches lists literal subcommands in name order, then typed branches in
// tie-break order.
func Branches(c *Command) []Branch {
	var out []Branch
	for _, name := range c.SubcommandNames() {
		child := c.Subcommands[name]
		if child == nil {
			continue
		}
		out = append(out, Branch{Token: name, Aliases: child.Aliases, Command: child})
	}
	if c.User != nil {
		out = append(out, Branch{Token: SymbolUser, Command: c.User})
	}
	if c.Number != nil {
		out = append(out, Branch{Token: SymbolNumber, Command: c.Number})
	}
	if c.Any != nil {
		out = append(out, Branch{Token: SymbolAny, Command: c.Any})
	}
	return out
}

// Usage returns c.Usage, or derives "[a|b|<user>]" from the branches. Endpoints
// and leaves have an empty usage.
func Usage(c *Command) string {
	if c.Usage != "" {
		return c.Usage
	}
	if c.Endpoint {
		return ""
	}
	branches := Branches(c)
	if len(branches) == 0 {
		return ""
	}
	tokens := make([]string, len(branches))
	for i, b := range branches {
		tokens[i] = b.Token
		if b.Command.Rest && b.Token == SymbolAny {
			tokens[i] = SymbolAny + "..."
		}
	}
	return "[" + strings.Join(tokens, "|") + "]"
}

// UsageLine renders the resolved path followed by the node's usage, e.g.
// "money send <user> [<number>]".
func UsageLine(res *Resolution) string {
	parts := append([]string{}, res.Path...)
	if u := Usage(res.Node); u != "" {
		parts = append(parts, u)
	}
	return strings.Join(parts, " ")
}
