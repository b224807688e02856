package cmd

import (
	"strings"
	"unicode"
)

// Tokenize splits a command line (prefix already stripped) into the header, the
// first whitespace-delimited run taken verbatim, and the argument tokens.
func Tokenize(line string) (header string, args []string) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	end := strings.IndexFunc(line, unicode.IsSpace)
	if end < 0 {
		return line, []string{}
	}
	return line[:end], SplitArgs(line[end:])
}

// SplitArgs splits s on runs of whitespace. A double quote toggles quoted mode
// in which whitespace does not split. A backslash escapes the next character:
// \" and \\ yield the bare character, any other escape keeps the backslash.
func SplitArgs(s string) []string {
	args := []string{}
	var (
		buf     strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		if buf.Len() > 0 {
			args = append(args, buf.String())
			buf.Reset()
		}
	}

	for _, r := range s {
		switch {
		case escaped:
			if r != '"' && r != '\\' {
				buf.WriteRune('\\')
			}
			buf.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			buf.WriteRune(r)
		}
	}
	if escaped {
		buf.WriteRune('\\')
	}
	flush()
	return args
}
