package discord

import "strings"

// StripPrefix returns the command line after prefix or a leading mention of
// the bot.
func StripPrefix(content, prefix, botID string) (string, bool) {
	content = strings.TrimSpace(content)
	if botID != "" {
		for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
			if rest, ok := strings.CutPrefix(content, mention); ok {
				return strings.TrimSpace(rest), true
			}
		}
	}
	if prefix == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(content, prefix)
	if !ok {
		return "", false
	}
	return rest, true
}
