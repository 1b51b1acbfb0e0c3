package ai

import (
	"strings"

	"github.com/companionhq/companion/backend/internal/model/chat"
)

const humanPrefix = "Human:"

// ParseSeedTurns converts an authored seed dialogue into alternating
// turns. The expected shape is "Human:" lines for the user and
// "<companion name>:" lines for the assistant, with blank lines
// between exchanges; unlabeled lines continue the current turn. Text
// before the first label is treated as the companion speaking, so a
// free-form seed still yields a usable assistant turn.
func ParseSeedTurns(companionName, seed string) []Turn {
	assistantPrefix := ""
	if name := strings.TrimSpace(companionName); name != "" {
		assistantPrefix = name + ":"
	}

	var turns []Turn

	appendTo := func(role chat.Role, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n" + text
			return
		}
		turns = append(turns, Turn{Role: role, Content: text})
	}

	current := chat.RoleAssistant
	for _, line := range strings.Split(seed, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, humanPrefix):
			current = chat.RoleUser
			appendTo(current, strings.TrimPrefix(trimmed, humanPrefix))
		case assistantPrefix != "" && strings.HasPrefix(trimmed, assistantPrefix):
			current = chat.RoleAssistant
			appendTo(current, strings.TrimPrefix(trimmed, assistantPrefix))
		default:
			appendTo(current, trimmed)
		}
	}

	return turns
}
