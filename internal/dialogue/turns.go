package dialogue

import (
	"strings"

	"github.com/agora-edu/agora-dialogue/internal/store"
)

// CountUserTurns counts the student-authored turns in a history.
// Instructor and system turns do not consume the budget.
func CountUserTurns(turns []store.Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == store.RoleUser {
			n++
		}
	}
	return n
}

// IsClosingTurn reports whether the turn about to be answered is the last
// one of the budget. The check runs before the incoming message is
// persisted, so userTurns is the count of prior turns only; the answer to
// user turn N is the wrap-up when N-1 prior turns exist.
// Callers clamp maxTurns to at least 1 first.
func IsClosingTurn(userTurns, maxTurns int, unlimited bool) bool {
	if unlimited {
		return false
	}
	return userTurns >= maxTurns-1
}

// IsStarting reports whether this request opens the conversation: no
// user turns yet and no message text. The AI speaks first in that case.
func IsStarting(userTurns int, message string) bool {
	return userTurns == 0 && strings.TrimSpace(message) == ""
}
