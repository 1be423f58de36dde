// Package store provides durable storage for discussions, participants,
// and conversation turns.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("store: not found")

// Role identifies who produced a turn.
type Role string

// Turn roles.
const (
	RoleUser       Role = "user"
	RoleAI         Role = "ai"
	RoleInstructor Role = "instructor"
	RoleSystem     Role = "system"
)

// Turn is a single persisted conversation message. Turns are immutable:
// the engine only ever appends, never updates or deletes.
type Turn struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	ParticipantID string    `json:"participantId"`
	Role          Role      `json:"role"`
	Content       string    `json:"content"`

	// ResponseID is the opaque backend-assigned identifier for AI turns,
	// round-tripped to the backend on the participant's next request.
	// Degraded-mode turns carry a sentinel value instead of a real ID.
	ResponseID string    `json:"responseId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Settings holds the session-level dialogue configuration. The engine
// consumes it read-only; it is owned by the instructor-facing surfaces.
type Settings struct {
	// AIMode is one of socratic, balanced, debate, minimal.
	// Empty means socratic.
	AIMode string `json:"aiMode,omitempty"`

	// MaxTurns is the user-turn budget before the wrap-up prompt fires.
	// Zero means unset (callers substitute a default).
	MaxTurns int `json:"maxTurns,omitempty"`

	// Unlimited disables the turn budget entirely.
	Unlimited bool `json:"unlimited,omitempty"`

	// AIContext is free-form instructor guidance folded into the
	// system prompt.
	AIContext string `json:"aiContext,omitempty"`

	// StanceLabels maps stance keys to human-readable, possibly
	// session-custom labels.
	StanceLabels map[string]string `json:"stanceLabels,omitempty"`
}

// Discussion is one discussion session.
type Discussion struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Settings    Settings  `json:"settings"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Participant is one student in a discussion.
type Participant struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	DisplayName     string    `json:"displayName,omitempty"`
	Stance          string    `json:"stance,omitempty"`
	StanceStatement string    `json:"stanceStatement,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Gateway is the persistence interface the dialogue engine depends on.
//
// ListTurns returns the participant's turns in ascending creation order.
// InsertTurn is append-only with at-least-once semantics per message; the
// engine never deduplicates. Implementations assign Turn.ID and
// Turn.CreatedAt when unset.
type Gateway interface {
	GetDiscussion(ctx context.Context, id string) (*Discussion, error)
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	ListTurns(ctx context.Context, participantID string) ([]Turn, error)
	InsertTurn(ctx context.Context, turn *Turn) error
}
