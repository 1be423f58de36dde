// Package transcript renders a participant's conversation history as a
// document for export.
package transcript

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/agora-edu/agora-dialogue/internal/store"
)

var roleHeadings = map[store.Role]string{
	store.RoleUser:       "학생",
	store.RoleAI:         "AI 튜터",
	store.RoleInstructor: "교수자",
	store.RoleSystem:     "시스템",
}

// Markdown renders the transcript as a markdown document: discussion
// header, participant line, then each turn with its speaker and
// timestamp.
func Markdown(d *store.Discussion, p *store.Participant, turns []store.Turn) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", d.Title)
	if d.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", d.Description)
	}

	name := p.DisplayName
	if name == "" {
		name = p.ID
	}
	fmt.Fprintf(&sb, "**참가자:** %s", name)
	if p.Stance != "" {
		fmt.Fprintf(&sb, " (%s)", p.Stance)
	}
	sb.WriteString("\n\n---\n\n")

	for _, t := range turns {
		heading, ok := roleHeadings[t.Role]
		if !ok {
			heading = string(t.Role)
		}
		fmt.Fprintf(&sb, "### %s · %s\n\n", heading, t.CreatedAt.Format("2006-01-02 15:04"))
		sb.WriteString(t.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// HTML renders the transcript as an HTML fragment.
func HTML(d *store.Discussion, p *store.Participant, turns []store.Turn) (string, error) {
	md := Markdown(d, p, turns)
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("transcript: render html: %w", err)
	}
	return buf.String(), nil
}
