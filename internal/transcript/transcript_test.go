package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/agora-edu/agora-dialogue/internal/store"
)

func sampleData() (*store.Discussion, *store.Participant, []store.Turn) {
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	d := &store.Discussion{
		ID:          "d1",
		Title:       "원격 근무는 생산성을 높이는가?",
		Description: "재택 근무 확산의 영향을 토론합니다.",
	}
	p := &store.Participant{ID: "p1", SessionID: "d1", DisplayName: "학생A", Stance: "pro"}
	turns := []store.Turn{
		{Role: store.RoleUser, Content: "저는 찬성합니다.", CreatedAt: at},
		{Role: store.RoleAI, Content: "어떤 근거가 있나요?", CreatedAt: at.Add(time.Minute)},
		{Role: store.RoleInstructor, Content: "통계 자료를 참고하세요.", CreatedAt: at.Add(2 * time.Minute)},
	}
	return d, p, turns
}

func TestMarkdown(t *testing.T) {
	d, p, turns := sampleData()
	md := Markdown(d, p, turns)

	for _, want := range []string{
		"# 원격 근무는 생산성을 높이는가?",
		"재택 근무 확산의 영향을 토론합니다.",
		"**참가자:** 학생A (pro)",
		"### 학생 · 2025-03-14 10:30",
		"### AI 튜터 · 2025-03-14 10:31",
		"### 교수자 · 2025-03-14 10:32",
		"저는 찬성합니다.",
		"어떤 근거가 있나요?",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownFallbacks(t *testing.T) {
	d := &store.Discussion{Title: "제목만"}
	p := &store.Participant{ID: "p9"}
	turns := []store.Turn{{Role: store.Role("observer"), Content: "x"}}

	md := Markdown(d, p, turns)
	if !strings.Contains(md, "**참가자:** p9") {
		t.Errorf("missing ID fallback for unnamed participant:\n%s", md)
	}
	if strings.Contains(md, "(") {
		t.Errorf("stance parens present without stance:\n%s", md)
	}
	if !strings.Contains(md, "### observer") {
		t.Errorf("unknown role not passed through:\n%s", md)
	}
}

func TestHTML(t *testing.T) {
	d, p, turns := sampleData()
	html, err := HTML(d, p, turns)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}

	if !strings.Contains(html, "<h1") || !strings.Contains(html, "원격 근무는 생산성을 높이는가?") {
		t.Errorf("missing rendered title:\n%s", html)
	}
	if !strings.Contains(html, "<h3") {
		t.Errorf("missing turn headings:\n%s", html)
	}
	if !strings.Contains(html, "<strong>참가자:</strong>") {
		t.Errorf("missing participant line:\n%s", html)
	}
}
