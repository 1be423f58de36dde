package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, maxHistory int) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), maxHistory)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteDiscussionRoundTrip(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	d := &Discussion{
		Title:       "원격 근무는 생산성을 높이는가?",
		Description: "재택 근무의 영향을 토론합니다.",
		Settings: Settings{
			AIMode:       "debate",
			MaxTurns:     10,
			AIContext:    "통계를 요구할 것",
			StanceLabels: map[string]string{"pro": "찬성측"},
		},
	}
	if err := s.CreateDiscussion(ctx, d); err != nil {
		t.Fatalf("CreateDiscussion: %v", err)
	}
	if d.ID == "" {
		t.Fatal("no ID assigned")
	}

	got, err := s.GetDiscussion(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDiscussion: %v", err)
	}
	if got.Title != d.Title || got.Description != d.Description {
		t.Errorf("got %+v", got)
	}
	if got.Status != "active" {
		t.Errorf("Status = %q, want active", got.Status)
	}
	if got.Settings.AIMode != "debate" || got.Settings.MaxTurns != 10 {
		t.Errorf("Settings = %+v", got.Settings)
	}
	if got.Settings.StanceLabels["pro"] != "찬성측" {
		t.Errorf("StanceLabels = %+v", got.Settings.StanceLabels)
	}
}

func TestSQLiteGetDiscussionNotFound(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.GetDiscussion(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteParticipantRoundTrip(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	d := &Discussion{Title: "t"}
	if err := s.CreateDiscussion(ctx, d); err != nil {
		t.Fatal(err)
	}

	p := &Participant{
		SessionID:       d.ID,
		DisplayName:     "학생A",
		Stance:          "con",
		StanceStatement: "부분적 반대",
	}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatalf("CreateParticipant: %v", err)
	}

	got, err := s.GetParticipant(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if got.SessionID != d.ID || got.DisplayName != "학생A" || got.Stance != "con" || got.StanceStatement != "부분적 반대" {
		t.Errorf("got %+v", got)
	}

	if _, err := s.GetParticipant(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteTurnsOrderedAscending(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	d := &Discussion{Title: "t"}
	if err := s.CreateDiscussion(ctx, d); err != nil {
		t.Fatal(err)
	}
	p := &Participant{SessionID: d.ID}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatal(err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	contents := []string{"첫째", "둘째", "셋째"}
	for i, c := range contents {
		err := s.InsertTurn(ctx, &Turn{
			SessionID:     d.ID,
			ParticipantID: p.ID,
			Role:          RoleUser,
			Content:       c,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("InsertTurn: %v", err)
		}
	}

	turns, err := s.ListTurns(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	for i, c := range contents {
		if turns[i].Content != c {
			t.Errorf("turns[%d].Content = %q, want %q", i, turns[i].Content, c)
		}
	}
}

func TestSQLiteTurnEqualTimestampsKeepInsertOrder(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	d := &Discussion{Title: "t"}
	if err := s.CreateDiscussion(ctx, d); err != nil {
		t.Fatal(err)
	}
	p := &Participant{SessionID: d.ID}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatal(err)
	}

	// Same timestamp: the UUIDv7 primary key is the tiebreaker.
	at := time.Now().UTC().Truncate(time.Second)
	for _, c := range []string{"a", "b", "c"} {
		err := s.InsertTurn(ctx, &Turn{
			SessionID: d.ID, ParticipantID: p.ID,
			Role: RoleUser, Content: c, CreatedAt: at,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	turns, err := s.ListTurns(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 || turns[0].Content != "a" || turns[1].Content != "b" || turns[2].Content != "c" {
		t.Errorf("order lost: %v", []string{turns[0].Content, turns[1].Content, turns[2].Content})
	}
}

func TestSQLiteTurnResponseID(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	d := &Discussion{Title: "t"}
	if err := s.CreateDiscussion(ctx, d); err != nil {
		t.Fatal(err)
	}
	p := &Participant{SessionID: d.ID}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := s.InsertTurn(ctx, &Turn{SessionID: d.ID, ParticipantID: p.ID, Role: RoleAI, Content: "x", ResponseID: "resp_1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertTurn(ctx, &Turn{SessionID: d.ID, ParticipantID: p.ID, Role: RoleUser, Content: "y"}); err != nil {
		t.Fatal(err)
	}

	turns, err := s.ListTurns(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if turns[0].ResponseID != "resp_1" {
		t.Errorf("ResponseID = %q, want resp_1", turns[0].ResponseID)
	}
	if turns[1].ResponseID != "" {
		t.Errorf("user turn ResponseID = %q, want empty", turns[1].ResponseID)
	}
}

func TestSQLiteMaxHistory(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	d := &Discussion{Title: "t"}
	if err := s.CreateDiscussion(ctx, d); err != nil {
		t.Fatal(err)
	}
	p := &Participant{SessionID: d.ID}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatal(err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		err := s.InsertTurn(ctx, &Turn{
			SessionID: d.ID, ParticipantID: p.ID,
			Role: RoleUser, Content: fmt.Sprintf("m%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	turns, err := s.ListTurns(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want capped at 2", len(turns))
	}
	// The cap keeps the most recent turns, still in ascending order.
	if turns[0].Content != "m3" || turns[1].Content != "m4" {
		t.Errorf("kept %q, %q; want m3, m4", turns[0].Content, turns[1].Content)
	}
}
