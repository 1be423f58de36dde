package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	d := &Discussion{Title: "토론", Settings: Settings{AIMode: "minimal"}}
	if err := s.CreateDiscussion(ctx, d); err != nil {
		t.Fatalf("CreateDiscussion: %v", err)
	}
	p := &Participant{SessionID: d.ID, Stance: "pro"}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatalf("CreateParticipant: %v", err)
	}

	gotD, err := s.GetDiscussion(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDiscussion: %v", err)
	}
	if gotD.Title != "토론" || gotD.Settings.AIMode != "minimal" || gotD.Status != "active" {
		t.Errorf("got %+v", gotD)
	}

	gotP, err := s.GetParticipant(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if gotP.SessionID != d.ID || gotP.Stance != "pro" {
		t.Errorf("got %+v", gotP)
	}
}

func TestMemStoreNotFound(t *testing.T) {
	s := NewMemStore()
	if _, err := s.GetDiscussion(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("discussion err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetParticipant(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("participant err = %v, want ErrNotFound", err)
	}
}

func TestMemStoreTurnsAppendOrdered(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	for _, c := range []string{"a", "b", "c"} {
		err := s.InsertTurn(ctx, &Turn{ParticipantID: "p1", Role: RoleUser, Content: c})
		if err != nil {
			t.Fatalf("InsertTurn: %v", err)
		}
	}
	// Other participants stay isolated.
	if err := s.InsertTurn(ctx, &Turn{ParticipantID: "p2", Role: RoleUser, Content: "z"}); err != nil {
		t.Fatal(err)
	}

	turns, err := s.ListTurns(ctx, "p1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	for i, want := range []string{"a", "b", "c"} {
		if turns[i].Content != want {
			t.Errorf("turns[%d] = %q, want %q", i, turns[i].Content, want)
		}
		if turns[i].ID == "" || turns[i].CreatedAt.IsZero() {
			t.Errorf("turns[%d] missing assigned ID or timestamp", i)
		}
	}
}

func TestMemStoreListCopiesSlice(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.InsertTurn(ctx, &Turn{ParticipantID: "p", Role: RoleUser, Content: "원본"}); err != nil {
		t.Fatal(err)
	}

	turns, _ := s.ListTurns(ctx, "p")
	turns[0].Content = "변조"

	again, _ := s.ListTurns(ctx, "p")
	if again[0].Content != "원본" {
		t.Error("ListTurns exposed internal state")
	}
}
