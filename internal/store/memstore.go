package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Gateway. It backs demo deployments (no database
// file configured) and tests. All data is lost on restart.
type MemStore struct {
	mu           sync.RWMutex
	discussions  map[string]*Discussion
	participants map[string]*Participant
	turns        map[string][]Turn // participant ID → turns, oldest first
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		discussions:  make(map[string]*Discussion),
		participants: make(map[string]*Participant),
		turns:        make(map[string][]Turn),
	}
}

// CreateDiscussion inserts a new discussion session.
func (s *MemStore) CreateDiscussion(_ context.Context, d *Discussion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = "active"
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	cp := *d
	s.discussions[d.ID] = &cp
	return nil
}

// CreateParticipant inserts a new participant.
func (s *MemStore) CreateParticipant(_ context.Context, p *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	cp := *p
	s.participants[p.ID] = &cp
	return nil
}

// GetDiscussion retrieves a discussion by ID.
func (s *MemStore) GetDiscussion(_ context.Context, id string) (*Discussion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.discussions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// GetParticipant retrieves a participant by ID.
func (s *MemStore) GetParticipant(_ context.Context, id string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListTurns retrieves a participant's turns in ascending creation order.
func (s *MemStore) ListTurns(_ context.Context, participantID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[participantID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// InsertTurn appends one turn. ID and CreatedAt are assigned when unset.
func (s *MemStore) InsertTurn(_ context.Context, turn *Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		turn.ID = id.String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	s.turns[turn.ParticipantID] = append(s.turns[turn.ParticipantID], *turn)
	return nil
}
