package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver for database/sql
)

// SQLiteStore is a SQLite-backed Gateway.
type SQLiteStore struct {
	db         *sql.DB
	maxHistory int
}

// NewSQLiteStore opens (creating if needed) a SQLite database at dbPath.
// maxHistory caps how many turns ListTurns returns; zero means no cap.
func NewSQLiteStore(dbPath string, maxHistory int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{
		db:         db,
		maxHistory: maxHistory,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS discussion_sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		settings TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS discussion_participants (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		display_name TEXT,
		stance TEXT,
		stance_statement TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES discussion_sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_participants_session ON discussion_participants(session_id);

	CREATE TABLE IF NOT EXISTS discussion_messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		participant_id TEXT,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		response_id TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES discussion_sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_participant ON discussion_messages(participant_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateDiscussion inserts a new discussion session. The ID is assigned
// when unset.
func (s *SQLiteStore) CreateDiscussion(ctx context.Context, d *Discussion) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = "active"
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	settings, err := json.Marshal(d.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO discussion_sessions (id, title, description, status, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Title, d.Description, d.Status, string(settings), now, now)
	if err != nil {
		return fmt.Errorf("insert discussion: %w", err)
	}
	return nil
}

// CreateParticipant inserts a new participant. The ID is assigned when unset.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *Participant) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discussion_participants (id, session_id, display_name, stance, stance_statement, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.SessionID, p.DisplayName, p.Stance, p.StanceStatement, now)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// GetDiscussion retrieves a discussion by ID.
func (s *SQLiteStore) GetDiscussion(ctx context.Context, id string) (*Discussion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(description, ''), status, settings, created_at, updated_at
		FROM discussion_sessions WHERE id = ?
	`, id)

	var d Discussion
	var settings string
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Status, &settings, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get discussion: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &d.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &d, nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id string) (*Participant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, COALESCE(display_name, ''), COALESCE(stance, ''), COALESCE(stance_statement, ''), created_at
		FROM discussion_participants WHERE id = ?
	`, id)

	var p Participant
	if err := row.Scan(&p.ID, &p.SessionID, &p.DisplayName, &p.Stance, &p.StanceStatement, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

// ListTurns retrieves a participant's turns in ascending creation order.
// With a history cap, the most recent turns win.
func (s *SQLiteStore) ListTurns(ctx context.Context, participantID string) ([]Turn, error) {
	query := `
		SELECT id, session_id, COALESCE(participant_id, ''), role, content, COALESCE(response_id, ''), created_at
		FROM discussion_messages
		WHERE participant_id = ?
		ORDER BY created_at ASC, id ASC
	`
	args := []any{participantID}
	if s.maxHistory > 0 {
		query = `
			SELECT * FROM (
				SELECT id, session_id, COALESCE(participant_id, ''), role, content, COALESCE(response_id, ''), created_at
				FROM discussion_messages
				WHERE participant_id = ?
				ORDER BY created_at DESC, id DESC
				LIMIT ?
			) ORDER BY created_at ASC, id ASC
		`
		args = append(args, s.maxHistory)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.ParticipantID, &t.Role, &t.Content, &t.ResponseID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// InsertTurn appends one turn. ID and CreatedAt are assigned when unset.
// UUIDv7 keeps insertion order as a tiebreaker for equal timestamps.
func (s *SQLiteStore) InsertTurn(ctx context.Context, turn *Turn) error {
	if turn.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("new turn id: %w", err)
		}
		turn.ID = id.String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discussion_messages (id, session_id, participant_id, role, content, response_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, turn.ID, turn.SessionID, turn.ParticipantID, string(turn.Role), turn.Content, nullable(turn.ResponseID), turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
