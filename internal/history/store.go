package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/agrihelper/agrichat/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	session_id      TEXT NOT NULL DEFAULT '',
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	confidence      REAL,
	word_count      INTEGER,
	processing_time REAL,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
`

// Store is the optional local conversation transcript, an append-only
// SQLite file. It implements chat.Recorder.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the transcript database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends one message. Messages are never updated or deleted.
func (s *Store) Record(ctx context.Context, msg domain.ChatMessage) error {
	var confidence, processingTime *float64
	var wordCount *int
	if msg.Voice != nil {
		confidence = &msg.Voice.Confidence
		wordCount = &msg.Voice.WordCount
		processingTime = &msg.Voice.ProcessingTime
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, seq, role, content, confidence, word_count, processing_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID.String(), msg.SessionID, msg.Sequence, string(msg.Role), msg.Content,
		confidence, wordCount, processingTime, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListBySession returns up to limit messages for a session in append order.
func (s *Store) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, role, content, confidence, word_count, processing_time, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY seq ASC
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var (
			msg            domain.ChatMessage
			id, role       string
			confidence     sql.NullFloat64
			wordCount      sql.NullInt64
			processingTime sql.NullFloat64
		)
		if err := rows.Scan(&id, &msg.SessionID, &msg.Sequence, &role, &msg.Content,
			&confidence, &wordCount, &processingTime, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid message id %q: %w", id, err)
		}
		msg.Role = domain.MessageRole(role)
		if confidence.Valid {
			msg.Voice = &domain.VoiceMetadata{
				Confidence:     confidence.Float64,
				WordCount:      int(wordCount.Int64),
				ProcessingTime: processingTime.Float64,
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
