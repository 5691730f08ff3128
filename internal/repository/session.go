package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubenote-ai/tubenote/internal/domain"
)

// SessionRepository handles persistence of chat sessions and their message
// histories. Messages carry a per-session sequence number so history order
// never depends on insertion timestamps.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *domain.ChatSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_sessions (session_id, user_id, video_id, notebook_id, first_prompt, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.SessionID, nullableString(s.UserID), nullableString(s.VideoID), nullableString(s.NotebookID),
		s.FirstPrompt, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	var userID, videoID, notebookID pgtype.Text
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, user_id, video_id, notebook_id, first_prompt, created_at, updated_at
		 FROM chat_sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&s.SessionID, &userID, &videoID, &notebookID, &s.FirstPrompt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	if userID.Valid {
		s.UserID = userID.String
	}
	if videoID.Valid {
		s.VideoID = videoID.String
	}
	if notebookID.Valid {
		s.NotebookID = notebookID.String
	}
	return &s, nil
}

func (r *SessionRepository) GetHistory(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role, content
		 FROM chat_messages
		 WHERE session_id = $1
		 ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.ChatMessage, 0)
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		history = append(history, domain.ChatMessage{Role: parsed, Content: content})
	}

	return history, rows.Err()
}

// AppendTurn inserts the user and assistant messages of one turn in a
// single transaction. Sequence numbers continue from the session's current
// maximum, so a reader never sees a half-written turn.
func (r *SessionRepository) AppendTurn(ctx context.Context, sessionID string, userMessage, assistantMessage domain.ChatMessage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var nextSeq int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE session_id = $1`,
		sessionID,
	).Scan(&nextSeq)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, msg := range []domain.ChatMessage{userMessage, assistantMessage} {
		_, err := tx.Exec(ctx,
			`INSERT INTO chat_messages (session_id, seq, role, content, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			sessionID, nextSeq+i, string(msg.Role), msg.Content, now,
		)
		if err != nil {
			return err
		}
	}

	cmdTag, err := tx.Exec(ctx,
		`UPDATE chat_sessions SET updated_at = $1 WHERE session_id = $2`,
		now, sessionID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return tx.Commit(ctx)
}
