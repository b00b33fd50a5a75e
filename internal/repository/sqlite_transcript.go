package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/agriadvisor/internal/db"
	"github.com/alexanderramin/agriadvisor/internal/domain"
)

// SQLiteTranscriptRepo implements TranscriptRepo. Save writes several rows;
// wrap it in a db.UnitOfWork to make it atomic.
type SQLiteTranscriptRepo struct {
	db db.DBTX
}

func NewSQLiteTranscriptRepo(conn db.DBTX) *SQLiteTranscriptRepo {
	return &SQLiteTranscriptRepo{db: conn}
}

func (r *SQLiteTranscriptRepo) Save(ctx context.Context, t *domain.Transcript) error {
	query := `INSERT INTO transcripts (id, started_at, ended_at, mode, degraded, message_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			mode = excluded.mode,
			degraded = excluded.degraded,
			message_count = excluded.message_count`
	_, err := r.db.ExecContext(ctx, query,
		t.SessionID,
		formatTime(t.StartedAt),
		formatTime(t.EndedAt),
		string(t.Mode),
		boolToInt(t.Degraded),
		len(t.Messages),
	)
	if err != nil {
		return fmt.Errorf("upserting transcript: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM transcript_messages WHERE transcript_id = ?`, t.SessionID); err != nil {
		return fmt.Errorf("clearing transcript messages: %w", err)
	}

	insert := `INSERT INTO transcript_messages
		(id, transcript_id, seq, role, text, created_at, mode, suggestions, confidence, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, m := range t.Messages {
		suggestions, err := encodeStrings(m.Suggestions)
		if err != nil {
			return err
		}
		mode := m.Mode
		if mode == "" {
			mode = domain.ModeGeneral
		}
		_, err = r.db.ExecContext(ctx, insert,
			m.ID,
			t.SessionID,
			i,
			string(m.Role),
			m.Text,
			formatTime(m.CreatedAt),
			string(mode),
			suggestions,
			nullableIntToValue(m.Confidence),
			string(m.Source),
		)
		if err != nil {
			return fmt.Errorf("inserting transcript message %d: %w", i, err)
		}
	}
	return nil
}

func (r *SQLiteTranscriptRepo) Get(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	query := `SELECT id, started_at, ended_at, mode, degraded, message_count
		FROM transcripts WHERE id = ?`
	summary, err := scanSummary(r.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transcript %s: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}

	messages, err := r.listMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &domain.Transcript{
		SessionID: summary.SessionID,
		StartedAt: summary.StartedAt,
		EndedAt:   summary.EndedAt,
		Mode:      summary.Mode,
		Degraded:  summary.Degraded,
		Messages:  messages,
	}, nil
}

// List returns the most recent transcripts first. limit <= 0 means all.
func (r *SQLiteTranscriptRepo) List(ctx context.Context, limit int) ([]domain.TranscriptSummary, error) {
	query := `SELECT id, started_at, ended_at, mode, degraded, message_count
		FROM transcripts ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}
	defer rows.Close()

	var out []domain.TranscriptSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transcripts: %w", err)
	}
	return out, nil
}

func (r *SQLiteTranscriptRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transcripts WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting transcript: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transcript %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteTranscriptRepo) listMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	query := `SELECT id, role, text, created_at, mode, suggestions, confidence, source
		FROM transcript_messages WHERE transcript_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing transcript messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			m                          domain.Message
			role, mode, source         string
			createdAt, suggestionsJSON string
			confidence                 sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &role, &m.Text, &createdAt, &mode, &suggestionsJSON, &confidence, &source); err != nil {
			return nil, fmt.Errorf("scanning transcript message: %w", err)
		}
		if m.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if m.Suggestions, err = decodeStrings(suggestionsJSON); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		m.Mode = domain.TopicalMode(mode)
		m.Source = domain.AnswerSource(source)
		m.Confidence = nullIntToPtr(confidence)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transcript messages: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (domain.TranscriptSummary, error) {
	var (
		s              domain.TranscriptSummary
		started, ended string
		mode           string
		degraded       int
	)
	if err := row.Scan(&s.SessionID, &started, &ended, &mode, &degraded, &s.MessageCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scanning transcript: %w", err)
	}
	var err error
	if s.StartedAt, err = parseTime(started, "started_at"); err != nil {
		return s, err
	}
	if s.EndedAt, err = parseTime(ended, "ended_at"); err != nil {
		return s, err
	}
	s.Mode = domain.TopicalMode(mode)
	s.Degraded = intToBool(degraded)
	return s, nil
}
