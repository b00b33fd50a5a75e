// Package archive persists finished conversations to SQLite.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/agriadvisor/internal/db"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/repository"
	"go.uber.org/zap"
)

// Archive saves and reads transcripts.
type Archive struct {
	conn    *sql.DB
	uow     db.UnitOfWork
	reader  repository.TranscriptRepo
	log     *zap.Logger
	onSaved func()
}

// Option configures an Archive.
type Option func(*Archive)

// WithUnitOfWork overrides the transaction runner.
func WithUnitOfWork(uow db.UnitOfWork) Option {
	return func(a *Archive) { a.uow = uow }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Archive) { a.log = log }
}

// WithSaveHook registers fn to run after every successful save.
func WithSaveHook(fn func()) Option {
	return func(a *Archive) { a.onSaved = fn }
}

// New wraps an open database.
func New(conn *sql.DB, opts ...Option) *Archive {
	a := &Archive{
		conn:   conn,
		uow:    db.NewSQLiteUnitOfWork(conn),
		reader: repository.NewSQLiteTranscriptRepo(conn),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("archive")
	return a
}

// Open opens (or creates) the archive at path.
func Open(path string, opts ...Option) (*Archive, error) {
	conn, err := db.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript archive: %w", err)
	}
	return New(conn, opts...), nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// Save writes t atomically. Transcripts without messages are skipped.
func (a *Archive) Save(ctx context.Context, t domain.Transcript) error {
	if len(t.Messages) == 0 {
		a.log.Debug("skipping empty transcript", zap.String("session_id", t.SessionID))
		return nil
	}
	err := a.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteTranscriptRepo(tx).Save(ctx, &t)
	})
	if err != nil {
		return fmt.Errorf("saving transcript %s: %w", t.SessionID, err)
	}
	a.log.Info("transcript saved",
		zap.String("session_id", t.SessionID),
		zap.Int("messages", len(t.Messages)),
		zap.Bool("degraded", t.Degraded),
	)
	if a.onSaved != nil {
		a.onSaved()
	}
	return nil
}

// List returns up to limit summaries, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]domain.TranscriptSummary, error) {
	return a.reader.List(ctx, limit)
}

// Get loads one transcript with its messages.
func (a *Archive) Get(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	return a.reader.Get(ctx, sessionID)
}

// Delete removes one transcript and its messages.
func (a *Archive) Delete(ctx context.Context, sessionID string) error {
	err := a.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteTranscriptRepo(tx).Delete(ctx, sessionID)
	})
	if err != nil {
		return fmt.Errorf("deleting transcript %s: %w", sessionID, err)
	}
	a.log.Info("transcript deleted", zap.String("session_id", sessionID))
	return nil
}
