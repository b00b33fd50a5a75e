package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/agriadvisor/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// TranscriptRepo stores closed conversations.
type TranscriptRepo interface {
	// Save inserts the transcript or replaces a previous save of the same
	// session, messages included.
	Save(ctx context.Context, t *domain.Transcript) error
	Get(ctx context.Context, sessionID string) (*domain.Transcript, error)
	List(ctx context.Context, limit int) ([]domain.TranscriptSummary, error)
	Delete(ctx context.Context, sessionID string) error
}
