package advisor

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/llm"
)

// Remote confidence bounds; the score grows with answer length.
const (
	remoteConfidenceMin = 85
	remoteConfidenceMax = 98
)

// Generator is the remote tier as seen by the orchestrator.
type Generator interface {
	Generate(ctx context.Context, query string, mode domain.TopicalMode, snap domain.ContextSnapshot) (domain.ResolvedAnswer, error)
}

// RemoteDelegate answers through a remote language model. It makes exactly
// one call per Generate and never retries.
type RemoteDelegate struct {
	client llm.LLMClient
}

// NewRemoteDelegate wraps client as a Generator.
func NewRemoteDelegate(client llm.LLMClient) *RemoteDelegate {
	return &RemoteDelegate{client: client}
}

func (d *RemoteDelegate) Generate(ctx context.Context, query string, mode domain.TopicalMode, snap domain.ContextSnapshot) (domain.ResolvedAnswer, error) {
	resp, err := d.client.Generate(ctx, llm.GenerateRequest{
		Task:       llm.TaskAdvise,
		UserPrompt: BuildAdvisorPrompt(query, mode, snap),
	})
	if err != nil {
		return domain.ResolvedAnswer{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	text := llm.CleanText(resp.Text)
	if text == "" {
		return domain.ResolvedAnswer{}, fmt.Errorf("%w: empty generated text", ErrRemoteUnavailable)
	}

	return domain.ResolvedAnswer{
		Content:     text,
		Confidence:  RemoteConfidence(text),
		Suggestions: Suggestions(mode),
		Mode:        mode,
		Source:      domain.SourceRemote,
	}, nil
}

// RemoteConfidence derives a score in [85, 98] from the answer length:
// one point per hundred characters above the floor.
func RemoteConfidence(text string) int {
	return domain.ClampConfidence(
		remoteConfidenceMin+utf8.RuneCountInString(text)/100,
		remoteConfidenceMin,
		remoteConfidenceMax,
	)
}
