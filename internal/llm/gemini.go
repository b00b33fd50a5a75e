package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiClient implements LLMClient on the Gemini generateContent API.
type geminiClient struct {
	cfg      LLMConfig
	client   *genai.Client
	observer Observer
}

// NewGeminiClient creates an LLMClient backed by the genai SDK. A non-empty
// cfg.Endpoint overrides the API base URL (used for proxies and tests).
func NewGeminiClient(ctx context.Context, cfg LLMConfig, observer Observer) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if observer == nil {
		observer = NoopObserver{}
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.Endpoint, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &geminiClient{cfg: cfg, client: client, observer: observer}, nil
}

func (c *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	temp, maxTok := c.cfg.taskParams(req)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TaskTimeout(req.Task))*time.Millisecond)
	defer cancel()

	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temp)),
		MaxOutputTokens: int32(maxTok),
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.UserPrompt, genai.RoleUser),
	}

	text, err := c.generate(ctx, contents, gc)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		err = classifyGeminiError(ctx, err)
		c.observer.OnCallComplete(LLMCallEvent{
			Task:      req.Task,
			Provider:  ProviderGemini,
			Model:     c.cfg.Model,
			LatencyMs: latency,
			Success:   false,
			ErrorCode: errorCode(err),
		})
		return nil, err
	}

	c.observer.OnCallComplete(LLMCallEvent{
		Task:      req.Task,
		Provider:  ProviderGemini,
		Model:     c.cfg.Model,
		LatencyMs: latency,
		Success:   true,
	})
	return &GenerateResponse{Text: text, Model: c.cfg.Model, LatencyMs: latency}, nil
}

func (c *geminiClient) generate(ctx context.Context, contents []*genai.Content, gc *genai.GenerateContentConfig) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, gc)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrInvalidOutput)
	}

	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return "", fmt.Errorf("%w: candidate has no content", ErrInvalidOutput)
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: candidate text is empty", ErrInvalidOutput)
	}
	return text, nil
}

func (c *geminiClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TaskTimeout(TaskProbe))*time.Millisecond)
	defer cancel()

	_, err := c.client.Models.Get(ctx, c.cfg.Model, nil)
	return err == nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	if errors.Is(err, ErrInvalidOutput) {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrHTTPStatus, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fmt.Errorf("%w: status %d: %s", ErrHTTPStatus, apiErrPtr.Code, apiErrPtr.Message)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
