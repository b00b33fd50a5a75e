package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"go.uber.org/zap"
)

// State is the orchestrator's position in the resolution lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingRemote
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingRemote:
		return "awaiting_remote"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Recorder receives resolution outcomes for metrics.
type Recorder interface {
	ObserveAnswer(source domain.AnswerSource, mode domain.TopicalMode)
	ObserveDegraded()
	ObserveBusy()
}

// NoopRecorder discards all observations.
type NoopRecorder struct{}

func (NoopRecorder) ObserveAnswer(domain.AnswerSource, domain.TopicalMode) {}
func (NoopRecorder) ObserveDegraded()                                      {}
func (NoopRecorder) ObserveBusy()                                          {}

// Options configures an Orchestrator.
type Options struct {
	// RemoteEnabled gates the remote tier entirely.
	RemoteEnabled bool
	// ShareSnapshot passes the prompt's snapshot to the local tier.
	ShareSnapshot bool
	Logger        *zap.Logger
	Recorder      Recorder
}

// Orchestrator chooses between the remote and local tiers for one session.
// A submit always resolves to an answer unless it is rejected as busy or
// abandoned by its caller. The first remote failure latches degraded mode
// for the orchestrator's lifetime.
type Orchestrator struct {
	remote Generator
	local  *Resolver
	synth  *Synthesizer
	opts   Options
	log    *zap.Logger

	mu          sync.Mutex
	state       State
	inFlight    bool
	degraded    bool
	remoteCalls int
}

// NewOrchestrator wires the two tiers. remote may be nil, which is the same
// as RemoteEnabled=false.
func NewOrchestrator(remote Generator, local *Resolver, synth *Synthesizer, opts Options) *Orchestrator {
	if synth == nil {
		synth = NewRandomSynthesizer()
	}
	if local == nil {
		local = NewResolver(NewRandomSynthesizer())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = NoopRecorder{}
	}
	return &Orchestrator{
		remote: remote,
		local:  local,
		synth:  synth,
		opts:   opts,
		log:    opts.Logger.Named("orchestrator"),
		state:  StateIdle,
	}
}

// Submit resolves query in mode. The only errors are ErrBusy and
// ErrDiscarded.
func (o *Orchestrator) Submit(ctx context.Context, query string, mode domain.TopicalMode) (domain.ResolvedAnswer, error) {
	useRemote, err := o.begin()
	if err != nil {
		return domain.ResolvedAnswer{}, err
	}
	defer o.finish()

	snap := o.synth.Synthesize()

	if useRemote {
		ans, err := o.callRemote(ctx, query, mode, snap)
		switch {
		case err == nil:
			return o.resolved(ans), nil
		case errors.Is(err, ErrDiscarded):
			o.log.Debug("remote result discarded", zap.String("mode", string(mode)))
			return domain.ResolvedAnswer{}, err
		default:
			o.latchDegraded(err)
		}
	}

	var ans domain.ResolvedAnswer
	if o.opts.ShareSnapshot {
		ans = o.local.ResolveWith(query, mode, snap)
	} else {
		ans = o.local.Resolve(query, mode)
	}
	return o.resolved(ans), nil
}

// Degraded reports whether the remote tier has been abandoned.
func (o *Orchestrator) Degraded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.degraded
}

// RemoteEnabled reports whether the remote tier was configured at all.
func (o *Orchestrator) RemoteEnabled() bool {
	return o.opts.RemoteEnabled && o.remote != nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// RemoteCalls returns how many times the remote tier was invoked.
func (o *Orchestrator) RemoteCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remoteCalls
}

func (o *Orchestrator) begin() (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		o.opts.Recorder.ObserveBusy()
		return false, ErrBusy
	}
	o.inFlight = true

	useRemote := o.RemoteEnabled() && !o.degraded
	if useRemote {
		o.state = StateAwaitingRemote
		o.remoteCalls++
	}
	return useRemote, nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	o.state = StateResolved
}

func (o *Orchestrator) latchDegraded(cause error) {
	o.mu.Lock()
	first := !o.degraded
	o.degraded = true
	o.mu.Unlock()

	if first {
		o.opts.Recorder.ObserveDegraded()
		o.log.Warn("remote generation failed; using local answers for the rest of the session", zap.Error(cause))
	}
}

type remoteResult struct {
	ans domain.ResolvedAnswer
	err error
}

// callRemote runs the delegate on its own goroutine so that a caller who
// stops waiting gets control back even if the transport ignores ctx.
func (o *Orchestrator) callRemote(ctx context.Context, query string, mode domain.TopicalMode, snap domain.ContextSnapshot) (domain.ResolvedAnswer, error) {
	done := make(chan remoteResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- remoteResult{err: fmt.Errorf("%w: panic: %v", ErrRemoteUnavailable, r)}
			}
		}()
		ans, err := o.remote.Generate(ctx, query, mode, snap)
		done <- remoteResult{ans: ans, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() != nil {
				return domain.ResolvedAnswer{}, fmt.Errorf("%w: %w", ErrDiscarded, ctx.Err())
			}
			return domain.ResolvedAnswer{}, res.err
		}
		if strings.TrimSpace(res.ans.Content) == "" {
			return domain.ResolvedAnswer{}, fmt.Errorf("%w: empty content", ErrRemoteUnavailable)
		}
		return res.ans, nil
	case <-ctx.Done():
		return domain.ResolvedAnswer{}, fmt.Errorf("%w: %w", ErrDiscarded, ctx.Err())
	}
}

// resolved enforces the output contract before handing the answer out.
func (o *Orchestrator) resolved(ans domain.ResolvedAnswer) domain.ResolvedAnswer {
	ans.Confidence = domain.ClampConfidence(ans.Confidence, 0, 100)
	if n := len(ans.Suggestions); n < domain.MinSuggestions || n > domain.MaxSuggestions {
		ans.Suggestions = Suggestions(ans.Mode)
	}

	o.opts.Recorder.ObserveAnswer(ans.Source, ans.Mode)
	o.log.Debug("resolved",
		zap.String("source", string(ans.Source)),
		zap.String("mode", string(ans.Mode)),
		zap.Int("confidence", ans.Confidence),
	)
	return ans
}
