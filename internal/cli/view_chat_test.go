package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"github.com/alexanderramin/agriadvisor/internal/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holdingRemote blocks every call until its context ends.
type holdingRemote struct{}

func (holdingRemote) Generate(ctx context.Context, _ string, _ domain.TopicalMode, _ domain.ContextSnapshot) (domain.ResolvedAnswer, error) {
	<-ctx.Done()
	return domain.ResolvedAnswer{}, ctx.Err()
}

func newChatDriver(t *testing.T, remote advisor.Generator, mode domain.TopicalMode) (*teatest.Driver, *chatView, *session.Session) {
	t.Helper()
	sess := session.New(orchestratorFactory(remote)(), session.WithMode(mode))
	view := newChatView(context.Background(), sess)
	d := teatest.New(t, view, teatest.WithSize(120, 40))
	d.DrainInit()
	return d, view, sess
}

func TestChatView_Welcome(t *testing.T) {
	d, _, _ := newChatDriver(t, nil, domain.ModeGeneral)

	view := d.View()
	assert.Contains(t, view, "agriadvisor")
	assert.Contains(t, view, "Remote model not configured")
	assert.Contains(t, view, "general> ")
}

func TestChatView_KeyHelpFooter(t *testing.T) {
	d, view, _ := newChatDriver(t, nil, domain.ModeGeneral)

	out := d.View()
	for _, b := range view.keys.ShortHelp() {
		assert.Contains(t, out, b.Help().Key)
		assert.Contains(t, out, b.Help().Desc)
	}
	assert.Len(t, view.keys.FullHelp(), 1)
}

func TestChatView_AnswersQuestion(t *testing.T) {
	d, view, sess := newChatDriver(t, nil, domain.ModeGeneral)

	d.Submit("2+2")

	assert.False(t, view.waiting)
	assert.Equal(t, 2, sess.Len())
	out := d.View()
	assert.Contains(t, out, "You: 2+2")
	assert.Contains(t, out, "Confidence: 100%")
	assert.Contains(t, out, "TRY NEXT")
	assert.NotContains(t, out, "Thinking")
}

func TestChatView_BlankInputIgnored(t *testing.T) {
	d, _, sess := newChatDriver(t, nil, domain.ModeGeneral)

	d.Submit("   ")

	assert.Zero(t, sess.Len())
}

func TestChatView_SlashCommands(t *testing.T) {
	d, _, sess := newChatDriver(t, nil, domain.ModeGeneral)

	d.Submit("/mode weather")
	assert.Equal(t, domain.ModeWeather, sess.Mode())
	assert.Contains(t, d.View(), "Switched to Weather mode.")
	assert.Contains(t, d.View(), "weather> ")

	d.Submit("/modes")
	assert.Contains(t, d.View(), "Crop Analysis")

	d.Submit("Will it rain this week?")
	d.Submit("/history")
	assert.Contains(t, d.View(), "CONVERSATION "+sess.ID())
	assert.Equal(t, 2, sess.Len())
	assert.False(t, d.Quitting)

	d.Submit("/quit")
	assert.True(t, d.Quitting)
}

func TestChatView_QuitKeys(t *testing.T) {
	t.Run("esc", func(t *testing.T) {
		d, _, _ := newChatDriver(t, nil, domain.ModeGeneral)
		d.PressEsc()
		assert.True(t, d.Quitting)
	})

	t.Run("ctrl+c when idle", func(t *testing.T) {
		d, _, _ := newChatDriver(t, nil, domain.ModeGeneral)
		d.PressCtrlC()
		assert.True(t, d.Quitting)
	})
}

func TestChatView_PendingRequest(t *testing.T) {
	d, view, sess := newChatDriver(t, holdingRemote{}, domain.ModeMarket)

	d.Submit("Show price trends for wheat")

	require.Eventually(t, sess.Pending, 2*time.Second, 5*time.Millisecond)
	assert.True(t, view.waiting)
	assert.Contains(t, d.View(), "Thinking")

	// Input is locked while waiting.
	d.Submit("And maize?")
	assert.Equal(t, 1, sess.Len())

	// ctrl+c cancels the request instead of quitting.
	d.PressCtrlC()
	assert.False(t, d.Quitting)
	require.Eventually(t, func() bool { return !sess.Pending() }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, sess.Degraded())

	// The driver dropped the blocked Cmd, so deliver its result by hand.
	d.Send(answerMsg{err: advisor.ErrDiscarded})
	assert.False(t, view.waiting)
	assert.Contains(t, d.View(), "Request cancelled.")
	assert.Equal(t, 1, sess.Len())
}

func TestChatView_DegradedBadge(t *testing.T) {
	d, _, sess := newChatDriver(t, &fakeRemote{err: errors.New("dial tcp: connection refused")}, domain.ModePestDetection)

	d.Submit("How do I identify leaf blight?")

	require.True(t, sess.Degraded())
	out := d.View()
	assert.Contains(t, out, "OFFLINE MODE")
	assert.Contains(t, out, "[Local | Pest Detection")
}

func TestChatView_ErrorLine(t *testing.T) {
	d, _, _ := newChatDriver(t, nil, domain.ModeGeneral)
	d.Send(answerMsg{err: advisor.ErrBusy})

	assert.Contains(t, d.View(), "Error: "+advisor.ErrBusy.Error())
}
