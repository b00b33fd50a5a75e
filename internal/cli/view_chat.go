package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/cli/formatter"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// answerMsg carries the result of an asynchronous submit.
type answerMsg struct {
	msg domain.Message
	err error
}

// chatView is the interactive chat. Questions are submitted on a tea.Cmd
// so the spinner keeps running while the remote tier is pending.
type chatView struct {
	ctx   context.Context
	sess  *session.Session
	input textinput.Model
	spin  spinner.Model
	help  help.Model

	lines   []string
	waiting bool
	cancel  context.CancelFunc
	keys    chatKeys
}

type chatKeys struct {
	Submit key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

// ShortHelp implements help.KeyMap.
func (k chatKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k chatKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultChatKeys() chatKeys {
	return chatKeys{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		Cancel: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel / quit")),
		Quit:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit")),
	}
}

func newChatView(ctx context.Context, sess *session.Session) *chatView {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.CharLimit = 1000
	ti.Placeholder = "Ask about your farm..."

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(formatter.StylePurple),
	)

	hm := help.New()
	hm.Styles.ShortKey = formatter.StylePurple
	hm.Styles.ShortDesc = formatter.StyleDim
	hm.Styles.ShortSeparator = formatter.StyleDim

	return &chatView{
		ctx:   ctx,
		sess:  sess,
		input: ti,
		spin:  sp,
		help:  hm,
		keys:  defaultChatKeys(),
		lines: []string{formatter.FormatChatWelcome(sess.Mode(), sess.RemoteEnabled())},
	}
}

// ── tea.Model interface ──────────────────────────────────────────────────────

func (v *chatView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *chatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.input.Width = max(msg.Width-len(string(v.sess.Mode()))-4, 10)
		v.help.Width = msg.Width
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Cancel):
			if v.waiting {
				v.cancel()
				return v, nil
			}
			return v, tea.Quit
		case key.Matches(msg, v.keys.Quit):
			if v.waiting {
				v.cancel()
			}
			return v, tea.Quit
		case key.Matches(msg, v.keys.Submit):
			if v.waiting {
				return v, nil
			}
			input := strings.TrimSpace(v.input.Value())
			v.input.Reset()
			if input == "" {
				return v, nil
			}
			return v.handleInput(input)
		}

	case answerMsg:
		return v.handleAnswer(msg), nil

	case spinner.TickMsg:
		if !v.waiting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *chatView) View() string {
	var b strings.Builder

	for _, line := range v.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if v.waiting {
		b.WriteString(v.spin.View() + formatter.Dim(" Thinking... (ctrl+c to cancel)"))
		b.WriteString("\n")
	}
	if v.sess.Degraded() {
		b.WriteString(formatter.DegradedBadge())
		b.WriteString("\n")
	}

	prompt := formatter.StylePurple.Render(string(v.sess.Mode())) + formatter.Dim("> ")
	b.WriteString(prompt)
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.help.View(v.keys))

	return b.String()
}

// ── input handling ───────────────────────────────────────────────────────────

func (v *chatView) handleInput(input string) (tea.Model, tea.Cmd) {
	if res, ok := runSlashCommand(v.sess, input); ok {
		if res.quit {
			return v, tea.Quit
		}
		v.lines = append(v.lines, strings.TrimRight(res.output, "\n"))
		return v, nil
	}

	v.lines = append(v.lines, formatter.FormatUserLine(input))
	v.waiting = true

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	return v, tea.Batch(v.spin.Tick, submitCmd(ctx, v.sess, input))
}

func (v *chatView) handleAnswer(msg answerMsg) *chatView {
	v.waiting = false
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	switch {
	case msg.err == nil:
		v.lines = append(v.lines, formatter.FormatAnswer(msg.msg, v.sess.Degraded()))
	case errors.Is(msg.err, advisor.ErrDiscarded):
		v.lines = append(v.lines, formatter.Dim("Request cancelled."))
	default:
		v.lines = append(v.lines, formatter.StyleRed.Render("Error: "+msg.err.Error()))
	}
	return v
}

func submitCmd(ctx context.Context, sess *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		msg, err := sess.Submit(ctx, text)
		return answerMsg{msg: msg, err: err}
	}
}
