package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/cli/formatter"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start a conversation with the advisor. On a terminal a full chat view
opens; otherwise questions are read line by line from stdin.

Commands during chat:
  /mode <name>  Switch topical mode
  /modes        List modes
  /history      Show this conversation
  /quit         End the conversation

Examples:
  agriadvisor chat
  agriadvisor chat --mode sensors
  echo "Will it rain this week?" | agriadvisor chat --mode weather`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := app.chatMode(cmd.Flags().Changed("mode"), modeFlag)
			if err != nil {
				return err
			}

			sess := app.newSession(mode)
			defer app.archiveSession(context.WithoutCancel(cmd.Context()), sess)

			if app.interactive() {
				return runChatTUI(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return runLineChat(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(domain.ModeGeneral), "topical mode: "+modeNames())
	return cmd
}

// chatMode honours an explicit --mode, then the interactive picker, then
// the general mode.
func (app *App) chatMode(flagSet bool, flagValue string) (domain.TopicalMode, error) {
	if flagSet || !app.interactive() {
		return parseModeFlag(flagValue)
	}
	return app.pickMode()
}

func runChatTUI(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(newChatView(ctx, sess),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func runLineChat(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	fmt.Fprint(out, formatter.FormatChatWelcome(sess.Mode(), sess.RemoteEnabled()))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", sess.Mode())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if res, ok := runSlashCommand(sess, input); ok {
			if res.quit {
				return nil
			}
			fmt.Fprint(out, res.output)
			continue
		}

		msg, err := sess.Submit(ctx, input)
		if err != nil {
			if errors.Is(err, advisor.ErrDiscarded) {
				return nil
			}
			fmt.Fprintln(out, formatter.StyleRed.Render("Error: "+err.Error()))
			continue
		}
		fmt.Fprint(out, formatter.FormatAnswerPlain(msg, sess.Degraded()))
	}
}

type slashResult struct {
	output string
	quit   bool
}

// runSlashCommand handles in-chat commands. ok is false when input is a
// question rather than a command.
func runSlashCommand(sess *session.Session, input string) (res slashResult, ok bool) {
	if !strings.HasPrefix(input, "/") {
		return slashResult{}, false
	}

	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		return slashResult{quit: true}, true
	case "/modes":
		return slashResult{output: formatter.FormatModeList(sess.Mode())}, true
	case "/mode":
		if len(fields) < 2 {
			return slashResult{output: formatter.Dim(fmt.Sprintf(
				"Current mode: %s. Usage: /mode <name>", sess.Mode().Label())) + "\n"}, true
		}
		mode, err := domain.ParseMode(fields[1])
		if err == nil {
			err = sess.SetMode(mode)
		}
		if err != nil {
			return slashResult{output: formatter.StyleRed.Render(
				fmt.Sprintf("Unknown mode %q. Choose one of: %s", fields[1], modeNames())) + "\n"}, true
		}
		return slashResult{output: "Switched to " + formatter.ModeBadge(mode) + " mode.\n"}, true
	case "/history":
		if sess.Len() == 0 {
			return slashResult{output: formatter.Dim("No messages yet.") + "\n"}, true
		}
		t := sess.Transcript()
		return slashResult{output: formatter.FormatTranscript(&t)}, true
	default:
		return slashResult{output: formatter.Dim(fmt.Sprintf(
			"Unknown command %s. Commands: /mode <name>, /modes, /history, /quit", fields[0])) + "\n"}, true
	}
}
