package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/cli/formatter"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/spf13/cobra"
)

type askResult struct {
	SessionID string         `json:"session_id"`
	Degraded  bool           `json:"degraded"`
	Answer    domain.Message `json:"answer"`
}

func newAskCmd(app *App) *cobra.Command {
	var modeFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Ask a single question",
		Long: `Answer one question and exit.

Examples:
  agriadvisor ask "Should I irrigate today?" --mode weather
  agriadvisor ask "Show me my sensor data analysis" --mode sensors --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseModeFlag(modeFlag)
			if err != nil {
				return err
			}

			sess := app.newSession(mode)

			stopSpinner := func() {}
			if !asJSON && app.interactive() && sess.RemoteEnabled() {
				stopSpinner = formatter.StartSpinner("Consulting the advisor...")
			}
			msg, err := sess.Submit(cmd.Context(), args[0])
			stopSpinner()
			if err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}

			app.archiveSession(cmd.Context(), sess)

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, askResult{SessionID: sess.ID(), Degraded: sess.Degraded(), Answer: msg})
			case app.interactive():
				fmt.Fprint(out, formatter.FormatAnswer(msg, sess.Degraded()))
			default:
				fmt.Fprint(out, formatter.FormatAnswerPlain(msg, sess.Degraded()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(domain.ModeGeneral), "topical mode: "+modeNames())
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer as JSON")
	return cmd
}

func parseModeFlag(s string) (domain.TopicalMode, error) {
	mode, err := domain.ParseMode(s)
	if err != nil {
		return "", fmt.Errorf("%w (choose one of: %s)", err, modeNames())
	}
	return mode, nil
}

func modeNames() string {
	names := make([]string, len(domain.AllModes))
	for i, m := range domain.AllModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
