package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/cli/formatter"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/repository"
	"github.com/spf13/cobra"
)

var errArchiveDisabled = errors.New("transcript archive is disabled (set archive.enabled or AGRI_ARCHIVE_ENABLED=true)")

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived conversations",
	}
	cmd.AddCommand(
		newHistoryListCmd(app),
		newHistoryShowCmd(app),
		newHistoryDeleteCmd(app),
	)
	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.Archive == nil {
				return errArchiveDisabled
			}
			items, err := app.Archive.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("listing transcripts: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTranscriptList(items, app.now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of conversations (0 for all)")
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one archived conversation",
		Long:  "Show one archived conversation. A unique prefix of the session id is enough.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Archive == nil {
				return errArchiveDisabled
			}
			id, err := resolveTranscriptID(cmd, app.Archive, args[0])
			if err != nil {
				return err
			}
			t, err := app.Archive.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading transcript %s: %w", id, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTranscript(t))
			return nil
		},
	}
}

func newHistoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <session-id>",
		Aliases: []string{"rm"},
		Short:   "Delete one archived conversation",
		Long:    "Delete one archived conversation. A unique prefix of the session id is enough.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Archive == nil {
				return errArchiveDisabled
			}
			id, err := resolveTranscriptID(cmd, app.Archive, args[0])
			if err != nil {
				return err
			}
			if err := app.Archive.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted conversation %s.\n", id)
			return nil
		},
	}
}

// resolveTranscriptID expands a session id prefix to the full id.
func resolveTranscriptID(cmd *cobra.Command, store TranscriptStore, prefix string) (string, error) {
	items, err := store.List(cmd.Context(), 0)
	if err != nil {
		return "", fmt.Errorf("listing transcripts: %w", err)
	}

	var matches []domain.TranscriptSummary
	for _, it := range items {
		if it.SessionID == prefix {
			return prefix, nil
		}
		if strings.HasPrefix(it.SessionID, prefix) {
			matches = append(matches, it)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no archived conversation matches %q: %w", prefix, repository.ErrNotFound)
	case 1:
		return matches[0].SessionID, nil
	default:
		return "", fmt.Errorf("session id prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
