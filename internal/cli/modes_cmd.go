package cli

import (
	"fmt"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newModesCmd(_ *App) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List topical modes and their suggested questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatModeCatalog(advisor.Suggestions))
			return nil
		},
	}
}
