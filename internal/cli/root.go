package cli

import (
	"context"
	"os"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/config"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/metrics"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// TranscriptStore is the transcript archive as used by the CLI.
type TranscriptStore interface {
	Save(ctx context.Context, t domain.Transcript) error
	List(ctx context.Context, limit int) ([]domain.TranscriptSummary, error)
	Get(ctx context.Context, sessionID string) (*domain.Transcript, error)
	Delete(ctx context.Context, sessionID string) error
}

// App holds the runtime dependencies shared by CLI commands.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// NewOrchestrator builds the engine for one conversation.
	NewOrchestrator session.OrchestratorFactory

	// Archive is nil when transcript archiving is disabled.
	Archive TranscriptStore

	// RemoteProbe checks the remote model backend for /healthz. Nil when
	// the remote tier is off.
	RemoteProbe func(ctx context.Context) bool

	// IsInteractive reports whether stdin and stdout are a terminal.
	// Defaults to a go-isatty check.
	IsInteractive func() bool

	// PickMode asks the user for a topical mode. Defaults to a huh select.
	PickMode func() (domain.TopicalMode, error)

	Now func() time.Time

	// Init runs once flags are parsed and fills in the fields above.
	// Tests leave it nil and populate App directly.
	Init func(configPath string) error

	ConfigPath string
}

// NewRootCmd creates the top-level "agriadvisor" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:          "agriadvisor",
		Short:        "Farm advisory assistant",
		Long:         "Answers farming questions about crops, weather, markets, field sensors and pests.\nUses a remote model when configured and local knowledge otherwise.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Init == nil {
				return nil
			}
			return app.Init(app.ConfigPath)
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "path to a YAML config file (default $AGRI_CONFIG)")

	root.AddCommand(
		newAskCmd(app),
		newChatCmd(app),
		newModesCmd(app),
		newHistoryCmd(app),
		newServeCmd(app),
	)

	return root
}

func (app *App) config() *config.Config {
	if app.Config == nil {
		return config.Default()
	}
	return app.Config
}

func (app *App) logger() *zap.Logger {
	if app.Logger == nil {
		return zap.NewNop()
	}
	return app.Logger
}

func (app *App) now() time.Time {
	if app.Now == nil {
		return time.Now()
	}
	return app.Now()
}

func (app *App) interactive() bool {
	if app.IsInteractive == nil {
		return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
	}
	return app.IsInteractive()
}

func (app *App) pickMode() (domain.TopicalMode, error) {
	if app.PickMode == nil {
		return pickModeForm()
	}
	return app.PickMode()
}

func (app *App) newSession(mode domain.TopicalMode) *session.Session {
	return session.New(app.NewOrchestrator(), session.WithMode(mode))
}

// archiveSession stores the conversation when archiving is enabled. Failures
// are logged; the conversation itself already happened.
func (app *App) archiveSession(ctx context.Context, sess *session.Session) {
	if app.Archive == nil || sess.Len() == 0 {
		return
	}
	if err := app.Archive.Save(ctx, sess.Transcript()); err != nil {
		app.logger().Warn("archiving transcript failed",
			zap.String("session_id", sess.ID()),
			zap.Error(err),
		)
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
