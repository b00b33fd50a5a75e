package cli

import (
	"fmt"

	"github.com/alexanderramin/agriadvisor/internal/server"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and WebSocket API",
		Long: `Serve the conversation API.

Endpoints:
  POST   /api/sessions                 start a session {"mode": "..."}
  GET    /api/sessions/{id}            session status
  PUT    /api/sessions/{id}/mode       switch mode {"mode": "..."}
  POST   /api/sessions/{id}/messages   ask {"text": "..."}
  GET    /api/sessions/{id}/messages   conversation history
  DELETE /api/sessions/{id}            end (and archive) a session
  GET    /ws/sessions/{id}             WebSocket chat
  GET    /metrics                      Prometheus metrics
  GET    /healthz                      liveness and remote reachability`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.config().Server.Addr
			}

			opts := []server.Option{server.WithLogger(app.logger())}
			if app.Archive != nil {
				opts = append(opts, server.WithArchive(app.Archive))
			}
			if app.Metrics != nil {
				opts = append(opts, server.WithMetrics(app.Metrics))
			}
			if app.RemoteProbe != nil {
				opts = append(opts, server.WithRemoteProbe(app.RemoteProbe))
			}
			srv := server.New(session.NewManager(app.NewOrchestrator), opts...)

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
