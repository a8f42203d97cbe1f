package cmd

import (
	"log/slog"

	"confluence-mcp/server"
	"confluence-mcp/service"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON-RPC bridge over HTTP and WebSocket",
	PreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("host") {
			appConfig.APIHost, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			appConfig.APIPort, _ = cmd.Flags().GetInt("port")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		events := service.NewEvents()
		d := newDispatcher(appConfig, events)
		srv := server.New(appConfig, d, events, slog.Default())
		if err := srv.Serve(cmd.Context()); err != nil {
			return &ExitError{Code: ExitCodeFailure, Err: err}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides API_HOST)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides API_PORT)")
}
