package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"confluence-mcp/config"
	"confluence-mcp/confluence"
	"confluence-mcp/rpc"
	"confluence-mcp/service"

	"github.com/spf13/cobra"
)

const (
	ExitCodeOK      = 0
	ExitCodeFailure = 1
	ExitCodeConfig  = 2
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

var (
	appConfig *config.Config
	stdin     io.Reader = os.Stdin
	stdout    io.Writer = os.Stdout
	stderr    io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:           "confluence-mcp",
	Short:         "Expand content into a Confluence page over line-delimited JSON-RPC",
	Long:          "Reads one JSON-RPC request per line from stdin, updates the configured Confluence page and writes one response per line to stdout.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("version") {
			printVersion(cmd)
			return nil
		}
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		configPath, _ := cmd.Flags().GetString("config")

		conf, err := config.Load(configPath)
		if err != nil {
			setupLogger(verbose, "")
			return &ExitError{Code: ExitCodeConfig, Err: err}
		}
		setupLogger(verbose, conf.LogLevel)
		if err := conf.Validate(); err != nil {
			var missing *config.MissingError
			if errors.As(err, &missing) {
				slog.Error("missing required environment variables", "missing", strings.Join(missing.Keys, ", "))
			}
			return &ExitError{Code: ExitCodeConfig, Err: err}
		}
		slog.Info("environment check passed", "page_id", conf.PageID, "timeout", conf.HTTPTimeout.String())
		appConfig = conf
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("version") {
			return nil
		}
		ctx := cmd.Context()
		slog.Info("starting stdio server")
		d := newDispatcher(appConfig, nil)
		if err := d.ServeStdio(ctx, stdin, stdout); err != nil {
			return &ExitError{Code: ExitCodeFailure, Err: err}
		}
		slog.Info("stdio server stopped")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (.env or .toml); defaults to ./.env when present")
	rootCmd.Flags().BoolP("version", "V", false, "print version information")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

// setupLogger installs a JSON slog handler on stderr; stdout carries protocol frames only.
func setupLogger(verbose bool, level string) {
	lvl := slog.LevelInfo
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl = slog.LevelInfo
		}
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
}

func newDispatcher(conf *config.Config, events *service.Events) *rpc.Dispatcher {
	client := confluence.NewClient(conf, confluence.WithLogger(slog.Default()))
	return rpc.NewDispatcher(client, events, slog.Default())
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) int {
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stderr)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			slog.Error("command failed", "err", exitErr.Err, "code", exitErr.Code)
			return exitErr.Code
		}
		fmt.Fprintln(stderr, "Error:", err)
		return ExitCodeFailure
	}
	return ExitCodeOK
}
