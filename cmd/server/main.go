package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/config"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/logging"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/server"
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Ability runtime configuration host",
	Long:          `Hosts an application's master configuration, adjudicates updates by precedence level and broadcasts accepted changes to ability stages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API and broadcast stream (default)",
	RunE:  runServe,
}

var serveFlags struct {
	port      string
	host      string
	bundleDir string
	logLevel  string
	dev       bool
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		f := cmd.Flags()
		f.StringVar(&serveFlags.port, "port", "", "Server port (overrides PORT)")
		f.StringVar(&serveFlags.host, "host", "", "Server host (overrides HOST)")
		f.StringVar(&serveFlags.bundleDir, "bundle-dir", "", "Module manifest directory (overrides BUNDLE_DIR)")
		f.StringVar(&serveFlags.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
		f.BoolVar(&serveFlags.dev, "dev", false, "Development logging")
	}
	rootCmd.AddCommand(serveCmd, replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveFlags.port != "" {
		cfg.Server.Port = serveFlags.port
	}
	if serveFlags.host != "" {
		cfg.Server.Host = serveFlags.host
	}
	if serveFlags.bundleDir != "" {
		cfg.Bundle.Dir = serveFlags.bundleDir
	}
	if serveFlags.logLevel != "" {
		cfg.Logging.Level = serveFlags.logLevel
	}
	if serveFlags.dev {
		cfg.Logging.Development = true
	}

	srv, err := server.NewServer(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Error during shutdown:", err)
		}
	}()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// newCLILogger builds the replay logger on the host's logging setup. Quiet
// runs log nothing so the report stays readable.
func newCLILogger(verbose bool, bundle string) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := logging.New(logging.Config{
		Level:       "debug",
		Development: true,
		Bundle:      bundle,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
