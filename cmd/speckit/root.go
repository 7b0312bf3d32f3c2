package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"speckit/internal/gateway/app"
	"speckit/internal/gateway/config"
	"speckit/internal/gateway/logging"
)

var (
	storeKind string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "speckit",
	Short: "Spec-driven requirements assistant",
	Long: `speckit turns a feature idea into a specification, a checklist, technical
designs, test cases and a task list through a guided conversation.

Available commands:
  serve  - run the HTTP gateway
  chat   - talk to the workflow from the terminal
  seed   - export or import the system library as YAML`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "key-value backend (memory, file, postgres, sqlite, s3); defaults to KV_STORE")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "rotating log file; defaults to LOG_FILE")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig applies the persistent flags over the environment.
func loadConfig(port string) *config.Config {
	cfg := config.LoadEnv(port)
	if storeKind != "" {
		cfg.Store.Kind = storeKind
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	return cfg
}

// openApp wires the services without starting the server. Logs go to
// console, which may be nil.
func openApp(ctx context.Context, cfg *config.Config, console io.Writer) (*app.App, io.Closer, error) {
	closer := logging.Setup(cfg.LogFile, console)
	a, err := app.NewWithConfig(ctx, cfg)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return a, closer, nil
}
