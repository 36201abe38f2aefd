package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rootfind/internal/server"
	"rootfind/internal/store"
)

var (
	serveAddr      string
	serveNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long: `Starts the HTTP service with the browser UI, the SSE and WebSocket
iteration streams and the run history.

Examples:
  rootfind serve                 # address from config (default :8080)
  rootfind serve --addr :9090
  rootfind serve --no-history    # keep runs in memory only`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "do not persist finished runs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	var history server.History
	if !serveNoHistory && cfg.History.Path != "" {
		st, err := store.Open(cfg.History.Path)
		if err != nil {
			printError("history disabled", err)
		} else {
			defer st.Close()
			history = st
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, log, history).Run(ctx)
}
