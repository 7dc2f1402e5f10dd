package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/koscakluka/ema-helper/internal/console"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Serve a local wizard console",
	Long: `Serve the wizard console HTTP API in memory.

Endpoints:
  GET  /               service description
  POST /message        append a message to a session
  POST /log            record a pipeline event
  GET  /sessions       list session ids
  GET  /sessions/{id}  read a session's messages`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return fmt.Errorf("failed to read 'addr' flag: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := console.NewServer()
		errCh := make(chan error, 1)
		go func() { errCh <- server.Start(addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to shut down console: %w", err)
		}
		return <-errCh
	},
}

func init() {
	consoleCmd.Flags().String("addr", ":8000", "listen address")
}
