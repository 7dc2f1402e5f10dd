package commands

import (
	"os/signal"
	"syscall"

	"github.com/koscakluka/ema-helper/cmd/ema-helper/internal/overlay"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the assistant in the terminal",
	Long: `Run the assistant with a terminal stand-in for the floating overlay.

Keys:
  b       toggle the chat window
  space   start or stop listening
  esc     close the chat window
  q       quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return overlay.Run(ctx, cfg)
	},
}
