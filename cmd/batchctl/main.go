package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"article-batch-service/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewBatchCtlCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func NewBatchCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batchctl [command] [flags]",
		Short: "batchctl runs article batches against a local database.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdRun())
	cmd.AddCommand(cli.NewCmdStatus())
	cmd.AddCommand(cli.NewCmdReset())
	return cmd
}
