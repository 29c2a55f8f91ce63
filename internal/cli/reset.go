package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type ResetOptions struct {
	GlobalOptions
}

func NewCmdReset() *cobra.Command {
	o := &ResetOptions{GlobalOptions: DefaultGlobalOptions()}
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the stored batch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ResetOptions) Run(ctx context.Context, out io.Writer) error {
	store, gw, err := o.Store()
	if err != nil {
		return err
	}
	defer gw.Close()

	if err := store.Purge(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "batch discarded")
	return nil
}
