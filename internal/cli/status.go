package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"article-batch-service/internal/batch"
)

const (
	tableFormat = "table"
	jsonFormat  = "json"
	yamlFormat  = "yaml"
)

var legalOutputTypes = []string{tableFormat, jsonFormat, yamlFormat}

type StatusOptions struct {
	GlobalOptions

	Output string
}

func DefaultStatusOptions() *StatusOptions {
	return &StatusOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Output:        tableFormat,
	}
}

func NewCmdStatus() *cobra.Command {
	o := DefaultStatusOptions()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored batch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *StatusOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *StatusOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	for _, t := range legalOutputTypes {
		if o.Output == t {
			return nil
		}
	}
	return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
}

type statusView struct {
	BatchID   string        `json:"batchId" yaml:"batch_id"`
	Outcome   batch.Outcome `json:"outcome" yaml:"outcome"`
	Total     int           `json:"total" yaml:"total"`
	Completed int           `json:"completed" yaml:"completed"`
	Failed    int           `json:"failed" yaml:"failed"`
	ETA       int           `json:"estimatedSecondsRemaining" yaml:"estimated_seconds_remaining"`
	Persisted string        `json:"lastPersistedAt" yaml:"last_persisted_at"`
}

func (o *StatusOptions) Run(ctx context.Context, out io.Writer) error {
	store, gw, err := o.Store()
	if err != nil {
		return err
	}
	defer gw.Close()

	snap, ok, err := store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if !ok || snap.IsEmpty() {
		fmt.Fprintln(out, "no batch")
		return nil
	}

	// a stored snapshot has no run loop attached
	snap.IsRunning = false
	snap.Progress = batch.Recompute(snap.Jobs, false)

	v := statusView{
		BatchID:   snap.BatchID,
		Outcome:   batch.Summarize(snap),
		Total:     snap.Progress.Total,
		Completed: snap.Progress.Completed,
		Failed:    snap.Progress.Failed,
		ETA:       snap.Progress.EstimatedSecondsRemaining,
		Persisted: snap.LastPersistedAt.Format(time.RFC3339),
	}

	switch o.Output {
	case jsonFormat:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case yamlFormat:
		return yaml.NewEncoder(out).Encode(v)
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "BATCH\tOUTCOME\tCOMPLETED\tFAILED\tTOTAL\tETA\n")
	fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%ds\n", v.BatchID, v.Outcome, v.Completed, v.Failed, v.Total, v.ETA)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "JOB\tTOPIC\tSTATUS\tRETRIES\tERROR\n")
	for _, j := range snap.Jobs {
		msg := ""
		if j.Error != nil {
			msg = *j.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", shortID(j.ID), j.Topic, j.Status, j.RetryCount, msg)
	}
	return w.Flush()
}
