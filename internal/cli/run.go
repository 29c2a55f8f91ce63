package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"article-batch-service/internal/batch"
	"article-batch-service/internal/entity"
	"article-batch-service/internal/generator"
	"article-batch-service/internal/service"
	"article-batch-service/internal/worker"
)

type RunOptions struct {
	GlobalOptions

	File       string
	Generator  string
	APIKey     string
	Model      string
	Delay      time.Duration
	JobTimeout time.Duration
	StaleAfter time.Duration
}

func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Generator:     "dryrun",
		Model:         generator.DefaultModel,
		Delay:         500 * time.Millisecond,
		JobTimeout:    worker.DefaultJobTimeout,
		StaleAfter:    service.DefaultStaleAfter,
	}
}

func NewCmdRun() *cobra.Command {
	o := DefaultRunOptions()
	cmd := &cobra.Command{
		Use:   "run [-f batch.yaml]",
		Short: "Resume an interrupted batch, then run the batch described in a file.",
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

func (o *RunOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.File, "file", "f", o.File, "YAML file with topics, count and params")
	fs.StringVar(&o.Generator, "generator", o.Generator, "Article generator: dryrun or llm")
	fs.StringVar(&o.APIKey, "api-key", o.APIKey, "Anthropic API key (default $ANTHROPIC_API_KEY)")
	fs.StringVar(&o.Model, "model", o.Model, "Model used by the llm generator")
	fs.DurationVar(&o.Delay, "delay", o.Delay, "Duration of one dry-run job")
	fs.DurationVar(&o.JobTimeout, "job-timeout", o.JobTimeout, "Maximum duration of one job")
	fs.DurationVar(&o.StaleAfter, "stale-after", o.StaleAfter, "Interrupted batches older than this are discarded")
}

func (o *RunOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.APIKey == "" {
		o.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return nil
}

func (o *RunOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	switch o.Generator {
	case "dryrun":
	case "llm":
		if o.APIKey == "" {
			return errors.New("the llm generator needs --api-key or ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("unknown generator %q", o.Generator)
	}
	return nil
}

func (o *RunOptions) Run(ctx context.Context, w io.Writer) error {
	// the run loop prints through printSink while this goroutine prints too
	out := &lockedWriter{w: w}

	store, gw, err := o.Store()
	if err != nil {
		return err
	}
	defer gw.Close()

	gen, err := o.newGenerator()
	if err != nil {
		return err
	}

	orch := worker.NewOrchestrator(gen, store, &printSink{w: out}, worker.WithJobTimeout(o.JobTimeout))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Close(closeCtx)
	}()
	svc := service.NewBatchService(orch)

	plan, err := service.NewRecoveryLoader(store, orch, o.StaleAfter, time.Now).Recover(ctx)
	if err != nil {
		return err
	}
	if plan != nil {
		fmt.Fprintf(out, "resuming batch %s: %d unfinished jobs\n", plan.Snapshot.BatchID, len(plan.Jobs))
		h, err := svc.ResumePlan(ctx, plan)
		if err != nil {
			return err
		}
		if interrupted := o.wait(ctx, out, orch, h); interrupted {
			return nil
		}
		printSummary(out, orch.Snapshot())
	}

	if o.File == "" {
		if plan == nil {
			fmt.Fprintln(out, "nothing to resume")
		}
		return nil
	}

	req, err := loadRequest(o.File)
	if err != nil {
		return err
	}
	h, err := svc.StartBatch(ctx, service.StartBatchRequest{Topics: req.Topics, Count: req.Count, Params: req.Params})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "started batch %s: %d jobs\n", h.BatchID, len(h.JobIDs))
	if interrupted := o.wait(ctx, out, orch, h); interrupted {
		return nil
	}
	printSummary(out, orch.Snapshot())
	return nil
}

// wait blocks until the run loop exits. On interrupt it pauses the batch
// and lets the job in flight finish.
func (o *RunOptions) wait(ctx context.Context, out io.Writer, orch *worker.Orchestrator, h *worker.Handle) bool {
	select {
	case <-h.Done():
		return false
	case <-ctx.Done():
	}
	fmt.Fprintln(out, "interrupted: pausing after the current job")
	if err := orch.Pause(); err != nil {
		fmt.Fprintf(out, "pause: %v\n", err)
	}
	<-h.Done()
	fmt.Fprintln(out, "paused; run again to resume")
	return true
}

func (o *RunOptions) newGenerator() (worker.Generator, error) {
	if o.Generator == "llm" {
		return generator.NewLLM(generator.LLMConfig{
			APIKey:      o.APIKey,
			Model:       o.Model,
			MaxTokens:   generator.DefaultMaxTokens,
			Temperature: generator.DefaultTemperature,
		})
	}
	return generator.DryRun{Delay: o.Delay}, nil
}

func loadRequest(path string) (entity.BatchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.BatchRequest{}, err
	}
	var req entity.BatchRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return entity.BatchRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

func printSummary(out io.Writer, s entity.BatchSnapshot) {
	p := s.Progress
	fmt.Fprintf(out, "batch %s %s: %d completed, %d failed, %d total\n",
		s.BatchID, batch.Summarize(s), p.Completed, p.Failed, p.Total)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type printSink struct {
	w io.Writer
}

func (s *printSink) OnStart(id string) {
	fmt.Fprintf(s.w, "-> %s started\n", shortID(id))
}

func (s *printSink) OnProgress(string, int) {}

func (s *printSink) OnComplete(id string, _ json.RawMessage) {
	fmt.Fprintf(s.w, "ok %s completed\n", shortID(id))
}

func (s *printSink) OnError(id string, message string) {
	fmt.Fprintf(s.w, "!! %s failed: %s\n", shortID(id), message)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
