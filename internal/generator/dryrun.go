package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"article-batch-service/internal/entity"
	"article-batch-service/internal/worker"
)

// FailPrefix marks topics the dry-run generator fails on.
const FailPrefix = "fail:"

// DryRun fakes article generation without calling any API.
type DryRun struct {
	Delay time.Duration
}

func (g DryRun) Generate(ctx context.Context, topic string, params entity.GenerationParams, report worker.ProgressFunc) (json.RawMessage, error) {
	half := g.Delay / 2
	if err := sleep(ctx, half); err != nil {
		return nil, err
	}
	report(50)
	if err := sleep(ctx, g.Delay-half); err != nil {
		return nil, err
	}

	if strings.HasPrefix(topic, FailPrefix) {
		return nil, errors.New("dry run failure for topic " + strings.TrimSpace(strings.TrimPrefix(topic, FailPrefix)))
	}

	title := topic
	if params.Location != "" {
		title = fmt.Sprintf("%s in %s", topic, params.Location)
	}
	payload, err := json.Marshal(Article{
		Topic:    topic,
		Title:    title,
		HTML:     "<h2>" + title + "</h2><p>Dry run.</p>",
		Markdown: "## " + title + "\n\nDry run.",
		Model:    "dryrun",
	})
	if err != nil {
		return nil, err
	}
	report(100)
	return payload, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
