package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"article-batch-service/internal/entity"
	"article-batch-service/internal/worker"
)

const (
	DefaultModel       = "claude-sonnet-4-20250514"
	DefaultMaxTokens   = 8000
	DefaultTemperature = 0.7
)

const articleSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Article headline"},
    "html":  {"type": "string", "description": "Article body as semantic HTML without <html> or <body> wrappers"}
  },
  "required": ["title", "html"],
  "additionalProperties": false
}`

const systemPrompt = `You are a senior content writer producing long-lived web articles for local businesses.
Write accurate, well structured content. Use <h2>/<h3> headings, short paragraphs and lists where they help.
Return only the requested JSON object.`

// Article is the payload stored on a completed job.
type Article struct {
	Topic    string `json:"topic"`
	Title    string `json:"title"`
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
	Model    string `json:"model"`
}

type LLMConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type promptFunc func(system, user, schema, apiKey string, settings types.RequestSettings) (string, error)

// LLM writes articles with the Anthropic API.
type LLM struct {
	cfg       LLMConfig
	prompt    promptFunc
	converter *md.Converter
}

func NewLLM(cfg LLMConfig) (*LLM, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &LLM{
		cfg:       cfg,
		prompt:    anthropicPrompt,
		converter: md.NewConverter("", true, nil),
	}, nil
}

func anthropicPrompt(system, user, schema, apiKey string, settings types.RequestSettings) (string, error) {
	resp, err := anthropic.PromptWithSettings(system, user, schema, apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errors.New("no content in response")
	}
	return resp.Content[0].Text, nil
}

func (g *LLM) Generate(ctx context.Context, topic string, params entity.GenerationParams, report worker.ProgressFunc) (json.RawMessage, error) {
	user := buildPrompt(topic, params)
	report(10)

	settings := types.RequestSettings{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	// The client call takes no context; on cancellation the call is abandoned.
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := g.prompt(systemPrompt, user, articleSchema, g.cfg.APIKey, settings)
		ch <- result{text, err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, fmt.Errorf("writer request failed: %w", res.err)
	}
	report(80)

	var out struct {
		Title string `json:"title"`
		HTML  string `json:"html"`
	}
	if err := json.Unmarshal([]byte(res.text), &out); err != nil {
		return nil, fmt.Errorf("parse writer response: %w", err)
	}
	if strings.TrimSpace(out.HTML) == "" {
		return nil, errors.New("writer returned an empty article")
	}

	markdown, err := g.converter.ConvertString(out.HTML)
	if err != nil {
		return nil, fmt.Errorf("convert article to markdown: %w", err)
	}

	payload, err := json.Marshal(Article{
		Topic:    topic,
		Title:    out.Title,
		HTML:     out.HTML,
		Markdown: markdown,
		Model:    g.cfg.Model,
	})
	if err != nil {
		return nil, err
	}
	report(100)
	return payload, nil
}

func buildPrompt(topic string, params entity.GenerationParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an article about: %s\n", topic)
	if params.Location != "" {
		fmt.Fprintf(&b, "Target audience location: %s. Mention it naturally where relevant.\n", params.Location)
	}
	if params.Tone != "" {
		fmt.Fprintf(&b, "Tone of voice: %s.\n", params.Tone)
	}

	q := params.Quality
	if q.LongForm {
		b.WriteString("Length: long form, around 2000 words.\n")
	} else {
		b.WriteString("Length: around 800 words.\n")
	}
	if q.SEOOptimized {
		b.WriteString("Optimize for search: descriptive headings, the topic keyword in the title and first paragraph.\n")
	}
	if q.IncludeFAQ {
		b.WriteString("End with an FAQ section of 3 to 5 questions.\n")
	}
	if q.IncludeSources {
		b.WriteString("Add a Sources section listing reputable references.\n")
	}
	return b.String()
}
