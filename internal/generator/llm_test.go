package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aktagon/llmkit/anthropic/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-batch-service/internal/entity"
)

func newTestLLM(t *testing.T, fn promptFunc) *LLM {
	t.Helper()
	g, err := NewLLM(LLMConfig{APIKey: "test-key"})
	require.NoError(t, err)
	g.prompt = fn
	return g
}

func TestNewLLM_RequiresKey(t *testing.T) {
	_, err := NewLLM(LLMConfig{})
	assert.Error(t, err)
}

func TestLLM_Generate(t *testing.T) {
	var gotUser, gotSchema string
	var gotSettings types.RequestSettings
	g := newTestLLM(t, func(system, user, schema, apiKey string, settings types.RequestSettings) (string, error) {
		gotUser, gotSchema, gotSettings = user, schema, settings
		assert.Equal(t, "test-key", apiKey)
		return `{"title":"Fixing a Leaky Faucet","html":"<h2>Tools</h2><p>You need a <strong>wrench</strong>.</p>"}`, nil
	})

	var reports []int
	params := entity.GenerationParams{
		Location: "Denver",
		Tone:     "friendly",
		Quality:  entity.QualityFlags{IncludeFAQ: true, SEOOptimized: true},
	}
	payload, err := g.Generate(context.Background(), "Leaky faucets", params, func(p int) { reports = append(reports, p) })
	require.NoError(t, err)

	assert.Equal(t, []int{10, 80, 100}, reports)
	assert.Contains(t, gotUser, "Leaky faucets")
	assert.Contains(t, gotUser, "Denver")
	assert.Contains(t, gotUser, "friendly")
	assert.Contains(t, gotUser, "FAQ")
	assert.NotContains(t, gotUser, "Sources")
	assert.Contains(t, gotSchema, `"html"`)
	assert.Equal(t, DefaultModel, gotSettings.Model)
	assert.Equal(t, DefaultMaxTokens, gotSettings.MaxTokens)

	var a Article
	require.NoError(t, json.Unmarshal(payload, &a))
	assert.Equal(t, "Leaky faucets", a.Topic)
	assert.Equal(t, "Fixing a Leaky Faucet", a.Title)
	assert.Contains(t, a.Markdown, "## Tools")
	assert.Contains(t, a.Markdown, "**wrench**")
	assert.Equal(t, DefaultModel, a.Model)
}

func TestLLM_GenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		err     error
		wantErr string
	}{
		{name: "api error", err: errors.New("overloaded"), wantErr: "overloaded"},
		{name: "not json", resp: "Sure! Here is your article", wantErr: "parse writer response"},
		{name: "empty html", resp: `{"title":"x","html":"  "}`, wantErr: "empty article"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestLLM(t, func(string, string, string, string, types.RequestSettings) (string, error) {
				return tt.resp, tt.err
			})
			_, err := g.Generate(context.Background(), "t", entity.GenerationParams{}, func(int) {})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLLM_GenerateCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	g := newTestLLM(t, func(string, string, string, string, types.RequestSettings) (string, error) {
		<-block
		return "", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "t", entity.GenerationParams{}, func(int) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildPrompt_LongFormAndSources(t *testing.T) {
	p := buildPrompt("Heat pumps", entity.GenerationParams{Quality: entity.QualityFlags{LongForm: true, IncludeSources: true}})
	assert.True(t, strings.HasPrefix(p, "Write an article about: Heat pumps"))
	assert.Contains(t, p, "2000 words")
	assert.Contains(t, p, "Sources")
	assert.NotContains(t, p, "location")
}
