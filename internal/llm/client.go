// Package llm wraps the OpenAI-compatible endpoint behind the engine's
// three external surfaces: draft generation, judging, and embeddings.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// #region config

// Config configures the client. BaseURL may point at any OpenAI-compatible
// endpoint.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	JudgeModel string
	EmbedModel string
	Timeout    time.Duration
}

// #endregion config

// #region client

// Client implements Generator, Judge, and Embedder over one connection.
type Client struct {
	api        *openai.Client
	model      string
	judgeModel string
	embedModel string
	timeout    time.Duration
}

// NewClient creates a Client from config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key missing")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	judgeModel := cfg.JudgeModel
	if judgeModel == "" {
		judgeModel = cfg.Model
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		api:        &client,
		model:      cfg.Model,
		judgeModel: judgeModel,
		embedModel: embedModel,
		timeout:    timeout,
	}, nil
}

// #endregion client

// #region generate

const generateSystem = "You write platform-compliant, suggestive-but-not-explicit short-video briefs. " +
	"Use tight hooks, concrete visual beats, clear CTAs. Avoid explicit terms. " +
	"Return ONLY JSON: an array of length N, each element with " +
	"{title,hook,beats,voiceover,caption,hashtags,cta}."

// Generate produces req.N drafts, spreading the batch across the arm's
// three temperature points so the schedule actually shapes the output.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]Draft, error) {
	if req.N <= 0 {
		req.N = 1
	}

	var drafts []Draft
	for _, part := range splitBatch(req.N, req.Temps) {
		batch, err := c.generateAt(ctx, req, part.n, part.temp)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, batch...)
	}
	return drafts, nil
}

type batchPart struct {
	n    int
	temp float64
}

// splitBatch assigns drafts to the low/mid/high temperature points,
// mid-heavy for remainders.
func splitBatch(n int, temps TempSchedule) []batchPart {
	per := n / 3
	parts := []batchPart{
		{n: per, temp: temps.Low},
		{n: per + n%3, temp: temps.Mid},
		{n: per, temp: temps.High},
	}
	var out []batchPart
	for _, p := range parts {
		if p.n > 0 {
			out = append(out, p)
		}
	}
	return out
}

func (c *Client) generateAt(ctx context.Context, req GenerateRequest, n int, temp float64) ([]Draft, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var refs strings.Builder
	for _, r := range req.References {
		fmt.Fprintf(&refs, "- %s\n", r)
	}
	user := fmt.Sprintf(`Persona: %s
Boundaries: %s
Content type: %s | Tone: %s | Duration: 15-25s
Reference snippets (inspire, don't copy):
%s
N = %d
JSON array ONLY.`, req.Persona, req.Boundaries, req.ContentType, req.Tone, refs.String(), n)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(generateSystem),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temp),
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("generate: empty choices")
	}

	drafts, err := extractDrafts(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return drafts, nil
}

// extractDrafts is lenient about models wrapping the JSON array in prose.
func extractDrafts(out string) ([]Draft, error) {
	start := strings.Index(out, "[")
	end := strings.LastIndex(out, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in response")
	}
	var drafts []Draft
	if err := json.Unmarshal([]byte(out[start:end+1]), &drafts); err != nil {
		return nil, fmt.Errorf("parse drafts: %w", err)
	}
	return drafts, nil
}

// #endregion generate
