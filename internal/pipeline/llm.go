package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/pkg/anthropic"
)

// usageMeter accumulates token usage across all of a run's LLM calls,
// including those made from stage worker goroutines.
type usageMeter struct {
	mu    sync.Mutex
	total anthropic.TokenUsage
}

func (m *usageMeter) record(u anthropic.TokenUsage) {
	m.mu.Lock()
	m.total.Add(u)
	m.mu.Unlock()
}

func (m *usageMeter) snapshot() anthropic.TokenUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

type usageMeterKey struct{}

// withUsageMeter attaches a meter to the context so every model call made
// during the run reports into it without threading it through each stage.
func withUsageMeter(ctx context.Context, m *usageMeter) context.Context {
	return context.WithValue(ctx, usageMeterKey{}, m)
}

func meterFrom(ctx context.Context) *usageMeter {
	m, _ := ctx.Value(usageMeterKey{}).(*usageMeter)
	return m
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// callForJSON sends a single-turn prompt and unmarshals the JSON object in
// the reply into out. Transient API failures are retried; terminal failures
// come back as a GenerationError for the given stage.
func callForJSON(ctx context.Context, ai anthropic.Client, cfg config.AnthropicConfig, stage, system, user string, out any) error {
	resp, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     cfg.Model,
			MaxTokens: int64(cfg.MaxTokens),
			System:    system,
			Messages: []anthropic.Message{
				{Role: "user", Content: user},
			},
		})
	})
	if err != nil {
		return resilience.NewGenerationError(stage, err)
	}
	if m := meterFrom(ctx); m != nil {
		m.record(resp.Usage)
	}

	text := cleanJSON(extractText(resp))
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return resilience.NewGenerationError(stage, err)
	}
	return nil
}
