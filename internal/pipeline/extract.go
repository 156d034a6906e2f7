package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

const defaultStageConcurrency = 8

// extractionHumanPrompt is the single-turn user message shared by the
// selection, disambiguation, and decomposition stages.
const extractionHumanPrompt = `Question:
%s
Excerpt:
%s
Sentence:
%s`

func formatExtractionPrompt(question, excerpt, sentence string) string {
	return fmt.Sprintf(extractionHumanPrompt, question, excerpt, sentence)
}

// removeFollowingSentences strips the trailing [Following Sentences:] section
// from a context excerpt. Later stages only see text up to the sentence of
// interest so the model cannot lean on content the reader has not produced yet.
func removeFollowingSentences(contextForLLM string) string {
	idx := strings.Index(contextForLLM, "\n[Following Sentences:]")
	if idx < 0 {
		return contextForLLM
	}
	return strings.TrimRight(contextForLLM[:idx], "\n")
}

// mapConcurrent runs fn over items with bounded concurrency and returns the
// successful results in input order. fn reports whether the item produced a
// result; errors are handled inside fn (log, emit, drop), so the group never
// aborts early on a single bad item.
func mapConcurrent[In any, Out any](ctx context.Context, items []In, concurrency int, fn func(ctx context.Context, item In) (Out, bool)) []Out {
	if concurrency <= 0 {
		concurrency = defaultStageConcurrency
	}

	type slot struct {
		value Out
		ok    bool
	}
	slots := make([]slot, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			value, ok := fn(gCtx, item)
			slots[i] = slot{value: value, ok: ok}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]Out, 0, len(items))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}
	return results
}
