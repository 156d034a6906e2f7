package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/events"
	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/pkg/anthropic"
)

const selectionSystemPrompt = `You are an assistant to a fact-checker. You will be given a question, which was asked about a source text. You will also be given an excerpt from a response to the question. If it contains "[...]", this means that you are NOT seeing all sentences in the response. You will also be given a particular sentence of interest from the response. Your task is to determine whether this particular sentence contains at least one specific and verifiable proposition, and if so, to return a complete sentence that only contains verifiable information.

Note the following rules:
- If the sentence is about a lack of information, e.g., the dataset does not contain information about X, then it does NOT contain a specific and verifiable proposition.
- It does NOT matter whether the proposition is true or false.
- It does NOT matter whether the proposition is relevant to the question.
- It does NOT matter whether the proposition contains ambiguous terms, e.g., a pronoun without a clear antecedent. Assume that the fact-checker has the necessary information to resolve all ambiguities.
- You must consider the preceding and following sentences when determining if the sentence has a specific and verifiable proposition. A sentence that merely introduces or summarizes its neighbors does NOT contain one.

Examples of sentences that do NOT contain any specific and verifiable propositions:
- By prioritizing ethical considerations, companies can ensure that their innovations are not only groundbreaking but also socially responsible
- Technological progress should be inclusive
- AI could lead to advancements in healthcare

Examples of sentences that contain a specific and verifiable proposition and how to rewrite them to only include verifiable information:
- The partnership between Company X and Company Y illustrates the power of innovation -> "There is a partnership between Company X and Company Y"
- Smith's advocacy for renewable energy is crucial in addressing these challenges -> "Smith advocates for renewable energy"
- Jane emphasizes the importance of collaboration and perseverance -> remains unchanged

Respond with a valid JSON object:
{"processed_sentence": "<complete sentence with only verifiable information, or null>", "no_verifiable_claims": <true|false>, "remains_unchanged": <true|false>}`

type selectionOutput struct {
	ProcessedSentence  string `json:"processed_sentence"`
	NoVerifiableClaims bool   `json:"no_verifiable_claims"`
	RemainsUnchanged   bool   `json:"remains_unchanged"`
}

// SelectionStage filters sentences to those containing at least one specific
// and verifiable proposition, rewriting mixed sentences down to their
// verifiable content. Sentences that fail the LLM call are dropped with a
// stage-scoped error event; the rest of the batch is unaffected.
func SelectionStage(ctx context.Context, items []model.ContextualSentence, ai anthropic.Client, cfg config.AnthropicConfig, concurrency int, sink events.Sink) []model.SelectedContent {
	if len(items) == 0 {
		return nil
	}

	selected := mapConcurrent(ctx, items, concurrency, func(ctx context.Context, item model.ContextualSentence) (model.SelectedContent, bool) {
		prompt := formatExtractionPrompt(item.Question, item.ContextForLLM, item.OriginalSentence)

		var out selectionOutput
		if err := callForJSON(ctx, ai, cfg, "selection", selectionSystemPrompt, prompt, &out); err != nil {
			zap.L().Warn("selection: sentence failed",
				zap.String("sentence", item.OriginalSentence),
				zap.Error(err),
			)
			sink.Emit(model.NewErrorEvent(model.ScopeStage, "selection", err.Error()))
			return model.SelectedContent{}, false
		}

		if out.NoVerifiableClaims || strings.TrimSpace(out.ProcessedSentence) == "" {
			zap.L().Debug("selection: no verifiable claims", zap.String("sentence", item.OriginalSentence))
			return model.SelectedContent{}, false
		}

		processed := strings.TrimSpace(out.ProcessedSentence)
		if out.RemainsUnchanged {
			processed = item.OriginalSentence
		}

		content := model.SelectedContent{
			ProcessedSentence:   processed,
			OriginalContextItem: item,
		}
		sink.Emit(model.NewSelectedContentEvent(content))
		return content, true
	})

	zap.L().Info("selection complete",
		zap.Int("selected", len(selected)),
		zap.Int("total", len(items)),
	)
	return selected
}
