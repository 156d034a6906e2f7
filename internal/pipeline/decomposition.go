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

const decompositionSystemPrompt = `You are an assistant for a group of fact-checkers. You will be given a question, which was asked about a source text. You will also be given an excerpt from a response to the question. If it contains "[...]", this means that you are NOT seeing all sentences in the response. You will also be given a particular sentence from the response. The text before this sentence will be referred to as "the context".

Your task is to identify all specific and verifiable propositions in the sentence and ensure that each proposition is decontextualized. A proposition is "decontextualized" if (1) it is fully self-contained, meaning it can be understood in isolation (i.e., without the question, the context, and the other propositions), AND (2) its meaning in isolation matches its meaning when interpreted alongside the question, the context, and the other propositions. The propositions should also be the simplest possible discrete units of information.

Note the following rules:
- Sometimes a specific and verifiable proposition is buried in a sentence that is mostly generic or unverifiable. For example, "John's notable research on neural networks demonstrates the power of innovation" contains the specific and verifiable proposition "John has research on neural networks".
- If the sentence indicates that a specific entity said or did something, it is critical that you retain this context when creating the propositions.
- If the context contains "[...]", we cannot see all preceding statements, so you should only assume the sentence is directly answering the question if this is strongly implied.
- Do NOT include any citations in the propositions.
- Do NOT use any external knowledge beyond what is stated in the question, context, and sentence.
- Each proposition must be fully self-contained as a complete sentence with all necessary context included. When information is implied by the question or context but not explicitly stated in the sentence, add this information in square brackets [...].

Examples of properly formatted propositions:
- "The [Boston] local council expects its law [banning plastic bags] to pass in January 2025"
- "Other agencies [besides the Department of Education and the Department of Defense] increased their deficit [relative to 2023]"

Respond with a valid JSON object:
{"claims": ["<proposition>", ...], "no_claims": <true|false>}`

type decompositionOutput struct {
	Claims   []string `json:"claims"`
	NoClaims bool     `json:"no_claims"`
}

// DecompositionStage breaks each disambiguated sentence into atomic,
// self-contained propositions. One sentence can yield many potential claims;
// each carries the lineage of the sentence it came from.
func DecompositionStage(ctx context.Context, items []model.DisambiguatedContent, ai anthropic.Client, cfg config.AnthropicConfig, concurrency int, sink events.Sink) []model.PotentialClaim {
	if len(items) == 0 {
		return nil
	}

	claimGroups := mapConcurrent(ctx, items, concurrency, func(ctx context.Context, item model.DisambiguatedContent) ([]model.PotentialClaim, bool) {
		contextItem := item.OriginalSelectedItem.OriginalContextItem
		excerpt := removeFollowingSentences(contextItem.ContextForLLM)
		prompt := formatExtractionPrompt(contextItem.Question, excerpt, item.DisambiguatedSentence)

		var out decompositionOutput
		if err := callForJSON(ctx, ai, cfg, "decomposition", decompositionSystemPrompt, prompt, &out); err != nil {
			zap.L().Warn("decomposition: sentence failed",
				zap.String("sentence", item.DisambiguatedSentence),
				zap.Error(err),
			)
			sink.Emit(model.NewErrorEvent(model.ScopeStage, "decomposition", err.Error()))
			return nil, false
		}

		if out.NoClaims || len(out.Claims) == 0 {
			zap.L().Debug("decomposition: no claims", zap.String("sentence", item.DisambiguatedSentence))
			return nil, false
		}

		claims := make([]model.PotentialClaim, 0, len(out.Claims))
		for _, text := range out.Claims {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			claim := model.PotentialClaim{
				ClaimText:             text,
				DisambiguatedSentence: item.DisambiguatedSentence,
				OriginalSentence:      contextItem.OriginalSentence,
				OriginalIndex:         contextItem.OriginalIndex,
			}
			claims = append(claims, claim)
			sink.Emit(model.NewPotentialClaimEvent(claim))
		}
		return claims, len(claims) > 0
	})

	var all []model.PotentialClaim
	for _, group := range claimGroups {
		all = append(all, group...)
	}

	zap.L().Info("decomposition complete",
		zap.Int("claims", len(all)),
		zap.Int("sentences", len(items)),
	)
	return all
}
