package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/events"
	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/pkg/anthropic"
)

const validationSystemPrompt = `You will be given a claim (which will be referred to as C). Your task is to determine whether C, in isolation, is a complete, declarative sentence.

Examples:
- "Sourcing materials from sustainable suppliers is an example of how companies are improving their sustainability practices" is a complete, declarative sentence.
- "Sourcing materials from sustainable suppliers" is missing a subject and a verb, so it is not a complete, declarative sentence.

Respond with a valid JSON object:
{"is_complete_declarative": <true|false>}`

const validationHumanPrompt = `Claim:
%s`

type validationOutput struct {
	IsCompleteDeclarative bool `json:"is_complete_declarative"`
}

// ValidationStage keeps only claims that are complete declarative sentences,
// and drops duplicates by exact claim text, first occurrence winning.
func ValidationStage(ctx context.Context, claims []model.PotentialClaim, ai anthropic.Client, cfg config.AnthropicConfig, concurrency int, sink events.Sink) []model.ValidatedClaim {
	if len(claims) == 0 {
		return nil
	}

	validated := mapConcurrent(ctx, claims, concurrency, func(ctx context.Context, claim model.PotentialClaim) (model.ValidatedClaim, bool) {
		prompt := fmt.Sprintf(validationHumanPrompt, claim.ClaimText)

		var out validationOutput
		if err := callForJSON(ctx, ai, cfg, "validation", validationSystemPrompt, prompt, &out); err != nil {
			zap.L().Warn("validation: claim failed",
				zap.String("claim", claim.ClaimText),
				zap.Error(err),
			)
			sink.Emit(model.NewErrorEvent(model.ScopeStage, "validation", err.Error()))
			return model.ValidatedClaim{}, false
		}

		if !out.IsCompleteDeclarative {
			zap.L().Debug("validation: not a complete declarative sentence",
				zap.String("claim", claim.ClaimText),
			)
			return model.ValidatedClaim{}, false
		}

		return model.ValidatedClaim{
			ClaimText:             claim.ClaimText,
			IsCompleteDeclarative: true,
			DisambiguatedSentence: claim.DisambiguatedSentence,
			OriginalSentence:      claim.OriginalSentence,
			OriginalIndex:         claim.OriginalIndex,
		}, true
	})

	// Deduplicate by claim text, first occurrence wins.
	seen := make(map[string]bool, len(validated))
	unique := validated[:0]
	for _, claim := range validated {
		if seen[claim.ClaimText] {
			zap.L().Debug("validation: duplicate claim dropped", zap.String("claim", claim.ClaimText))
			continue
		}
		seen[claim.ClaimText] = true
		unique = append(unique, claim)
		sink.Emit(model.NewValidatedClaimEvent(claim))
	}

	zap.L().Info("validation complete",
		zap.Int("validated", len(unique)),
		zap.Int("total", len(claims)),
	)
	return unique
}
