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

const disambiguationSystemPrompt = `You are an assistant to a fact-checker. You will be given a question, which was asked about a source text. You will also be given an excerpt from a response to the question. If it contains "[...]", this means that you are NOT seeing all sentences in the response. You will also be given a particular sentence from the response. The text before this sentence will be referred to as "the context". Your task is to "decontextualize" the sentence, which means:
1. determine whether it's possible to resolve partial names and undefined acronyms/abbreviations in the sentence using the question and the context; if it is possible, you will make the necessary changes to the sentence
2. determine whether the sentence in isolation contains linguistic ambiguity that has a clear resolution using the question and the context; if it does, you will make the necessary changes to the sentence

Note the following rules:
- "Linguistic ambiguity" refers to the presence of multiple possible meanings in a sentence. Vagueness and generality are NOT linguistic ambiguity. Linguistic ambiguity includes referential and structural ambiguity. Temporal ambiguity is a type of referential ambiguity.
- If a name is only partially given in the sentence, but the full name is provided in the question or the context, the disambiguated sentence must always use the full name. The same rule applies to definitions for acronyms and abbreviations. However, the lack of a full name or a definition in the question and the context does NOT count as linguistic ambiguity; leave the name, acronym, or abbreviation as is.
- An ambiguity is resolvable only if a group of readers shown the question and the context would likely reach consensus about the correct interpretation. If they would fail to reach consensus about any ambiguity, the sentence cannot be disambiguated.
- Do NOT include any citations in the disambiguated sentence.
- Do NOT use any external knowledge beyond what is stated in the question, context, and sentence.

Respond with a valid JSON object:
{"disambiguated_sentence": "<fully decontextualized sentence, or null>", "cannot_be_disambiguated": <true|false>}`

type disambiguationOutput struct {
	DisambiguatedSentence string `json:"disambiguated_sentence"`
	CannotBeDisambiguated bool   `json:"cannot_be_disambiguated"`
}

// DisambiguationStage resolves pronouns, partial names, and ambiguous
// references in each selected sentence using the surrounding context.
// Sentences whose ambiguity has no consensus resolution are dropped.
// The following-sentences section is stripped from the excerpt so resolution
// relies only on what precedes the sentence.
func DisambiguationStage(ctx context.Context, items []model.SelectedContent, ai anthropic.Client, cfg config.AnthropicConfig, concurrency int, sink events.Sink) []model.DisambiguatedContent {
	if len(items) == 0 {
		return nil
	}

	disambiguated := mapConcurrent(ctx, items, concurrency, func(ctx context.Context, item model.SelectedContent) (model.DisambiguatedContent, bool) {
		excerpt := removeFollowingSentences(item.OriginalContextItem.ContextForLLM)
		prompt := formatExtractionPrompt(item.OriginalContextItem.Question, excerpt, item.ProcessedSentence)

		var out disambiguationOutput
		if err := callForJSON(ctx, ai, cfg, "disambiguation", disambiguationSystemPrompt, prompt, &out); err != nil {
			zap.L().Warn("disambiguation: sentence failed",
				zap.String("sentence", item.ProcessedSentence),
				zap.Error(err),
			)
			sink.Emit(model.NewErrorEvent(model.ScopeStage, "disambiguation", err.Error()))
			return model.DisambiguatedContent{}, false
		}

		if out.CannotBeDisambiguated || strings.TrimSpace(out.DisambiguatedSentence) == "" {
			zap.L().Debug("disambiguation: cannot be disambiguated",
				zap.String("sentence", item.ProcessedSentence),
			)
			return model.DisambiguatedContent{}, false
		}

		content := model.DisambiguatedContent{
			DisambiguatedSentence: strings.TrimSpace(out.DisambiguatedSentence),
			OriginalSelectedItem:  item,
		}
		sink.Emit(model.NewDisambiguatedContentEvent(content))
		return content, true
	})

	zap.L().Info("disambiguation complete",
		zap.Int("disambiguated", len(disambiguated)),
		zap.Int("total", len(items)),
	)
	return disambiguated
}
