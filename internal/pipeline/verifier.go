package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/events"
	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/internal/search"
	"github.com/sells-group/factcheck/pkg/anthropic"
)

const queryGenerationSystemPrompt = `You are an expert search query generator for fact-checking claims. Your goal is to create diverse and effective search queries that will help retrieve evidence to verify a factual claim.

For each claim, generate up to %d search queries that:
1. Cover different angles and phrasings of the claim
2. Include key entities, names, and specific details from the claim
3. Are formulated to find both supporting AND refuting evidence
4. Are optimized for search engines (clear, specific, and without special characters)

Respond with a valid JSON object:
{"queries": ["<query>", ...]}`

const retryQueryGenerationSystemPrompt = `You are an expert search query generator for fact-checking claims.

A previous attempt to verify the claim resulted in "Insufficient Information".

Previous search queries:
%s

Reason why information was insufficient:
%s

Your goal is to generate up to %d NEW and IMPROVED search queries that might uncover the specific missing information described above.

Analyze what was missing from previous searches and craft queries that:
1. Target different aspects not covered by previous queries
2. Use alternative terms, phrasings, or sources
3. Are more specific where previous queries were too general
4. Directly address the gaps mentioned in the "Reason why information was insufficient"

Avoid repeating the same or similar queries that didn't yield sufficient information before.

Respond with a valid JSON object:
{"queries": ["<query>", ...]}`

const queryGenerationHumanPrompt = `Given the following factual claim, generate diverse and effective search engine queries to find supporting or refuting evidence.

Claim: "%s"`

const evidenceEvaluationSystemPrompt = `You are a meticulous fact-checking AI. Your task is to evaluate claims based ONLY on the evidence provided to you, not your prior knowledge.

You will assess if the evidence supports or refutes the claim, or if there's insufficient information to make a determination.

Follow these critical guidelines:
1. Base your verdict SOLELY on the evidence snippets provided
2. Do not use any knowledge not found in the evidence
3. Be aware of nuance, context, and logical connections
4. Recognize when evidence is insufficient for a conclusive judgment
5. Consider conflicting evidence carefully
6. Provide brief, clear reasoning for your verdict

Your verdict must be one of:
- Supported: The evidence strongly supports the claim.
- Refuted: The evidence strongly refutes the claim.
- Insufficient Information: The evidence provided is not sufficient to make a conclusive judgment.
- Conflicting Evidence: The evidence presents significant conflicting information regarding the claim.`

const evidenceEvaluationHumanPrompt = `Evaluate the provided claim based *only* on the supplied evidence snippets.

Claim:
"%s"

Evidence Snippets:
%s

Provide a concise reasoning for your verdict (1-2 sentences).
Also, list the 1-based indices of the Source(s) from the list above that were most influential in your decision. If no specific snippet was influential (e.g., for Insufficient Information), provide an empty list.

Respond with a valid JSON object:
{"verdict": "...", "reasoning": "...", "influential_source_indices": []}`

type queryGenerationOutput struct {
	Queries []string `json:"queries"`
}

type evidenceEvaluationOutput struct {
	Verdict                  string `json:"verdict"`
	Reasoning                string `json:"reasoning"`
	InfluentialSourceIndices []int  `json:"influential_source_indices"`
}

// Verifier checks a single claim against web evidence: generate queries,
// retrieve snippets, evaluate. When evidence is insufficient it regenerates
// queries informed by the previous attempt, up to MaxRetries extra rounds.
type Verifier struct {
	ai       anthropic.Client
	searcher search.Searcher
	cfg      config.Config
}

// NewVerifier creates a claim verifier.
func NewVerifier(ai anthropic.Client, searcher search.Searcher, cfg config.Config) *Verifier {
	return &Verifier{ai: ai, searcher: searcher, cfg: cfg}
}

// VerifyClaim runs the full verification loop for one claim. Evaluation
// failures yield an Insufficient Information verdict rather than an error so
// a flaky model cannot sink the batch; cancellation and a round where every
// search fails return an error and the claim surfaces as a claim-scoped
// failure instead of a verdict.
func (v *Verifier) VerifyClaim(ctx context.Context, claim model.ValidatedClaim, sink events.Sink) (model.Verdict, error) {
	maxRetries := v.cfg.Pipeline.MaxRetries

	var verdict model.Verdict
	var previousQueries []string

	for attempt := 0; ; attempt++ {
		queries, err := v.generateQueries(ctx, claim, attempt, previousQueries, verdict.Reasoning)
		if err != nil {
			return model.Verdict{}, err
		}
		for _, q := range queries {
			sink.Emit(model.NewQueryGeneratedEvent(claim.ClaimText, q))
		}
		previousQueries = queries

		evidence, err := v.retrieveEvidence(ctx, queries, sink, claim.ClaimText)
		if err != nil {
			return model.Verdict{}, err
		}

		verdict, err = v.evaluateEvidence(ctx, claim, evidence)
		if err != nil {
			return model.Verdict{}, err
		}

		if verdict.Result != model.ResultInsufficientInfo || attempt >= maxRetries {
			break
		}
		if ctx.Err() != nil {
			return model.Verdict{}, ctx.Err()
		}
		zap.L().Info("insufficient information, retrying with new queries",
			zap.String("claim", claim.ClaimText),
			zap.Int("attempt", attempt+2),
		)
	}

	sink.Emit(model.NewVerdictEvent(verdict))
	return verdict, nil
}

// generateQueries asks the LLM for search queries; on failure the claim text
// itself becomes the single query so retrieval can still proceed.
func (v *Verifier) generateQueries(ctx context.Context, claim model.ValidatedClaim, attempt int, previousQueries []string, previousReasoning string) ([]string, error) {
	maxQueries := v.cfg.Pipeline.MaxQueriesPerClaim

	system := fmt.Sprintf(queryGenerationSystemPrompt, maxQueries)
	if attempt > 0 {
		formatted := make([]string, 0, len(previousQueries))
		for i, q := range previousQueries {
			formatted = append(formatted, fmt.Sprintf("%d. %s", i+1, q))
		}
		reasoning := previousReasoning
		if reasoning == "" {
			reasoning = "No specific reasoning provided."
		}
		system = fmt.Sprintf(retryQueryGenerationSystemPrompt, strings.Join(formatted, "\n"), reasoning, maxQueries)
	}

	prompt := fmt.Sprintf(queryGenerationHumanPrompt, claim.ClaimText)

	var out queryGenerationOutput
	if err := callForJSON(ctx, v.ai, v.cfg.Anthropic, "query_generation", system, prompt, &out); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("query generation failed, falling back to claim text",
			zap.String("claim", claim.ClaimText),
			zap.Error(err),
		)
		return []string{claim.ClaimText}, nil
	}

	queries := make([]string, 0, maxQueries)
	for _, q := range out.Queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}
	if len(queries) == 0 {
		return []string{claim.ClaimText}, nil
	}
	return queries, nil
}

// retrieveEvidence fans out one search per query, merges the results with
// URL-level deduplication (first occurrence wins), and caps the pool at
// MaxEvidence snippets. Individual failed searches are logged and skipped;
// when every query fails the claim has no retrieval signal at all, so a
// SearchError is returned instead of an empty pool.
func (v *Verifier) retrieveEvidence(ctx context.Context, queries []string, sink events.Sink, claimText string) ([]model.Evidence, error) {
	type queryResult struct {
		index    int
		evidence []model.Evidence
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(queries))

	var mu sync.Mutex
	var results []queryResult
	var failures int
	var lastErr error

	for i, query := range queries {
		g.Go(func() error {
			evidence, err := v.searcher.Search(gCtx, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("evidence retrieval failed",
					zap.String("query", query),
					zap.Error(err),
				)
				failures++
				lastErr = err
				return nil
			}
			results = append(results, queryResult{index: i, evidence: evidence})
			return nil
		})
	}
	_ = g.Wait()

	if len(queries) > 0 && failures == len(queries) {
		return nil, resilience.NewSearchError(strings.Join(queries, "; "), lastErr)
	}

	// Restore query order so the merged pool is deterministic.
	ordered := make([][]model.Evidence, len(queries))
	for _, r := range results {
		ordered[r.index] = r.evidence
	}

	seen := make(map[string]bool)
	var pool []model.Evidence
	for _, evidence := range ordered {
		for _, e := range evidence {
			if e.URL == "" || seen[e.URL] {
				continue
			}
			seen[e.URL] = true
			pool = append(pool, e)
		}
	}

	if max := v.cfg.Pipeline.MaxEvidence; max > 0 && len(pool) > max {
		zap.L().Debug("capping evidence pool",
			zap.Int("retrieved", len(pool)),
			zap.Int("cap", max),
		)
		pool = pool[:max]
	}

	sink.Emit(model.NewEvidenceRetrievedEvent(claimText, pool))
	return pool, nil
}

// formatEvidenceSnippets renders the evidence pool as a numbered source list
// for the evaluation prompt.
func formatEvidenceSnippets(snippets []model.Evidence) string {
	if len(snippets) == 0 {
		return "No relevant evidence snippets were found."
	}

	formatted := make([]string, 0, len(snippets))
	for i, snippet := range snippets {
		var b strings.Builder
		fmt.Fprintf(&b, "Source %d: %s\n", i+1, snippet.URL)
		if snippet.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", snippet.Title)
		}
		fmt.Fprintf(&b, "Snippet: %s\n---", strings.TrimSpace(snippet.Text))
		formatted = append(formatted, b.String())
	}
	return strings.Join(formatted, "\n\n")
}

// evaluateEvidence asks the LLM for a verdict over the evidence pool.
// Invalid verdict strings and failed calls both collapse to Insufficient
// Information; cited source indices outside the pool are discarded.
func (v *Verifier) evaluateEvidence(ctx context.Context, claim model.ValidatedClaim, evidence []model.Evidence) (model.Verdict, error) {
	verdict := model.Verdict{
		ClaimText:             claim.ClaimText,
		DisambiguatedSentence: claim.DisambiguatedSentence,
		OriginalSentence:      claim.OriginalSentence,
		OriginalIndex:         claim.OriginalIndex,
	}

	prompt := fmt.Sprintf(evidenceEvaluationHumanPrompt, claim.ClaimText, formatEvidenceSnippets(evidence))

	var out evidenceEvaluationOutput
	if err := callForJSON(ctx, v.ai, v.cfg.Anthropic, "evidence_evaluation", evidenceEvaluationSystemPrompt, prompt, &out); err != nil {
		if ctx.Err() != nil {
			return model.Verdict{}, ctx.Err()
		}
		zap.L().Warn("evidence evaluation failed",
			zap.String("claim", claim.ClaimText),
			zap.Error(err),
		)
		verdict.Result = model.ResultInsufficientInfo
		verdict.Reasoning = "Failed to evaluate the evidence due to technical issues."
		return verdict, nil
	}

	result := model.VerificationResult(out.Verdict)
	if !model.ValidVerificationResult(result) {
		zap.L().Warn("invalid verdict from model, defaulting to insufficient information",
			zap.String("verdict", out.Verdict),
			zap.String("claim", claim.ClaimText),
		)
		result = model.ResultInsufficientInfo
	}

	var sources []model.Evidence
	for _, idx := range out.InfluentialSourceIndices {
		if idx >= 1 && idx <= len(evidence) {
			sources = append(sources, evidence[idx-1])
		} else {
			zap.L().Warn("invalid source index in verdict", zap.Int("index", idx))
		}
	}

	verdict.Result = result
	verdict.Reasoning = out.Reasoning
	verdict.Sources = sources
	return verdict, nil
}

// VerifyAll verifies claims concurrently with a bounded worker pool. A claim
// whose verification fails outright is excluded from the results after a
// claim-scoped error event; the others proceed.
func (v *Verifier) VerifyAll(ctx context.Context, claims []model.ValidatedClaim, sink events.Sink) []model.Verdict {
	if len(claims) == 0 {
		return nil
	}

	concurrency := v.cfg.Pipeline.MaxConcurrentClaims
	if concurrency <= 0 {
		concurrency = 5
	}

	verdicts := mapConcurrent(ctx, claims, concurrency, func(ctx context.Context, claim model.ValidatedClaim) (model.Verdict, bool) {
		verdict, err := v.VerifyClaim(ctx, claim, sink)
		if err != nil {
			zap.L().Error("claim verification failed",
				zap.String("claim", claim.ClaimText),
				zap.Error(err),
			)
			sink.Emit(model.NewErrorEvent(model.ScopeClaim, claim.ClaimText, err.Error()))
			return model.Verdict{}, false
		}
		return verdict, true
	})

	zap.L().Info("verification complete",
		zap.Int("verdicts", len(verdicts)),
		zap.Int("claims", len(claims)),
	)
	return verdicts
}
