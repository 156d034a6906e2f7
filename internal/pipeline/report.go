package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/pkg/anthropic"
)

const reportSummarySystemPrompt = `You write the closing summary of a fact-check report. You will be given the verdict for each checked claim.

Write a short prose summary (2-3 sentences) of the overall findings: how reliable the answer was, which claims held up, and which did not. Be neutral and precise. Do not invent information beyond the verdicts given. Respond with the summary text only.`

// BuildReport assembles the final report from the verdicts that survived
// verification. The summary is a plain counts line so callers can show it
// without parsing the verdict list.
func BuildReport(question, answer string, verdicts []model.Verdict) model.FactCheckReport {
	report := model.FactCheckReport{
		Question:       question,
		Answer:         answer,
		ClaimsVerified: len(verdicts),
		VerifiedClaims: verdicts,
		Timestamp:      time.Now().UTC(),
	}
	report.Summary = summarize(&report)
	return report
}

// summarizeWithModel asks the LLM for a prose summary of the verdicts. The
// caller falls back to the counts summary when this fails, so the report
// always closes with something.
func summarizeWithModel(ctx context.Context, ai anthropic.Client, cfg config.AnthropicConfig, report *model.FactCheckReport) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nVerdicts:\n", report.Question)
	for i, v := range report.VerifiedClaims {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, v.Result, v.ClaimText)
		if v.Reasoning != "" {
			fmt.Fprintf(&b, "   Reasoning: %s\n", v.Reasoning)
		}
	}

	resp, err := ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     cfg.Model,
		MaxTokens: int64(cfg.MaxTokens),
		System:    reportSummarySystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: b.String()},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "report: summary generation")
	}
	if m := meterFrom(ctx); m != nil {
		m.record(resp.Usage)
	}

	summary := strings.TrimSpace(extractText(resp))
	if summary == "" {
		return "", eris.New("report: empty summary from model")
	}
	return summary, nil
}

func summarize(report *model.FactCheckReport) string {
	if report.ClaimsVerified == 0 {
		return "Fact-check complete. No verifiable claims were found."
	}
	counts := report.CountByResult()
	return fmt.Sprintf(
		"Fact-check complete. Of %d claims verified: %d supported, %d refuted, %d with insufficient information, %d with conflicting evidence.",
		report.ClaimsVerified,
		counts[model.ResultSupported],
		counts[model.ResultRefuted],
		counts[model.ResultInsufficientInfo],
		counts[model.ResultConflictingEvidence],
	)
}
