package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/events"
	"github.com/sells-group/factcheck/internal/model"
)

var (
	checkQuestion string
	checkAnswer   string
	checkQuiet    bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fact-check a single question/answer pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "check")
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.CheckRequest{Question: checkQuestion, Answer: checkAnswer}
		run, err := env.Store.CreateRun(ctx, req)
		if err != nil {
			return eris.Wrap(err, "create run")
		}

		var sink events.Sink = events.Discard
		if !checkQuiet {
			sink = events.NewLocked(events.Func(func(ev model.Event) {
				fmt.Fprintln(os.Stderr, formatEvent(ev))
			}))
		}

		report, err := env.NewPipeline(sink).Run(ctx, run.ID, req)
		if err != nil {
			return eris.Wrap(err, "fact-check run")
		}

		zap.L().Info("fact-check complete",
			zap.String("run_id", run.ID),
			zap.Int("claims_verified", report.ClaimsVerified),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// formatEvent renders one progress event as a human-readable line.
func formatEvent(ev model.Event) string {
	switch data := ev.Data.(type) {
	case model.ContextualSentence:
		return fmt.Sprintf("[sentence %d] %s", data.OriginalIndex, data.OriginalSentence)
	case model.SelectedContent:
		return fmt.Sprintf("[selected] %s", data.ProcessedSentence)
	case model.DisambiguatedContent:
		return fmt.Sprintf("[disambiguated] %s", data.DisambiguatedSentence)
	case model.PotentialClaim:
		return fmt.Sprintf("[claim] %s", data.ClaimText)
	case model.ValidatedClaim:
		return fmt.Sprintf("[validated] %s", data.ClaimText)
	case model.QueryGenerated:
		return fmt.Sprintf("[query] %s: %s", data.ClaimText, data.Query)
	case model.EvidenceRetrieved:
		return fmt.Sprintf("[evidence] %s: %d snippets", data.ClaimText, len(data.Evidence))
	case model.Verdict:
		return fmt.Sprintf("[verdict] %s: %s", data.Result, data.ClaimText)
	case model.FactCheckReport:
		return fmt.Sprintf("[report] %s", data.Summary)
	case model.ErrorEvent:
		return fmt.Sprintf("[error:%s] %s", data.Scope, data.Message)
	default:
		return fmt.Sprintf("[%s]", ev.Type)
	}
}

func init() {
	checkCmd.Flags().StringVar(&checkQuestion, "question", "", "question the answer responds to (required)")
	checkCmd.Flags().StringVar(&checkAnswer, "answer", "", "answer text to fact-check (required)")
	checkCmd.Flags().BoolVar(&checkQuiet, "quiet", false, "suppress progress events on stderr")
	_ = checkCmd.MarkFlagRequired("question")
	_ = checkCmd.MarkFlagRequired("answer")
	rootCmd.AddCommand(checkCmd)
}
