package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/factcheck/internal/events"
	"github.com/sells-group/factcheck/internal/model"
)

var batchFile string

// batchInput is the YAML shape of a batch file: a list of question/answer
// pairs under a top-level "checks" key.
type batchInput struct {
	Checks []model.CheckRequest `yaml:"checks"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Fact-check a YAML file of question/answer pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input, err := loadBatchFile(batchFile)
		if err != nil {
			return err
		}
		if len(input.Checks) == 0 {
			return eris.Errorf("no checks found in %s", batchFile)
		}

		env, err := initEnv(ctx, "check")
		if err != nil {
			return err
		}
		defer env.Close()

		reports := make([]model.FactCheckReport, 0, len(input.Checks))
		for i, req := range input.Checks {
			run, err := env.Store.CreateRun(ctx, req)
			if err != nil {
				return eris.Wrap(err, "create run")
			}

			zap.L().Info("batch item started",
				zap.Int("item", i+1),
				zap.Int("total", len(input.Checks)),
				zap.String("run_id", run.ID),
			)

			report, err := env.NewPipeline(events.Discard).Run(ctx, run.ID, req)
			if err != nil {
				// A failed item is recorded against its run; the batch
				// carries on with the rest.
				zap.L().Error("batch item failed",
					zap.Int("item", i+1),
					zap.String("run_id", run.ID),
					zap.Error(err),
				)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			reports = append(reports, report)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	},
}

func loadBatchFile(path string) (*batchInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read batch file")
	}
	var input batchInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, eris.Wrap(err, "parse batch file")
	}
	return &input, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "YAML file with checks to run (required)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
