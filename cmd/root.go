package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "factcheck",
	Short: "LLM answer fact-checking pipeline",
	Long:  "Splits an LLM answer into sentences, extracts atomic factual claims, verifies each claim against retrieved web evidence, and produces a verdict report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
