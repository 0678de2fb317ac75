package cmd

import (
	"context"
	"log"

	"github.com/fairlens/fairlens/internal/logger"
	"github.com/fairlens/fairlens/internal/report"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var auditCmd = &cobra.Command{
	Use:   "audit <batch-file>",
	Short: "Scan a batch of hiring materials for systemic bias",
	Long: "Scan every item in a YAML batch (a list of texts, or a document with an\n" +
		"'items' key) and report per-category frequencies. Categories appearing in\n" +
		"more than the configured share of items are marked systemic.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		auditBatch(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().BoolP("output-json", "o", false, "print the report as json")
}

func auditBatch(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	items, err := loadBatchFile(args[0])
	if err != nil {
		logger.Fatal("loading batch", zap.Error(err))
	}

	scanner, err := newScanner(config, logger)
	if err != nil {
		logger.Fatal("loading bias catalog", zap.Error(err))
	}

	result, err := newAggregator(config, scanner, logger).Audit(ctx, items)
	if err != nil {
		logger.Fatal("auditing batch", zap.Error(err))
	}

	logger.Info("audit finished",
		zap.Int("items", result.Items),
		zap.Int("flags", result.TotalFlags),
		zap.Int("systemic_categories", len(result.SystemicCategories())),
	)

	if cmd.Flag("output-json").Value.String() == "true" {
		if err := printJSON(result); err != nil {
			logger.Fatal("printing report", zap.Error(err))
		}
		return
	}

	cmd.Println(report.Render(report.Artifacts{Systemic: result}))
}
