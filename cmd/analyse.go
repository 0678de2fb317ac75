package cmd

import (
	"context"
	"log"

	"github.com/fairlens/fairlens/internal/ai/gemini"
	"github.com/fairlens/fairlens/internal/logger"
	"github.com/fairlens/fairlens/internal/report"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var analyseCmd = &cobra.Command{
	Use:   "analyse [file]",
	Short: "Extract a structured hiring problem analysis with the AI advisor",
	Long: "Send a free-form problem description to the configured AI provider and\n" +
		"print the extracted analysis (urgency, constraints, success goals, hidden\n" +
		"risks). Requires ai.enabled in the configuration.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyse(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyseCmd)

	analyseCmd.Flags().BoolP("output-json", "o", false, "print the analysis as json")
}

func analyse(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	problem, err := readInput(args)
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}

	cfg := aiConfig(config)
	generator, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building the ai generator", zap.Error(err))
	}

	maxLogLen := 0
	if cfg.Gemini != nil {
		maxLogLen = cfg.Gemini.MaxLogLength
	}

	analyst := gemini.NewAnalyst(generator, maxLogLen, logger)

	analysis, err := analyst.Analyse(ctx, problem)
	if err != nil {
		logger.Fatal("analysing the problem", zap.Error(err))
	}

	logger.Info("analysis finished", zap.String("urgency", analysis.Urgency))

	if cmd.Flag("output-json").Value.String() == "true" {
		if err := printJSON(analysis); err != nil {
			logger.Fatal("printing analysis", zap.Error(err))
		}
		return
	}

	cmd.Println(report.Render(report.Artifacts{
		ProblemText: problem,
		Analysis:    analysis,
	}))
}
