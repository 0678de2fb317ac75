package cmd

import (
	"log"

	"github.com/fairlens/fairlens/internal/logger"
	"github.com/fairlens/fairlens/internal/report"
	"github.com/fairlens/fairlens/internal/scoring"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var scoreCmd = &cobra.Command{
	Use:   "score <candidates-file>",
	Short: "Score and rank a batch of candidates",
	Long: "Score candidates from a YAML file against the weighted criteria for a role\n" +
		"and print the ranking. The file may name the role itself, or it can be\n" +
		"overridden with --role.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		score(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("role", "r", "", "role profile to score against (technical, executive, operational)")
	scoreCmd.Flags().BoolP("output-json", "o", false, "print scores as json instead of a report")
}

func score(cmd *cobra.Command, args []string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	if err := scoring.ValidateTables(); err != nil {
		logger.Fatal("validating weight tables", zap.Error(err))
	}

	file, err := loadCandidateFile(args[0])
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err))
	}

	role := scoring.Role(file.Role)
	if flagged := cmd.Flag("role").Value.String(); flagged != "" {
		role = scoring.Role(flagged)
	}

	ranking, err := scoring.ScoreBatch(role, file.toBatch())
	if err != nil {
		logger.Fatal("scoring candidates", zap.Error(err))
	}

	logger.Info("scoring finished",
		zap.String("role", string(role)),
		zap.Int("candidates", len(ranking)),
	)

	if cmd.Flag("output-json").Value.String() == "true" {
		if err := printJSON(ranking); err != nil {
			logger.Fatal("printing scores", zap.Error(err))
		}
		return
	}

	cmd.Println(report.Render(report.Artifacts{Ranking: ranking}))
}
