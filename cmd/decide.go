package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/fairlens/fairlens/internal/bias"
	"github.com/fairlens/fairlens/internal/decision"
	"github.com/fairlens/fairlens/internal/logger"
	"github.com/fairlens/fairlens/internal/report"
	"github.com/fairlens/fairlens/internal/scoring"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptExportReport = "Export report to file"
	PromptFlagDetails  = "Show flag details"
	PromptQuit         = "Quit"
)

var errExit = errors.New("exit requested")

var followupPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptExportReport, PromptFlagDetails, PromptQuit},
}

var decideCmd = &cobra.Command{
	Use:   "decide <candidates-file>",
	Short: "Score candidates and emit an auditable hiring decision",
	Long: "Score a batch of candidates, scan the hiring materials when given, and run\n" +
		"the decision policy for one candidate (the top-ranked one by default).\n" +
		"With AI enabled the decision carries an advisory note; otherwise it is\n" +
		"rule-only.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		decide(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().StringP("role", "r", "", "role profile to score against (technical, executive, operational)")
	decideCmd.Flags().StringP("candidate", "c", "", "candidate id to decide on (default is the top-ranked one)")
	decideCmd.Flags().StringP("materials", "m", "", "hiring materials file to scan for biased language")
	decideCmd.Flags().BoolP("auto-approve", "y", false, "print the report and exit without the follow-up prompt")
}

func decide(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
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

	if len(ranking) == 0 {
		logger.Fatal("no candidates in the batch")
	}

	subject := pickSubject(ranking, cmd.Flag("candidate").Value.String())
	if subject == nil {
		logger.Fatal("candidate not found in the batch",
			zap.String("candidate", cmd.Flag("candidate").Value.String()),
		)
	}

	flags, err := scanMaterials(config, cmd.Flag("materials").Value.String(), logger)
	if err != nil {
		logger.Fatal("scanning hiring materials", zap.Error(err))
	}

	advisor, err := newAdvisor(ctx, aiConfig(config), logger)
	if err != nil {
		logger.Warn("continuing without an advisor", zap.Error(err))
	}

	engine := decision.NewEngine(advisor, advisorTimeout(config), logger)

	result, err := engine.Decide(ctx, subject, flags, policyFromConfig(config))
	if err != nil {
		logger.Fatal("deciding", zap.Error(err))
	}

	logger.Info("decision recorded",
		zap.String("subject", result.Subject),
		zap.String("outcome", string(result.Outcome)),
		zap.Bool("degraded", result.Degraded),
	)

	rendered := report.Render(report.Artifacts{
		Ranking:  ranking,
		Flags:    flags,
		Decision: result,
	})
	cmd.Println(rendered)

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return
	}

	for {
		_, action, err := followupPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleFollowup(action, rendered, flags, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleFollowup(action, rendered string, flags []bias.Flag, logger *zap.Logger) error {
	switch action {
	case PromptExportReport:
		filename, err := dumpReport(rendered)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("report written", zap.String("filename", filename))
		return nil
	case PromptFlagDetails:
		if len(flags) == 0 {
			logger.Info("no flags to show")
			return nil
		}
		return printJSON(flags)
	case PromptQuit:
		logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func pickSubject(ranking []*scoring.CandidateScore, candidateID string) *scoring.CandidateScore {
	if candidateID == "" {
		return ranking[0]
	}
	for _, score := range ranking {
		if score.CandidateID == candidateID {
			return score
		}
	}
	return nil
}

func scanMaterials(config *Config, path string, logger *zap.Logger) ([]bias.Flag, error) {
	if path == "" {
		return nil, nil
	}

	scanner, err := newScanner(config, logger)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return scanner.Scan(string(data))
}

func aiConfig(config *Config) *AIConfig {
	if config == nil {
		return nil
	}
	return config.AI
}

func dumpReport(rendered string) (string, error) {
	f, err := os.CreateTemp("", app+"-report-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(rendered); err != nil {
		return "", err
	}

	return f.Name(), nil
}
