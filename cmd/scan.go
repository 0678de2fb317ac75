package cmd

import (
	"log"

	"github.com/fairlens/fairlens/internal/logger"
	"github.com/fairlens/fairlens/internal/report"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan hiring material for biased language",
	Long: "Scan a job posting, interview notes or any other hiring text for biased language.\n" +
		"Reads the given file, or stdin when the argument is omitted or '-'.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		scan(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolP("output-json", "o", false, "print flags as json instead of a report")
}

func scan(cmd *cobra.Command, args []string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	text, err := readInput(args)
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}

	scanner, err := newScanner(config, logger)
	if err != nil {
		logger.Fatal("loading bias catalog", zap.Error(err))
	}

	flags, err := scanner.Scan(text)
	if err != nil {
		logger.Fatal("scanning text", zap.Error(err))
	}

	logger.Info("scan finished", zap.Int("flags", len(flags)))

	if cmd.Flag("output-json").Value.String() == "true" {
		if err := printJSON(flags); err != nil {
			logger.Fatal("printing flags", zap.Error(err))
		}
		return
	}

	cmd.Println(report.Render(report.Artifacts{Flags: flags}))
}
