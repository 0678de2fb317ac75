package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fairlens/fairlens/internal/ai"
	"github.com/fairlens/fairlens/internal/ai/gemini"
	"github.com/fairlens/fairlens/internal/audit"
	"github.com/fairlens/fairlens/internal/bias"
	"github.com/fairlens/fairlens/internal/decision"
	"github.com/fairlens/fairlens/internal/logger"
	"github.com/fairlens/fairlens/internal/scoring"
	"github.com/fairlens/fairlens/internal/secrets"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// newScanner loads the catalogue (built-in or the configured override)
// and fails fast on a malformed one.
func newScanner(config *Config, log *zap.Logger) (*bias.Scanner, error) {
	var (
		catalog *bias.Catalog
		err     error
	)

	if config != nil && strings.TrimSpace(config.Catalog) != "" {
		catalog, err = bias.LoadCatalogFile(config.Catalog)
	} else {
		catalog, err = bias.LoadCatalog()
	}
	if err != nil {
		return nil, err
	}

	log.Debug("bias catalog loaded", zap.Int("categories", catalog.Len()))

	return bias.NewScanner(catalog, log), nil
}

func policyFromConfig(config *Config) decision.Policy {
	policy := decision.DefaultPolicy()
	if config == nil || config.Policy == nil {
		return policy
	}

	if config.Policy.ApproveThreshold > 0 {
		policy.ApproveThreshold = config.Policy.ApproveThreshold
	}
	if config.Policy.OnHighSeverity != "" {
		policy.OnHighSeverity = decision.Outcome(strings.ToUpper(config.Policy.OnHighSeverity))
	}

	return policy
}

func newAggregator(config *Config, scanner *bias.Scanner, log *zap.Logger) *audit.Aggregator {
	threshold := 0.0
	workers := 0
	if config != nil && config.Audit != nil {
		threshold = config.Audit.SystemicThreshold
		workers = config.Audit.Workers
	}
	return audit.NewAggregator(scanner, threshold, workers, log)
}

func advisorTimeout(config *Config) time.Duration {
	if config != nil && config.AI != nil && config.AI.TimeoutSeconds > 0 {
		return time.Duration(config.AI.TimeoutSeconds) * time.Second
	}
	return 0
}

// newGenerator builds the Gemini generator shared by the advisor and the
// analyst, following the configured provider.
func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*gemini.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("ai is not enabled in the configuration")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithAdvisorFields(log, "gemini", cfg.Gemini.Model)

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
}

// newAdvisor returns nil when AI is disabled: the decision engine then
// runs in rule-only mode.
func newAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Advisor, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	generator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	maxLogLen := 0
	if cfg.Gemini != nil {
		maxLogLen = cfg.Gemini.MaxLogLength
	}

	return gemini.NewAdvisor(generator, maxLogLen, logger.WithAdvisorFields(log, "gemini", generator.Model())), nil
}

// readInput returns the contents of the file argument, or stdin for "-"
// or no argument.
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

type candidateFile struct {
	Role       string           `mapstructure:"role"`
	Candidates []candidateEntry `mapstructure:"candidates"`
}

type candidateEntry struct {
	ID       string             `mapstructure:"id"`
	Criteria map[string]float64 `mapstructure:"criteria"`
}

// loadCandidateFile parses a YAML candidate batch. The YAML is decoded
// into a generic document first and then mapped onto the typed structure
// with weak typing, so integer sliders and floats both work.
func loadCandidateFile(path string) (*candidateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates file %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing candidates file %s: %w", path, err)
	}

	var file candidateFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &file,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding candidates file %s: %w", path, err)
	}

	return &file, nil
}

func (f *candidateFile) toBatch() []scoring.Candidate {
	batch := make([]scoring.Candidate, 0, len(f.Candidates))
	for _, entry := range f.Candidates {
		inputs := make(scoring.Inputs, len(entry.Criteria))
		for name, value := range entry.Criteria {
			inputs[scoring.Criterion(name)] = value
		}
		batch = append(batch, scoring.Candidate{ID: entry.ID, Inputs: inputs})
	}
	return batch
}

type batchFile struct {
	Items []string `mapstructure:"items"`
}

// loadBatchFile parses a YAML audit batch: either a bare list of texts
// or a document with an `items` key.
func loadBatchFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file %s: %w", path, err)
	}

	var bare []string
	if err := yaml.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing batch file %s: %w", path, err)
	}

	var file batchFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &file,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding batch file %s: %w", path, err)
	}

	return file.Items, nil
}

// printJSON writes an indented JSON rendering of v to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
