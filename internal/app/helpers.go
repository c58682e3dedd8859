package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ivdwatch.dev/ivdmon/internal/classify"
	"ivdwatch.dev/ivdmon/internal/cli"
	"ivdwatch.dev/ivdmon/internal/config"
	"ivdwatch.dev/ivdmon/internal/db"
	"ivdwatch.dev/ivdmon/internal/directory"
	"ivdwatch.dev/ivdmon/internal/ingest"
	"ivdwatch.dev/ivdmon/internal/logging"
	"ivdwatch.dev/ivdmon/internal/match"
)

func loadEnvAndConfig(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}

// buildComponents assembles the company directory, matcher and classifier
// from configuration. File-based overrides replace the embedded defaults.
func buildComponents(cfg *config.Config) (*directory.Directory, *match.Matcher, *classify.Classifier, error) {
	var (
		dir *directory.Directory
		err error
	)
	if strings.TrimSpace(cfg.CompaniesPath) != "" {
		dir, err = directory.Load(cfg.CompaniesPath)
	} else {
		dir, err = directory.Default()
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load company directory: %w", err)
	}

	matchCfg := match.Config{PartialCutoff: cfg.FuzzyCutoff}
	if strings.TrimSpace(cfg.MatcherRulesPath) != "" {
		fileCfg, err := match.LoadConfig(cfg.MatcherRulesPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if fileCfg.PartialCutoff > 0 {
			matchCfg.PartialCutoff = fileCfg.PartialCutoff
		}
		matchCfg.PatternOverrides = fileCfg.PatternOverrides
		matchCfg.BlacklistTerms = fileCfg.BlacklistTerms
	}

	var customRules *classify.CustomRules
	if strings.TrimSpace(cfg.RulesPath) != "" {
		customRules, err = classify.LoadCustomRules(cfg.RulesPath)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	classifier, err := classify.New(customRules)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build classifier: %w", err)
	}

	return dir, match.New(dir, matchCfg), classifier, nil
}

func connectStore(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *db.Pool, *ingest.Store, error) {
	cfg, logger, err := loadEnvAndConfig(envLoader)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	_, matcher, classifier, err := buildComponents(cfg)
	if err != nil {
		_ = pool.Close()
		cancel()
		return nil, nil, nil, nil, err
	}

	return ctx, cancel, pool, ingest.NewStore(pool, matcher, classifier, logger), nil
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func parseDayFlag(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", db.DatePart(trimmed)); err != nil {
		return "", fmt.Errorf("must be YYYY-MM-DD")
	}
	return db.DatePart(trimmed), nil
}

func parseOptionalDayFlag(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return parseDayFlag(raw)
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadJSONInput(inlineValue, filePath, label string) (json.RawMessage, error) {
	if path := strings.TrimSpace(filePath); path != "" {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s file %q: %w", label, path, err)
		}
		trimmed := strings.TrimSpace(string(payload))
		if trimmed == "" {
			return nil, fmt.Errorf("%s file %q is empty", label, path)
		}
		return json.RawMessage(trimmed), nil
	}

	trimmed := strings.TrimSpace(inlineValue)
	if trimmed == "" {
		return nil, fmt.Errorf("%s JSON is empty", label)
	}
	return json.RawMessage(trimmed), nil
}
