// Package config resolves and validates the run configuration from the
// hosting environment and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kamilpajak/pinkman/internal/prompt"
	"gopkg.in/yaml.v3"
)

const defaultMaxLogLines = 500

// Config is the validated run configuration. Immutable after Load.
type Config struct {
	Owner    string
	Repo     string
	RunID    int64
	Workflow string

	GitHubToken string
	APIBaseURL  string

	OpenRouterKey string
	Model         string
	Template      string
	MaxLogLines   int

	// PRNumber is zero when the run has no pull request context.
	PRNumber int
}

// fileConfig is the optional YAML file surface. Environment variables win
// over file values.
type fileConfig struct {
	Model          string `yaml:"model"`
	PromptTemplate string `yaml:"prompt_template"`
	MaxLogLines    int    `yaml:"max_log_lines"`
}

// Load reads configuration from the environment, merged over the optional
// YAML file at path (empty path skips the file), and validates everything.
// Any missing or invalid required value fails here, before any network call.
// Error messages name the offending variable and never echo secret values.
func Load(path string) (*Config, error) {
	var fc fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),
		APIBaseURL:    os.Getenv("GITHUB_API_URL"),
		Workflow:      os.Getenv("GITHUB_WORKFLOW"),
		OpenRouterKey: os.Getenv("OPENROUTER_API_KEY"),
		Model:         firstNonEmpty(os.Getenv("OPENROUTER_MODEL"), fc.Model),
		Template:      firstNonEmpty(os.Getenv("PROMPT_TEMPLATE"), fc.PromptTemplate, prompt.DefaultTemplate),
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}

	repo := os.Getenv("GITHUB_REPOSITORY")
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("GITHUB_REPOSITORY must be set in owner/repo form")
	}
	cfg.Owner, cfg.Repo = owner, name

	rawRunID := os.Getenv("GITHUB_RUN_ID")
	if rawRunID == "" {
		return nil, fmt.Errorf("GITHUB_RUN_ID is required")
	}
	runID, err := strconv.ParseInt(rawRunID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("GITHUB_RUN_ID must be numeric")
	}
	cfg.RunID = runID

	cfg.MaxLogLines = defaultMaxLogLines
	if raw := os.Getenv("MAX_LOG_LINES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_LOG_LINES must be a positive integer")
		}
		cfg.MaxLogLines = n
	} else if fc.MaxLogLines != 0 {
		if fc.MaxLogLines < 0 {
			return nil, fmt.Errorf("max_log_lines must be a positive integer")
		}
		cfg.MaxLogLines = fc.MaxLogLines
	}

	cfg.PRNumber = resolvePRNumber()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if c.Workflow == "" {
		return fmt.Errorf("GITHUB_WORKFLOW is required")
	}
	if c.OpenRouterKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.Model == "" {
		return fmt.Errorf("OPENROUTER_MODEL is required")
	}
	return prompt.Validate(c.Template)
}

// resolvePRNumber reads PR_NUMBER, falling back to the pull request ref form
// refs/pull/<n>/merge. Zero means no pull request context.
func resolvePRNumber() int {
	if raw := os.Getenv("PR_NUMBER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
		return 0
	}

	rest, ok := strings.CutPrefix(os.Getenv("GITHUB_REF"), "refs/pull/")
	if !ok {
		return 0
	}
	numStr, _, ok := strings.Cut(rest, "/")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
