package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/kamilpajak/pinkman/internal/config"
	"github.com/kamilpajak/pinkman/internal/github"
	"github.com/kamilpajak/pinkman/internal/openrouter"
	"github.com/kamilpajak/pinkman/internal/triage"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version info set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	noComment  bool
)

var rootCmd = &cobra.Command{
	Use:   "pinkman",
	Short: "AI diagnosis for failed GitHub Actions runs",
	Long: `Pinkman inspects a completed workflow run, finds the first failed job and
step, tails the job log, and asks an LLM (via OpenRouter) for a diagnosis.

Configuration comes from the GitHub Actions environment (GITHUB_REPOSITORY,
GITHUB_RUN_ID, GITHUB_WORKFLOW, GITHUB_TOKEN) plus OPENROUTER_API_KEY and
OPENROUTER_MODEL. When the run belongs to a pull request, the diagnosis is
also upserted as a single marker-identified PR comment.`,
	SilenceUsage: true,
	RunE:         run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pinkman %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().BoolVar(&noComment, "no-comment", false, "Skip the PR comment upsert")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	prNumber := cfg.PRNumber
	if noComment {
		prNumber = 0
	}

	// On a terminal, spin instead of printing progress lines; in CI logs the
	// lines are the record.
	infoWriter := io.Writer(os.Stderr)
	var spin *spinner.Spinner
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = fmt.Sprintf(" triaging run %d...", cfg.RunID)
		spin.Start()
		infoWriter = io.Discard
	} else {
		color.NoColor = true
	}

	report, err := triage.Run(context.Background(), triage.Params{
		Owner:       cfg.Owner,
		Repo:        cfg.Repo,
		RunID:       cfg.RunID,
		Workflow:    cfg.Workflow,
		GitHub:      github.NewClient(cfg.GitHubToken, cfg.APIBaseURL),
		Diagnoser:   openrouter.NewClient(cfg.OpenRouterKey, cfg.Model, ""),
		Template:    cfg.Template,
		MaxLogLines: cfg.MaxLogLines,
		PRNumber:    prNumber,
		Out:         os.Stdout,
		Info:        infoWriter,
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if !report.Found {
		green := color.New(color.FgGreen)
		_, _ = green.Fprintln(os.Stderr, "No failed job found; nothing to analyze.")
		return nil
	}

	if report.Degraded {
		yellow := color.New(color.FgYellow)
		_, _ = yellow.Fprintln(os.Stderr, "Diagnosis degraded: the model backend call failed.")
	}

	return nil
}
