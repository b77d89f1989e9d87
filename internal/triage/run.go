// Package triage orchestrates failure location, log trimming, prompt
// rendering, diagnosis, and emission for one workflow run.
package triage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kamilpajak/pinkman/internal/github"
	"github.com/kamilpajak/pinkman/internal/logtail"
	"github.com/kamilpajak/pinkman/internal/openrouter"
	"github.com/kamilpajak/pinkman/internal/prompt"
)

// Marker identifies the diagnosis block and the upserted PR comment.
const Marker = "<!-- pinkman:diagnosis -->"

// PlaceholderStep names the failed step when a failed job has none, for
// example a cancellation during setup before any step ran.
const PlaceholderStep = "unknown"

// FallbackDiagnosis replaces the model answer when the backend call fails.
// A backend outage degrades the output but never fails the run.
const FallbackDiagnosis = "Automatic diagnosis unavailable: the model backend request failed. " +
	"Check the OpenRouter API key and model id."

// Diagnoser produces a diagnosis for a rendered prompt.
type Diagnoser interface {
	Diagnose(ctx context.Context, prompt string) (string, error)
}

// Params configures a triage run.
type Params struct {
	Owner    string
	Repo     string
	RunID    int64
	Workflow string

	GitHub    *github.Client
	Diagnoser Diagnoser

	Template    string
	MaxLogLines int

	// PRNumber > 0 upserts the diagnosis block as a PR comment.
	PRNumber int

	// Out receives the emitted diagnosis block; Info receives progress
	// messages. Either may be nil.
	Out  io.Writer
	Info io.Writer
}

// Report describes one completed triage run.
type Report struct {
	// Found is false when the run had no failed job; nothing was fetched or
	// diagnosed in that case.
	Found bool

	Workflow   string
	JobName    string
	StepName   string
	Diagnosis  string
	TotalLines int
	KeptLines  int

	// Degraded marks a fallback diagnosis after a backend failure.
	Degraded bool
}

// Run executes the full pipeline in program order: list jobs, select the
// failure, fetch and trim the log, render the prompt, diagnose, emit. A run
// with no failed job is a successful no-op.
func Run(ctx context.Context, p Params) (*Report, error) {
	if err := prompt.Validate(p.Template); err != nil {
		return nil, err
	}

	infof(p.Info, "Listing jobs for %s/%s run %d...", p.Owner, p.Repo, p.RunID)
	jobs, err := p.GitHub.ListJobs(ctx, p.Owner, p.Repo, p.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	job := github.FirstFailedJob(jobs)
	if job == nil {
		infof(p.Info, "No failed job in run %d, nothing to analyze.", p.RunID)
		return &Report{Found: false, Workflow: p.Workflow}, nil
	}

	stepName := PlaceholderStep
	if step := github.FirstFailedStep(job); step != nil {
		stepName = step.Name
	}
	infof(p.Info, "Failed job: %s (step: %s)", job.Name, stepName)

	logText, err := p.GitHub.FetchJobLog(ctx, p.Owner, p.Repo, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job log: %w", err)
	}

	tail := logtail.Trim(logText, p.MaxLogLines)
	infof(p.Info, "Log: keeping last %d of %d lines.", tail.KeptLines, tail.TotalLines)

	rendered := prompt.Render(p.Template, prompt.Values{
		Log:          tail.Text,
		WorkflowName: p.Workflow,
		JobName:      job.Name,
		StepName:     stepName,
	})

	report := &Report{
		Found:      true,
		Workflow:   p.Workflow,
		JobName:    job.Name,
		StepName:   stepName,
		TotalLines: tail.TotalLines,
		KeptLines:  tail.KeptLines,
	}

	diagnosis, err := p.Diagnoser.Diagnose(ctx, rendered)
	if err != nil {
		var backendErr *openrouter.BackendError
		if errors.As(err, &backendErr) {
			infof(p.Info, "Model backend returned %s, emitting fallback diagnosis.", backendErr.Status)
		} else {
			infof(p.Info, "Model backend unreachable (%v), emitting fallback diagnosis.", err)
		}
		diagnosis = FallbackDiagnosis
		report.Degraded = true
	}
	report.Diagnosis = diagnosis

	block := FormatBlock(report)
	if p.Out != nil {
		fmt.Fprintln(p.Out, block)
	}

	if p.PRNumber > 0 {
		infof(p.Info, "Upserting diagnosis comment on PR #%d...", p.PRNumber)
		if err := p.GitHub.UpsertComment(ctx, p.Owner, p.Repo, p.PRNumber, Marker, block); err != nil {
			return nil, fmt.Errorf("failed to upsert PR comment: %w", err)
		}
	}

	return report, nil
}

func infof(w io.Writer, format string, args ...any) {
	if w != nil {
		fmt.Fprintf(w, format+"\n", args...)
	}
}
