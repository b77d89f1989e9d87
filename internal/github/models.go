package github

import (
	"encoding/json"
	"strings"
)

// Conclusion classifies the terminal outcome of a job or step.
type Conclusion string

const (
	ConclusionSuccess        Conclusion = "success"
	ConclusionFailure        Conclusion = "failure"
	ConclusionTimedOut       Conclusion = "timed_out"
	ConclusionCancelled      Conclusion = "cancelled"
	ConclusionActionRequired Conclusion = "action_required"
	ConclusionSkipped        Conclusion = "skipped"
	ConclusionNeutral        Conclusion = "neutral"

	// ConclusionNone means the job or step has not concluded (still running,
	// or never started). Never treated as a failure.
	ConclusionNone Conclusion = ""

	// ConclusionOther covers values the API may add that we don't know about.
	ConclusionOther Conclusion = "other"
)

// ParseConclusion normalizes a conclusion string from the API. Matching is
// case-insensitive; unknown values map to ConclusionOther.
func ParseConclusion(s string) Conclusion {
	switch c := Conclusion(strings.ToLower(s)); c {
	case ConclusionNone:
		return ConclusionNone
	case ConclusionSuccess, ConclusionFailure, ConclusionTimedOut,
		ConclusionCancelled, ConclusionActionRequired, ConclusionSkipped,
		ConclusionNeutral:
		return c
	default:
		return ConclusionOther
	}
}

// Failed reports whether the conclusion counts as a failure for triage.
func (c Conclusion) Failed() bool {
	switch c {
	case ConclusionFailure, ConclusionTimedOut, ConclusionCancelled, ConclusionActionRequired:
		return true
	default:
		return false
	}
}

// UnmarshalJSON accepts null and mixed-case conclusion strings.
func (c *Conclusion) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*c = ConclusionNone
		return nil
	}
	*c = ParseConclusion(*s)
	return nil
}

// Job represents a GitHub Actions job within a workflow run
type Job struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Conclusion Conclusion `json:"conclusion"`
	Steps      []Step     `json:"steps"`
}

// Step represents a single step within a job
type Step struct {
	Name       string     `json:"name"`
	Conclusion Conclusion `json:"conclusion"`
}

// Comment represents an issue comment, used for the diagnosis upsert
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// FirstFailedJob returns the first job in listing order whose conclusion is a
// failure, or nil when the run has nothing to triage.
func FirstFailedJob(jobs []Job) *Job {
	for i := range jobs {
		if jobs[i].Conclusion.Failed() {
			return &jobs[i]
		}
	}
	return nil
}

// FirstFailedStep returns the first failed step of a job in execution order,
// or nil when the job failed before any step did (e.g. cancellation during
// setup).
func FirstFailedStep(job *Job) *Step {
	for i := range job.Steps {
		if job.Steps[i].Conclusion.Failed() {
			return &job.Steps[i]
		}
	}
	return nil
}
