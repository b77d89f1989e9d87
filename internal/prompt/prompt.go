// Package prompt renders the user-supplied diagnosis prompt template.
package prompt

import (
	"fmt"
	"strings"
)

// Placeholder tokens recognized in templates.
const (
	TokenLog          = "{{LOG}}"
	TokenWorkflowName = "{{WORKFLOW_NAME}}"
	TokenJobName      = "{{JOB_NAME}}"
	TokenStepName     = "{{STEP_NAME}}"
)

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = `A step in a GitHub Actions workflow has failed.

Workflow: {{WORKFLOW_NAME}}
Job: {{JOB_NAME}}
Step: {{STEP_NAME}}

Below is the tail of the failed job's log. Identify the most likely root
cause and suggest a concrete fix. Be concise and actionable.

Log:
{{LOG}}`

// Values holds the substitutions for one render.
type Values struct {
	Log          string
	WorkflowName string
	JobName      string
	StepName     string
}

// Validate rejects templates that cannot carry the log text. Called before
// any network activity.
func Validate(template string) error {
	if !strings.Contains(template, TokenLog) {
		return fmt.Errorf("prompt template must contain the %s placeholder", TokenLog)
	}
	return nil
}

// Render substitutes the recognized tokens with their values. Substitution is
// literal and single-pass: a substituted value is never re-scanned, so a log
// line that happens to contain a placeholder-looking token stays literal.
// Unrecognized tokens pass through untouched; the template is user-authored
// workflow configuration, not something to fail on.
func Render(template string, v Values) string {
	r := strings.NewReplacer(
		TokenLog, v.Log,
		TokenWorkflowName, v.WorkflowName,
		TokenJobName, v.JobName,
		TokenStepName, v.StepName,
	)
	return r.Replace(template)
}
