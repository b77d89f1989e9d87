package triage

import (
	"fmt"
	"strings"
)

// FormatBlock renders the emitted diagnosis block: the marker line, a header
// naming workflow, job and step, the diagnosis text, and a trailer accounting
// for the log window.
func FormatBlock(r *Report) string {
	var b strings.Builder

	b.WriteString(Marker + "\n")
	b.WriteString("## CI Failure Diagnosis\n\n")
	fmt.Fprintf(&b, "- workflow: %s\n", r.Workflow)
	fmt.Fprintf(&b, "- job: %s\n", r.JobName)
	fmt.Fprintf(&b, "- step: %s\n\n", r.StepName)

	b.WriteString(strings.TrimSpace(r.Diagnosis) + "\n\n")

	if r.KeptLines < r.TotalLines {
		fmt.Fprintf(&b, "---\nAnalyzed the last %d of %d log lines.\n", r.KeptLines, r.TotalLines)
	} else {
		fmt.Fprintf(&b, "---\nAnalyzed all %d log lines.\n", r.TotalLines)
	}

	return b.String()
}
