// Package logtail bounds raw CI log text to a tail window before it is sent
// to the model backend.
package logtail

import "strings"

// Result holds the retained tail plus line accounting for one Trim.
type Result struct {
	Text       string
	TotalLines int
	KeptLines  int
}

// Trim retains at most maxLines lines from the end of text, preserving their
// relative order. Text within the budget is returned unchanged. Both \n and
// \r\n count as line separators. maxLines must be positive; that is validated
// at the configuration boundary, not here.
func Trim(text string, maxLines int) Result {
	lines := splitLines(text)
	total := len(lines)

	if total <= maxLines {
		return Result{Text: text, TotalLines: total, KeptLines: total}
	}

	tail := lines[total-maxLines:]
	return Result{
		Text:       strings.Join(tail, "\n"),
		TotalLines: total,
		KeptLines:  maxLines,
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	// A trailing newline terminates the last line, it does not start a new one.
	normalized = strings.TrimSuffix(normalized, "\n")
	return strings.Split(normalized, "\n")
}
