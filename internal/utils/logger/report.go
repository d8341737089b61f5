package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StringListReport collects one line per action taken during a run so
// the list can be persisted for later auditing.
type StringListReport struct {
	Title string
	Items []string

	mu sync.Mutex
}

// NewReport returns an empty report with the given title.
func NewReport(title string) *StringListReport {
	return &StringListReport{Title: title, Items: []string{}}
}

// Add appends a formatted line. A nil report discards the line.
func (r *StringListReport) Add(format string, args ...any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Items = append(r.Items, fmt.Sprintf(format, args...))
}

// Len returns the number of collected lines.
func (r *StringListReport) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Items)
}

// FileName returns the report file name derived from the title, e.g.
// report-import.txt.
func (r *StringListReport) FileName() string {
	title := r.Title
	if title == "" {
		title = "untitled"
	}
	// Replace spaces and special characters with underscores
	safeTitle := ""
	for _, c := range title {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			safeTitle += string(c)
		} else {
			safeTitle += "_"
		}
	}
	return fmt.Sprintf("report-%s.txt", safeTitle)
}

// WriteToDir appends the collected lines, followed by an empty line, to
// the report file under dir and clears the report.
func (r *StringListReport) WriteToDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reportFullPath := filepath.Join(dir, r.FileName())
	f, err := os.OpenFile(reportFullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	for _, item := range r.Items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return "", fmt.Errorf("writing to file: %w", err)
		}
	}
	if _, err := fmt.Fprintln(f); err != nil {
		return "", fmt.Errorf("writing new line to file: %w", err)
	}

	r.Items = []string{}
	return reportFullPath, nil
}
