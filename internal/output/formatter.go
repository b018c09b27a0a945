// Package output formats CLI results as json, machine-readable text or
// human-readable text.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/autoresearch/autoresearch/internal/nlp"
	"github.com/autoresearch/autoresearch/internal/storage"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatHuman Format = "human"
)

type Formatter struct {
	format Format
	out    io.Writer
	err    io.Writer
}

// NewFormatter creates a new output formatter
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
		out:    os.Stdout,
		err:    os.Stderr,
	}
}

// NewFormatterWithWriters creates a formatter with custom output writers for testability
func NewFormatterWithWriters(format Format, out, errW io.Writer) *Formatter {
	return &Formatter{
		format: format,
		out:    out,
		err:    errW,
	}
}

// CrawlResult summarizes a finished crawl run
type CrawlResult struct {
	JobID      int64  `json:"job_id"`
	Status     string `json:"status"`
	PagesAdded int    `json:"pages_added"`
	Error      string `json:"error,omitempty"`
}

// OutputProjectList outputs a list of projects
func (f *Formatter) OutputProjectList(projects []storage.Project) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(projects)
	case FormatText:
		for _, p := range projects {
			fmt.Fprintf(f.out, "id=%d\ttitle=%s\tcreated=%s\n", p.ID, p.Title, formatTime(p.CreatedAt))
		}
		return nil
	case FormatHuman:
		if len(projects) == 0 {
			fmt.Fprintln(f.out, "No projects")
			return nil
		}
		for _, p := range projects {
			fmt.Fprintf(f.out, "[%d] %s\n", p.ID, p.Title)
			if p.Description != "" {
				fmt.Fprintf(f.out, "    %s\n", p.Description)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputSourceList outputs a project's sources
func (f *Formatter) OutputSourceList(sources []storage.Source) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(sources)
	case FormatText:
		for _, s := range sources {
			fmt.Fprintf(f.out, "id=%d\turl=%s\ttitle=%s\tchars=%d\n", s.ID, s.URL, s.Title, len(s.Content))
		}
		return nil
	case FormatHuman:
		if len(sources) == 0 {
			fmt.Fprintln(f.out, "No sources")
			return nil
		}
		for _, s := range sources {
			fmt.Fprintf(f.out, "[%d] %s\n", s.ID, s.URL)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputCrawlResult outputs the result of a crawl run
func (f *Formatter) OutputCrawlResult(result *CrawlResult) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(result)
	case FormatText:
		fmt.Fprintf(f.out, "job=%d\tstatus=%s\tpages=%d\n", result.JobID, result.Status, result.PagesAdded)
		return nil
	case FormatHuman:
		if result.Error != "" {
			fmt.Fprintf(f.out, "Crawl job %d failed: %s\n", result.JobID, result.Error)
			return nil
		}
		fmt.Fprintf(f.out, "Crawl job %d %s, %d pages stored\n", result.JobID, result.Status, result.PagesAdded)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputReport outputs a full report
func (f *Formatter) OutputReport(report *storage.Report) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(report)
	case FormatText:
		fmt.Fprintf(f.out, "id=%d\tstatus=%s\tprogress=%d\n", report.ID, report.Status, report.Progress)
		fmt.Fprintln(f.out, report.FullContent)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "%s (%s, %d%%)\n\n", report.Title, report.Status, report.Progress)
		fmt.Fprintln(f.out, report.FullContent)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputSectionList outputs a report's sections
func (f *Formatter) OutputSectionList(sections []storage.ReportSection) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(sections)
	case FormatText:
		for _, s := range sections {
			fmt.Fprintf(f.out, "order=%d\ttitle=%s\tchars=%d\n", s.OrderIndex, s.Title, len(s.Content))
		}
		return nil
	case FormatHuman:
		if len(sections) == 0 {
			fmt.Fprintln(f.out, "No sections")
			return nil
		}
		for _, s := range sections {
			fmt.Fprintf(f.out, "%d. %s\n", s.OrderIndex+1, s.Title)
			preview := s.Content
			if utf8.RuneCountInString(preview) > 120 {
				preview = nlp.TruncateRunes(preview, 120) + "..."
			}
			fmt.Fprintf(f.out, "   %s\n", strings.ReplaceAll(preview, "\n", " "))
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputAnswer outputs a question-answer pair
func (f *Formatter) OutputAnswer(question, answer string) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(map[string]string{
			"question": question,
			"answer":   answer,
		})
	case FormatText:
		fmt.Fprintf(f.out, "question=%s\n", question)
		fmt.Fprintf(f.out, "answer=%s\n", answer)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Q: %s\n\n%s\n", question, answer)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputError outputs an error message to stderr
func (f *Formatter) OutputError(err error) {
	switch f.format {
	case FormatJSON:
		json.NewEncoder(f.err).Encode(map[string]string{"error": err.Error()})
	default:
		fmt.Fprintf(f.err, "Error: %v\n", err)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ParseFormat validates a format string
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatText, FormatHuman:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format: %s (want json, text, or human)", s)
}
