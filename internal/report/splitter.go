package report

import (
	"strings"

	"github.com/autoresearch/autoresearch/internal/storage"
)

// ParseSections splits markdown text into titled sections at heading lines.
// Text before the first heading becomes an "Overview" section. Sections whose
// body falls below minChars are dropped.
func ParseSections(content string, minChars int) []storage.ReportSection {
	var sections []storage.ReportSection
	title := "Overview"
	var body strings.Builder

	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if len(text) < minChars {
			return
		}
		sections = append(sections, storage.ReportSection{Title: title, Content: text})
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			flush()
			title = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	for i := range sections {
		sections[i].OrderIndex = i
	}
	return sections
}

// SplitReport parses the latest report into sections and replaces the stored
// section set. Splitting twice yields the same sections.
func (g *Generator) SplitReport(projectID int64) ([]storage.ReportSection, error) {
	report, err := g.store.LatestReport(projectID)
	if err != nil {
		return nil, err
	}

	sections := ParseSections(report.FullContent, g.cfg.Report.MinSectionChars)
	if err := g.store.ReplaceSections(report.ID, sections); err != nil {
		return nil, err
	}
	return g.store.ListSections(report.ID)
}
