// Package export renders reports as downloadable Word and PDF documents.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/google/uuid"
)

// Filename returns a unique download name with the given extension.
func Filename(ext string) string {
	return "report_" + strings.ReplaceAll(uuid.New().String(), "-", "") + "." + ext
}

// Word renders the report as a .docx document. Markdown headings become
// styled heading paragraphs, everything else is body text.
func Word(title, content string) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(title).Size("32").Bold()
	doc.AddParagraph()

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			doc.AddParagraph()
			continue
		}
		if strings.HasPrefix(line, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(line, "# "))
			doc.AddParagraph().AddText(heading).Size("28").Bold()
			continue
		}
		doc.AddParagraph().AddText(line).Size("22")
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}
