package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/autoresearch/autoresearch/internal/nlp"
)

// maxPDFLine bounds a single rendered line so a pathological unbroken string
// cannot blow up layout.
const maxPDFLine = 1000

// PDF renders the report as an A4 PDF: Times bold title, Times body, with
// headings slightly enlarged.
func PDF(title, content string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Times", "B", 16)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.Ln(4)

	for _, line := range strings.Split(content, "\n") {
		line = nlp.TruncateRunes(line, maxPDFLine)
		if strings.HasPrefix(line, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(line, "# "))
			pdf.Ln(2)
			pdf.SetFont("Times", "B", 13)
			pdf.MultiCell(0, 7, tr(heading), "", "L", false)
			pdf.SetFont("Times", "", 11)
			continue
		}
		pdf.SetFont("Times", "", 11)
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
