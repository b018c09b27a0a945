package export

import (
	"bytes"
	"strings"
	"testing"
)

const sampleContent = "## Introduction\n\nThis report covers the topic in depth.\n\n## References\n\n1. https://example.com\n"

func TestFilenameUnique(t *testing.T) {
	a := Filename("pdf")
	b := Filename("pdf")

	if !strings.HasPrefix(a, "report_") || !strings.HasSuffix(a, ".pdf") {
		t.Errorf("Unexpected filename shape: %s", a)
	}
	if a == b {
		t.Error("Two filenames should never collide")
	}
	if strings.ContainsAny(a, "-/ ") {
		t.Errorf("Filename contains unsafe characters: %s", a)
	}
}

func TestWordProducesDocument(t *testing.T) {
	data, err := Word("Research Report: Test", sampleContent)
	if err != nil {
		t.Fatalf("Word failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Empty docx output")
	}
	// A .docx file is a zip archive.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("docx output is not a zip archive")
	}
}

func TestPDFProducesDocument(t *testing.T) {
	data, err := PDF("Research Report: Test", sampleContent)
	if err != nil {
		t.Fatalf("PDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("Output does not start with a PDF header")
	}
}

func TestPDFHandlesLongLines(t *testing.T) {
	long := strings.Repeat("x", 5000)
	data, err := PDF("Long", long)
	if err != nil {
		t.Fatalf("PDF failed on long line: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Empty pdf output")
	}
}

func TestExportEmptyContent(t *testing.T) {
	if _, err := Word("Empty", ""); err != nil {
		t.Errorf("Word failed on empty content: %v", err)
	}
	if _, err := PDF("Empty", ""); err != nil {
		t.Errorf("PDF failed on empty content: %v", err)
	}
}
