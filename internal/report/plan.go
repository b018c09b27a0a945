package report

import (
	"fmt"
	"strings"

	"github.com/autoresearch/autoresearch/internal/nlp"
	"github.com/autoresearch/autoresearch/internal/storage"
)

// section describes one planned report section: the heading it renders under
// and the word count the model is asked for.
type section struct {
	Key         string
	Title       string
	TargetWords int
}

var sectionPlan = []section{
	{"introduction", "Introduction", 220},
	{"background", "Background", 260},
	{"concepts", "Core Concepts", 320},
	{"architecture", "Architecture and Methods", 300},
	{"applications", "Applications", 260},
	{"limitations", "Limitations and Challenges", 200},
	{"conclusion", "Conclusion", 180},
}

func sectionPrompt(topic string, sec section, contextChunks []string) string {
	return fmt.Sprintf(`You are a research assistant writing one section of a technical report on the topic: %s

Write the "%s" section in roughly %d words. Base the section ONLY on the context below. Do not invent citations, do not repeat the section title, and do not mention the context itself.

Context:
%s

Section text:`, topic, sec.Title, sec.TargetWords, strings.Join(contextChunks, "\n---\n"))
}

func ieeePrompt(content string) string {
	return fmt.Sprintf(`You are a technical editor. Rewrite the following research report in IEEE paper format. Produce, in order: a title line, an Abstract of 150-250 words, an "Index Terms" line with 4-6 keywords, numbered sections (I. Introduction, II. ..., ending with a Conclusion), and a References section preserving every URL from the original. Keep all factual content; do not add new claims.

Report:
%s

IEEE formatted paper:`, content)
}

func answerPrompt(question, context string) string {
	return fmt.Sprintf(`You are a research assistant. Answer the question using ONLY the context below. If the context does not contain the answer, say so plainly.

Context:
%s

Question: %s

Answer:`, context, question)
}

// fallbackSection is used when the model fails or returns a stub: a short
// apology followed by the raw context so the report still carries the facts.
func fallbackSection(sec section, contextChunks []string) string {
	var b strings.Builder
	b.WriteString("The following source material is provided in place of a generated ")
	b.WriteString(sec.Title)
	b.WriteString(" section.\n\n")
	for _, chunk := range contextChunks {
		b.WriteString(chunk)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// fallbackIEEE wraps an existing report in a deterministic IEEE skeleton when
// the model cannot produce the transformation itself.
func fallbackIEEE(title, content string) string {
	abstract := nlp.TruncateRunes(content, 600)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", title)
	fmt.Fprintf(&b, "Abstract\n\n%s\n\n", strings.TrimSpace(abstract))
	b.WriteString("Index Terms\n\nresearch, survey, analysis\n\n")
	num := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			if !strings.HasPrefix(line, "##") {
				// Document title line, already at the top.
				continue
			}
			num++
			heading := strings.TrimSpace(strings.TrimLeft(line, "# "))
			fmt.Fprintf(&b, "%s. %s\n", romanNumeral(num), heading)
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

var romanDigits = []struct {
	value  int
	symbol string
}{
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func romanNumeral(n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for _, d := range romanDigits {
		for n >= d.value {
			b.WriteString(d.symbol)
			n -= d.value
		}
	}
	return b.String()
}

// contextWindow picks a rotating slice of chunks for section i so consecutive
// sections see different parts of the corpus. Chunk text is capped to keep
// prompts bounded.
func contextWindow(pool []storage.Chunk, i, size, maxChars int) []string {
	if len(pool) == 0 {
		return nil
	}
	if size <= 0 {
		size = 4
	}
	if size > len(pool) {
		size = len(pool)
	}
	start := (i * size) % len(pool)
	window := make([]string, 0, size)
	for j := 0; j < size; j++ {
		text := pool[(start+j)%len(pool)].Content
		if maxChars > 0 {
			text = nlp.TruncateRunes(text, maxChars)
		}
		window = append(window, text)
	}
	return window
}
