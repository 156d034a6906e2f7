package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/model"
)

// minFragmentLen is the shortest standalone sentence; anything shorter is a
// stray bullet marker or numbering and gets merged into the next sentence.
const minFragmentLen = 5

// ContextWindow controls how many neighboring sentences are included when
// building the excerpt shown to the LLM for a given sentence.
type ContextWindow struct {
	Preceding int
	Following int
}

// SplitSentences breaks the answer into sentences and attaches a context
// excerpt to each one. Paragraphs are split first so bullet lists and
// headings do not bleed into each other, then each paragraph is split on
// sentence boundaries.
func SplitSentences(question, answer string, window ContextWindow) []model.ContextualSentence {
	var raw []string
	for _, paragraph := range strings.Split(answer, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		raw = append(raw, splitParagraph(paragraph)...)
	}

	// Merge short fragments with the next sentence.
	var sentences []string
	for i := 0; i < len(raw); i++ {
		current := strings.TrimSpace(raw[i])
		for len(current) < minFragmentLen && i+1 < len(raw) {
			i++
			current += " " + strings.TrimSpace(raw[i])
		}
		if current != "" {
			sentences = append(sentences, current)
		}
	}

	contextual := make([]model.ContextualSentence, 0, len(sentences))
	for i, sentence := range sentences {
		contextual = append(contextual, model.ContextualSentence{
			OriginalSentence: sentence,
			ContextForLLM:    buildContext(question, sentences, i, window),
			Question:         question,
			OriginalIndex:    i,
		})
	}

	zap.L().Info("split answer into sentences", zap.Int("count", len(contextual)))
	return contextual
}

// buildContext assembles the excerpt for one sentence: the question, up to
// window.Preceding sentences before it, the sentence itself, and up to
// window.Following sentences after it.
func buildContext(question string, sentences []string, i int, window ContextWindow) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Original Question: %s", question))

	start := i - window.Preceding
	if start < 0 {
		start = 0
	}
	if start < i {
		parts = append(parts, "\n[Preceding Sentences:]")
		parts = append(parts, sentences[start:i]...)
	}

	parts = append(parts, fmt.Sprintf("\n[Sentence of Interest for current task:]\n%s", sentences[i]))

	end := i + 1 + window.Following
	if end > len(sentences) {
		end = len(sentences)
	}
	if i+1 < end {
		parts = append(parts, "\n[Following Sentences:]")
		parts = append(parts, sentences[i+1:end]...)
	}

	return strings.Join(parts, "\n")
}

// splitParagraph splits one paragraph on sentence-ending punctuation.
// A boundary is a '.', '!' or '?' (plus any closing quotes or brackets)
// followed by whitespace. Dotted abbreviations and decimal numbers do not
// end a sentence.
func splitParagraph(paragraph string) []string {
	var sentences []string
	runes := []rune(paragraph)
	start := 0

	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}

		// Decimal number like 3.14.
		if runes[i] == '.' && i+1 < len(runes) && isDigit(runes[i+1]) && i > 0 && isDigit(runes[i-1]) {
			continue
		}

		// Dotted abbreviation like U.S. or e.g.
		if runes[i] == '.' && isAbbreviation(runes, start, i) {
			continue
		}

		// Consume closing quotes and brackets after the terminator.
		end := i + 1
		for end < len(runes) && (runes[end] == '"' || runes[end] == '\'' || runes[end] == ')' || runes[end] == ']') {
			end++
		}

		// A boundary needs trailing whitespace or end of paragraph.
		if end < len(runes) && !isSpace(runes[end]) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[start:end]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = end
		i = end - 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isAbbreviation reports whether the period at pos ends a dotted
// abbreviation (single-letter runs like "U.S." or short forms like "vs.").
func isAbbreviation(runes []rune, start, pos int) bool {
	// Find the token containing this period.
	tokenStart := pos
	for tokenStart > start && !isSpace(runes[tokenStart-1]) {
		tokenStart--
	}
	token := string(runes[tokenStart : pos+1])

	// Single-letter dotted runs: "U.S.", "e.g.", "i.e.", "a.m.".
	letters := 0
	periods := 0
	for _, r := range token {
		if r == '.' {
			periods++
		} else {
			letters++
		}
	}
	if periods >= 1 && letters <= periods && len(token) <= 8 {
		// Keep the run attached unless it closes the paragraph.
		next := pos + 1
		for next < len(runes) && isSpace(runes[next]) {
			next++
		}
		return next < len(runes)
	}

	commonAbbrevs := map[string]bool{
		"vs.": true, "etc.": true, "Dr.": true, "Mr.": true, "Mrs.": true,
		"Ms.": true, "Prof.": true, "St.": true, "Jr.": true, "Sr.": true,
		"No.": true, "Inc.": true, "Ltd.": true, "Co.": true, "Corp.": true,
		"approx.": true,
	}
	return commonAbbrevs[token]
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
