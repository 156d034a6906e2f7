package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentenceTexts(t *testing.T, question, answer string, window ContextWindow) []string {
	t.Helper()
	items := SplitSentences(question, answer, window)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.OriginalSentence)
	}
	return out
}

func TestSplitSentencesBasic(t *testing.T) {
	answer := "Paris is the capital of France. It has over two million residents. The Seine flows through it."
	got := sentenceTexts(t, "Tell me about Paris.", answer, ContextWindow{Preceding: 5, Following: 5})
	assert.Equal(t, []string{
		"Paris is the capital of France.",
		"It has over two million residents.",
		"The Seine flows through it.",
	}, got)
}

func TestSplitSentencesEmptyAnswer(t *testing.T) {
	assert.Empty(t, SplitSentences("q", "", ContextWindow{Preceding: 5, Following: 5}))
	assert.Empty(t, SplitSentences("q", "   \n\n  ", ContextWindow{Preceding: 5, Following: 5}))
}

func TestSplitSentencesParagraphsFirst(t *testing.T) {
	answer := "First paragraph sentence\nSecond paragraph. With two sentences."
	got := sentenceTexts(t, "q", answer, ContextWindow{})
	assert.Equal(t, []string{
		"First paragraph sentence",
		"Second paragraph.",
		"With two sentences.",
	}, got)
}

func TestSplitSentencesDecimalsAndAbbreviations(t *testing.T) {
	answer := "The U.S. economy grew 3.5 percent last year. Dr. Smith disagreed with the figure."
	got := sentenceTexts(t, "q", answer, ContextWindow{})
	assert.Equal(t, []string{
		"The U.S. economy grew 3.5 percent last year.",
		"Dr. Smith disagreed with the figure.",
	}, got)
}

func TestSplitSentencesQuotesAndBrackets(t *testing.T) {
	answer := `He said "it works." Then he left (quickly.) The end came.`
	got := sentenceTexts(t, "q", answer, ContextWindow{})
	assert.Equal(t, []string{
		`He said "it works."`,
		"Then he left (quickly.)",
		"The end came.",
	}, got)
}

func TestSplitSentencesMergesShortFragments(t *testing.T) {
	answer := "No! Really quite bad. Yes! It improved later."
	got := sentenceTexts(t, "q", answer, ContextWindow{})
	assert.Equal(t, []string{
		"No! Really quite bad.",
		"Yes! It improved later.",
	}, got)
}

func TestSplitSentencesOriginalIndexIsSequential(t *testing.T) {
	answer := "One fact here. Two facts here. Three facts here."
	items := SplitSentences("q", answer, ContextWindow{Preceding: 5, Following: 5})
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, i, item.OriginalIndex)
		assert.Equal(t, "q", item.Question)
	}
}

func TestBuildContextWindow(t *testing.T) {
	answer := "S zero here. S one here. S two here. S three here. S four here."
	items := SplitSentences("What happened?", answer, ContextWindow{Preceding: 1, Following: 1})
	require.Len(t, items, 5)

	ctx := items[2].ContextForLLM
	assert.Contains(t, ctx, "Original Question: What happened?")
	assert.Contains(t, ctx, "[Preceding Sentences:]\nS one here.")
	assert.Contains(t, ctx, "[Sentence of Interest for current task:]\nS two here.")
	assert.Contains(t, ctx, "[Following Sentences:]\nS three here.")
	assert.NotContains(t, ctx, "S zero here.")
	assert.NotContains(t, ctx, "S four here.")
}

func TestBuildContextAtEdges(t *testing.T) {
	answer := "First sentence here. Second sentence here."
	items := SplitSentences("q", answer, ContextWindow{Preceding: 5, Following: 5})
	require.Len(t, items, 2)

	first := items[0].ContextForLLM
	assert.NotContains(t, first, "[Preceding Sentences:]")
	assert.Contains(t, first, "[Following Sentences:]")

	last := items[1].ContextForLLM
	assert.Contains(t, last, "[Preceding Sentences:]")
	assert.NotContains(t, last, "[Following Sentences:]")
}

func TestRemoveFollowingSentences(t *testing.T) {
	answer := "Alpha fact here. Beta fact here. Gamma fact here."
	items := SplitSentences("q", answer, ContextWindow{Preceding: 5, Following: 5})
	require.Len(t, items, 3)

	trimmed := removeFollowingSentences(items[0].ContextForLLM)
	assert.Contains(t, trimmed, "Alpha fact here.")
	assert.NotContains(t, trimmed, "[Following Sentences:]")
	assert.NotContains(t, trimmed, "Beta fact here.")
	assert.False(t, strings.HasSuffix(trimmed, "\n"))

	// Context without a following block passes through untouched.
	assert.Equal(t, items[2].ContextForLLM, removeFollowingSentences(items[2].ContextForLLM))
}
