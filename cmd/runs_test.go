package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/factcheck/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "run-a",
			Request:   model.CheckRequest{Question: "What is the capital of France?"},
			Status:    model.RunStatusComplete,
			Report:    &model.FactCheckReport{ClaimsVerified: 3},
			CreatedAt: created,
		},
		{
			ID:        "run-b",
			Request:   model.CheckRequest{Question: "Who wrote Hamlet?"},
			Status:    model.RunStatusFailed,
			CreatedAt: created,
		},
	}

	var sb strings.Builder
	formatRunsList(&sb, runs)
	out := sb.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "run-a")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "run-b")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "2026-03-14 09:30")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-ten", truncate("exactly-ten", 11))
	assert.Equal(t, "a long q...", truncate("a long question that keeps going", 11))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
