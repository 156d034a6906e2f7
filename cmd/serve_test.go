package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/store"
	"github.com/sells-group/factcheck/pkg/anthropic"
)

// unavailableAI always fails, so stage items error out and the run still
// terminates with a report.
type unavailableAI struct{}

func (unavailableAI) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return nil, errors.New("ai unavailable in test")
}

type emptySearcher struct{}

func (emptySearcher) Name() string { return "empty" }

func (emptySearcher) Search(context.Context, string) ([]model.Evidence, error) {
	return nil, nil
}

func testEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	cfg = &config.Config{}
	cfg.Anthropic.Model = "claude-haiku-4-5-20251001"
	cfg.Anthropic.MaxTokens = 512
	cfg.Pipeline.PrecedingSentences = 5
	cfg.Pipeline.FollowingSentences = 5
	cfg.Pipeline.MaxQueriesPerClaim = 3
	cfg.Pipeline.ResultsPerQuery = 5
	cfg.Pipeline.MaxEvidence = 20
	cfg.Pipeline.MaxRetries = 1
	cfg.Pipeline.MaxConcurrentClaims = 2
	cfg.Pipeline.StageConcurrency = 2

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "factcheck.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	return &pipelineEnv{Store: st, AI: unavailableAI{}, Searcher: emptySearcher{}}
}

func TestHealthEndpoint(t *testing.T) {
	router := newRouter(testEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCheckEndpointRejectsBadRequests(t *testing.T) {
	router := newRouter(testEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"answer":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required")
}

func TestCheckEndpointStreamsEvents(t *testing.T) {
	env := testEnv(t)
	router := newRouter(env)

	body := `{"question":"What is the capital of France?","answer":""}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	runID := rec.Header().Get("X-Run-ID")
	require.NotEmpty(t, runID)

	// An empty answer yields exactly one event: the final report.
	stream := rec.Body.String()
	assert.Contains(t, stream, "event: FactCheckReportGenerated\n")
	assert.Contains(t, stream, "No verifiable claims were found")
	assert.Equal(t, 1, strings.Count(stream, "event: "))

	// The run was persisted and completed.
	run, err := env.Store.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Report)
	assert.Zero(t, run.Report.ClaimsVerified)
}

func TestCheckEndpointStreamsStageErrors(t *testing.T) {
	router := newRouter(testEnv(t))

	body := `{"question":"q","answer":"Paris is the capital of France."}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	stream := rec.Body.String()
	// The sentence is announced, its selection fails, and the run still
	// produces a report.
	assert.Contains(t, stream, "event: ContextualSentenceAdded\n")
	assert.Contains(t, stream, "event: Error\n")
	assert.Contains(t, stream, `"scope":"stage"`)
	assert.Contains(t, stream, "event: FactCheckReportGenerated\n")
}

func TestRunsEndpoints(t *testing.T) {
	env := testEnv(t)
	router := newRouter(env)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	run, err := env.Store.CreateRun(context.Background(), model.CheckRequest{Question: "q", Answer: "a"})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+run.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
