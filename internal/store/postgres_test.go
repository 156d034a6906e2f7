package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factcheck/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresWithPool(mock), mock
}

func TestPostgres_CreateRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(pgxmock.AnyArg(), "q", "a", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.CheckRequest{Question: "q", Answer: "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE runs SET status").
		WithArgs("verifying", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunStatus(context.Background(), "run-1", model.RunStatusVerifying)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE runs SET status").
		WithArgs("verifying", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusVerifying)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPostgres_FailRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE runs SET status").
		WithArgs("failed", "llm unavailable", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailRun(context.Background(), "run-1", "llm unavailable")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	s, mock := newMockStore(t)

	report := `{"claims_verified":1,"summary":"done"}`
	rows := pgxmock.NewRows([]string{"id", "question", "answer", "status", "report", "error", "created_at", "updated_at"}).
		AddRow("run-1", "q", "a", model.RunStatusComplete, &report, (*string)(nil), testTime(), testTime())
	mock.ExpectQuery("SELECT id, question, answer").
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Report)
	assert.Equal(t, 1, run.Report.ClaimsVerified)
	assert.Empty(t, run.Error)
}

func TestPostgres_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "question", "answer", "status", "report", "error", "created_at", "updated_at"}).
		AddRow("run-1", "q", "a", model.RunStatusFailed, (*string)(nil), strPtr("boom"), testTime(), testTime())
	mock.ExpectQuery("SELECT id, question, answer").
		WithArgs("failed", 100).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "boom", runs[0].Error)
}

func TestPostgres_UpdateRunReport_WritesVerdicts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE runs SET report").
		WithArgs(pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCopyFrom(
		pgx.Identifier{"run_verdicts"},
		[]string{"id", "run_id", "claim", "result", "reasoning", "original_index", "sources"},
	).WillReturnResult(1)
	// evidence_sources upsert
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_evidence_sources"}, []string{"url", "title", "last_seen"}).WillReturnResult(1)
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	report := &model.FactCheckReport{
		ClaimsVerified: 1,
		VerifiedClaims: []model.Verdict{
			{
				ClaimText: "claim",
				Result:    model.ResultSupported,
				Sources:   []model.Evidence{{URL: "https://example.com", Title: "Example"}},
			},
		},
	}
	err := s.UpdateRunReport(context.Background(), "run-1", report)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ImplementsStore(t *testing.T) {
	var _ Store = (*PostgresStore)(nil)
}

func strPtr(s string) *string { return &s }

func testTime() time.Time {
	return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
}
