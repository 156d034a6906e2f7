package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/db"
	"github.com/sells-group/factcheck/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, question, answer, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"update_run_status": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"update_run_report": `UPDATE runs SET report = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"fail_run":          `UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, question, answer, status, report, error, created_at, updated_at FROM runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used in tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	report     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_verdicts (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	claim          TEXT NOT NULL,
	result         TEXT NOT NULL,
	reasoning      TEXT,
	original_index INTEGER NOT NULL,
	sources        JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS evidence_sources (
	url        TEXT PRIMARY KEY,
	title      TEXT,
	last_seen  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_run_verdicts_run_id ON run_verdicts(run_id);
CREATE INDEX IF NOT EXISTS idx_run_verdicts_result ON run_verdicts(result);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, req model.CheckRequest) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, question, answer, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, req.Question, req.Answer, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Request:   req,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunReport(ctx context.Context, runID string, report *model.FactCheckReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET report = $1, status = $2, updated_at = $3 WHERE id = $4`,
		string(reportJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run report %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}

	// Verdict rows and source records are secondary to the report itself,
	// so their failures are logged rather than surfaced.
	if err := s.insertVerdicts(ctx, runID, report.VerifiedClaims); err != nil {
		zap.L().Warn("verdict insert failed", zap.String("run_id", runID), zap.Error(err))
	}
	if err := s.upsertSources(ctx, report.VerifiedClaims); err != nil {
		zap.L().Warn("source upsert failed", zap.String("run_id", runID), zap.Error(err))
	}
	return nil
}

// insertVerdicts bulk-writes per-claim rows for querying across runs.
func (s *PostgresStore) insertVerdicts(ctx context.Context, runID string, verdicts []model.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(verdicts))
	for _, v := range verdicts {
		sourcesJSON, err := json.Marshal(v.Sources)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal sources")
		}
		rows = append(rows, []any{
			uuid.New().String(), runID, v.ClaimText, string(v.Result), v.Reasoning, v.OriginalIndex, string(sourcesJSON),
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "run_verdicts",
		[]string{"id", "run_id", "claim", "result", "reasoning", "original_index", "sources"}, rows)
	return err
}

// upsertSources records every cited URL, keeping the latest title per URL.
func (s *PostgresStore) upsertSources(ctx context.Context, verdicts []model.Verdict) error {
	seen := make(map[string]bool)
	var rows [][]any
	now := time.Now().UTC()
	for _, v := range verdicts {
		for _, src := range v.Sources {
			if src.URL == "" || seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			rows = append(rows, []any{src.URL, src.Title, now})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "evidence_sources",
		Columns:      []string{"url", "title", "last_seen"},
		ConflictKeys: []string{"url"},
	}, rows)
	return err
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, question, answer, status, report, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	var r model.Run
	var reportJSON, errMsg *string
	err := row.Scan(&r.ID, &r.Request.Question, &r.Request.Answer, &r.Status, &reportJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	if reportJSON != nil && *reportJSON != "" {
		r.Report = &model.FactCheckReport{}
		if err := json.Unmarshal([]byte(*reportJSON), r.Report); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, question, answer, status, report, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	arg := 1

	if filter.Status != "" {
		query += ` AND status = $1`
		args = append(args, string(filter.Status))
		arg++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT $` + strconv.Itoa(arg)
	args = append(args, limit)
	arg++

	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(arg)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var reportJSON, errMsg *string
		if err := rows.Scan(&r.ID, &r.Request.Question, &r.Request.Answer, &r.Status, &reportJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if reportJSON != nil && *reportJSON != "" {
			r.Report = &model.FactCheckReport{}
			if err := json.Unmarshal([]byte(*reportJSON), r.Report); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal report")
			}
		}
		if errMsg != nil {
			r.Error = *errMsg
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
