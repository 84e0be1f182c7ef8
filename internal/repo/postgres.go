/* SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
    "context"
    "errors"
    "time"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"

    "github.com/paulera/aging-wip-ui/internal/config"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, logger zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { logger.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()
    if err := pool.Ping(ctx2); err != nil { logger.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: logger}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, logger zerolog.Logger) *Repository { return &Repository{db: d, log: logger} }

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

// SaveBoardSnapshot stores the rendered column list for one refresh run.
func (r *Repository) SaveBoardSnapshot(ctx context.Context, runID int64, columnsJSON string) error {
    const q = `INSERT INTO board_snapshots(run_id, taken_at, columns) VALUES($1, now(), $2)`
    _, err := r.db.Pool.Exec(ctx, q, runID, columnsJSON)
    return err
}

// LatestBoardSnapshot returns the most recent rendered board, or empty when none exists.
func (r *Repository) LatestBoardSnapshot(ctx context.Context) (string, error) {
    const q = `SELECT columns::text FROM board_snapshots ORDER BY id DESC LIMIT 1`
    var out string
    err := r.db.Pool.QueryRow(ctx, q).Scan(&out)
    if errors.Is(err, pgx.ErrNoRows) { return "", nil }
    return out, err
}

// BulkInsertSLEs records the thresholds computed for one run, one row per status.
func (r *Repository) BulkInsertSLEs(ctx context.Context, runID int64, sles map[string][]int) error {
    if len(sles) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO sle_history(run_id, status_id, thresholds)
        VALUES($1,$2,$3)
        ON CONFLICT (run_id, status_id) DO UPDATE SET thresholds=EXCLUDED.thresholds`
    for status, thresholds := range sles { batch.Queue(q, runID, status, thresholds) }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range sles { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

type LastRun struct {
    StartedAt     time.Time  `json:"started_at"`
    FinishedAt    *time.Time `json:"finished_at"`
    IssuesScanned int        `json:"issues_scanned"`
    HistoryIssues int        `json:"history_issues"`
    EnrichFailed  int        `json:"enrich_failed"`
    Success       bool       `json:"success"`
    Error         string     `json:"error"`
}

func (r *Repository) StartJobRun(ctx context.Context) (int64, error) {
    const q = `INSERT INTO job_runs(started_at, success) VALUES(now(), false) RETURNING id`
    var id int64
    if err := r.db.Pool.QueryRow(ctx, q).Scan(&id); err != nil { return 0, err }
    return id, nil
}

func (r *Repository) FinishJobRun(ctx context.Context, id int64, issuesScanned, historyIssues, enrichFailed int, success bool, errStr string) error {
    const q = `UPDATE job_runs SET finished_at=now(), issues_scanned=$2, history_issues=$3, enrich_failed=$4, success=$5, error=$6 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, issuesScanned, historyIssues, enrichFailed, success, errStr)
    return err
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
    const q = `SELECT started_at, finished_at, coalesce(issues_scanned,0), coalesce(history_issues,0), coalesce(enrich_failed,0), coalesce(success,false), coalesce(error,'')
        FROM job_runs ORDER BY id DESC LIMIT 1`
    row := r.db.Pool.QueryRow(ctx, q)
    lr := &LastRun{}
    if err := row.Scan(&lr.StartedAt, &lr.FinishedAt, &lr.IssuesScanned, &lr.HistoryIssues, &lr.EnrichFailed, &lr.Success, &lr.Error); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
        return nil, err
    }
    return lr, nil
}
