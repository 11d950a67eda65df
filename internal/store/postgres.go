package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

// PostgresStore is the pgx backed Store used for shared deployments.
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock clock
}

// OpenPostgres creates a pgx pool, checks connectivity and runs migrations.
func OpenPostgres(ctx context.Context, cfg Config, logger *errors.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if cfg.DSN == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "store DSN is required for postgres", nil)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to parse postgres DSN", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to create postgres pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeStorageFailed, "failed to reach postgres", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx, logger); err != nil {
		pool.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to migrate postgres database", err)
	}

	logger.Info("Postgres store ready", "host", poolConfig.ConnConfig.Host, "max_conns", poolConfig.MaxConns)
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context, logger *errors.Logger) error {
	names, bodies, err := migrations(DriverPostgres)
	if err != nil {
		return err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	for _, name := range names {
		if _, err := conn.Exec(ctx, bodies[name]); err != nil {
			return fmt.Errorf("execute %s: %w", name, err)
		}
		logger.Debug("Migration applied", "driver", DriverPostgres, "file", name)
	}
	return nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, userID, targetRole string, profile types.CandidateProfile) (*types.SavedProfile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, storageError("encode profile", err)
	}
	now := s.clock.now()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, target_role, profile, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET target_role = EXCLUDED.target_role, profile = EXCLUDED.profile, updated_at = EXCLUDED.updated_at`,
		userID, targetRole, data, now)
	if err != nil {
		return nil, storageError("save profile", err)
	}
	return &types.SavedProfile{UserID: userID, TargetRole: targetRole, Profile: profile, UpdatedAt: now}, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*types.SavedProfile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	p := &types.SavedProfile{UserID: userID}
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT target_role, profile, updated_at FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.TargetRole, &data, &p.UpdatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("profile", userID, "")
	}
	if err != nil {
		return nil, storageError("get profile", err)
	}
	if err := json.Unmarshal(data, &p.Profile); err != nil {
		return nil, storageError("decode profile", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (s *PostgresStore) SaveJob(ctx context.Context, userID string, job types.JobPosting) (*types.SavedJob, error) {
	if err := requireKey(userID, job.ID); err != nil {
		return nil, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, storageError("encode job", err)
	}
	now := s.clock.now()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO saved_jobs (user_id, job_id, job, saved_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, job_id) DO UPDATE SET job = EXCLUDED.job, saved_at = EXCLUDED.saved_at`,
		userID, job.ID, data, now)
	if err != nil {
		return nil, storageError("save job", err)
	}
	return &types.SavedJob{UserID: userID, Job: job, SavedAt: now}, nil
}

func (s *PostgresStore) UnsaveJob(ctx context.Context, userID, jobID string) error {
	if err := requireKey(userID, jobID); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`, userID, jobID); err != nil {
		return storageError("unsave job", err)
	}
	return nil
}

func (s *PostgresStore) ListSavedJobs(ctx context.Context, userID string) ([]types.SavedJob, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT job, saved_at FROM saved_jobs WHERE user_id = $1 ORDER BY saved_at DESC, job_id`, userID)
	if err != nil {
		return nil, storageError("list saved jobs", err)
	}
	defer rows.Close()

	out := []types.SavedJob{}
	for rows.Next() {
		var data []byte
		var saved time.Time
		if err := rows.Scan(&data, &saved); err != nil {
			return nil, storageError("scan saved job", err)
		}
		sj := types.SavedJob{UserID: userID, SavedAt: saved.UTC()}
		if err := json.Unmarshal(data, &sj.Job); err != nil {
			return nil, storageError("decode saved job", err)
		}
		out = append(out, sj)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list saved jobs", err)
	}
	return out, nil
}

func (s *PostgresStore) IsJobSaved(ctx context.Context, userID, jobID string) (bool, error) {
	if err := requireKey(userID, jobID); err != nil {
		return false, err
	}
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM saved_jobs WHERE user_id = $1 AND job_id = $2)`, userID, jobID).Scan(&exists); err != nil {
		return false, storageError("check saved job", err)
	}
	return exists, nil
}

func (s *PostgresStore) TrackApplication(ctx context.Context, userID string, job types.JobPosting, status types.ApplicationStatus, notes string) (*types.Application, error) {
	if err := requireKey(userID, job.ID); err != nil {
		return nil, err
	}
	if status == "" {
		status = types.StatusApplied
	}
	if err := requireStatus(status); err != nil {
		return nil, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, storageError("encode job", err)
	}
	now := s.clock.now()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO applications (user_id, job_id, job, status, notes, applied_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (user_id, job_id) DO UPDATE SET job = EXCLUDED.job, status = EXCLUDED.status, notes = EXCLUDED.notes,
		 applied_at = EXCLUDED.applied_at, updated_at = EXCLUDED.updated_at`,
		userID, job.ID, data, string(status), notes, now)
	if err != nil {
		return nil, storageError("track application", err)
	}
	return &types.Application{UserID: userID, Job: job, Status: status, Notes: notes, AppliedAt: now, UpdatedAt: now}, nil
}

const applicationColumns = `job, status, notes, applied_at, updated_at`

func scanPostgresApplication(userID string, row pgx.Row) (*types.Application, error) {
	var data []byte
	var status string
	app := &types.Application{UserID: userID}
	if err := row.Scan(&data, &status, &app.Notes, &app.AppliedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	app.Status = types.ApplicationStatus(status)
	app.AppliedAt = app.AppliedAt.UTC()
	app.UpdatedAt = app.UpdatedAt.UTC()
	if err := json.Unmarshal(data, &app.Job); err != nil {
		return nil, storageError("decode application", err)
	}
	return app, nil
}

func (s *PostgresStore) UpdateApplicationStatus(ctx context.Context, userID, jobID string, status types.ApplicationStatus, notes *string) (*types.Application, error) {
	if err := requireKey(userID, jobID); err != nil {
		return nil, err
	}
	if err := requireStatus(status); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE applications SET status = $3, notes = COALESCE($4, notes), updated_at = $5
		 WHERE user_id = $1 AND job_id = $2 RETURNING `+applicationColumns,
		userID, jobID, string(status), notes, s.clock.now())
	app, err := scanPostgresApplication(userID, row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("application", userID, jobID)
	}
	if err != nil {
		return nil, storageError("update application", err)
	}
	return app, nil
}

func (s *PostgresStore) ListApplications(ctx context.Context, userID string) ([]types.Application, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 ORDER BY applied_at DESC, job_id`, userID)
	if err != nil {
		return nil, storageError("list applications", err)
	}
	defer rows.Close()

	out := []types.Application{}
	for rows.Next() {
		app, err := scanPostgresApplication(userID, rows)
		if err != nil {
			return nil, storageError("scan application", err)
		}
		out = append(out, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list applications", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteApplication(ctx context.Context, userID, jobID string) error {
	if err := requireKey(userID, jobID); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM applications WHERE user_id = $1 AND job_id = $2`, userID, jobID); err != nil {
		return storageError("delete application", err)
	}
	return nil
}

func (s *PostgresStore) ApplicationStats(ctx context.Context, userID string) (types.ApplicationStats, error) {
	if err := requireUser(userID); err != nil {
		return types.ApplicationStats{}, err
	}
	var stats types.ApplicationStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'applied'),
		        COUNT(*) FILTER (WHERE status = 'interview'),
		        COUNT(*) FILTER (WHERE status = 'offer'),
		        COUNT(*) FILTER (WHERE status = 'rejected')
		   FROM applications WHERE user_id = $1`, userID).
		Scan(&stats.Total, &stats.Applied, &stats.Interview, &stats.Offer, &stats.Rejected)
	if err != nil {
		return types.ApplicationStats{}, storageError("application stats", err)
	}
	return stats, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
