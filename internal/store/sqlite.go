package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

// SQLiteStore keeps everything in a single SQLite database file.
type SQLiteStore struct {
	db    *sql.DB
	clock clock
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, dsn string, logger *errors.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if dsn == "" {
		dsn = "resumescore.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to open sqlite database", err)
	}
	// SQLite: single writer. Also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx, logger); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to migrate sqlite database", err)
	}
	logger.Info("SQLite store ready", "dsn", dsn)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context, logger *errors.Logger) error {
	names, bodies, err := migrations(DriverSQLite)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := s.db.ExecContext(ctx, bodies[name]); err != nil {
			return fmt.Errorf("execute %s: %w", name, err)
		}
		logger.Debug("Migration applied", "driver", DriverSQLite, "file", name)
	}
	return nil
}

// sqliteTime is fixed width so stored timestamps sort as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

func parseTime(value string) time.Time {
	t, _ := time.Parse(sqliteTime, value)
	return t
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, userID, targetRole string, profile types.CandidateProfile) (*types.SavedProfile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, storageError("encode profile", err)
	}
	now := s.clock.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, target_role, profile, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET target_role = excluded.target_role, profile = excluded.profile, updated_at = excluded.updated_at`,
		userID, targetRole, string(data), now.Format(sqliteTime))
	if err != nil {
		return nil, storageError("save profile", err)
	}
	return &types.SavedProfile{UserID: userID, TargetRole: targetRole, Profile: profile, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*types.SavedProfile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	var role, data, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT target_role, profile, updated_at FROM profiles WHERE user_id = ?`, userID).
		Scan(&role, &data, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound("profile", userID, "")
	}
	if err != nil {
		return nil, storageError("get profile", err)
	}

	p := &types.SavedProfile{UserID: userID, TargetRole: role, UpdatedAt: parseTime(updated)}
	if err := json.Unmarshal([]byte(data), &p.Profile); err != nil {
		return nil, storageError("decode profile", err)
	}
	return p, nil
}

func (s *SQLiteStore) SaveJob(ctx context.Context, userID string, job types.JobPosting) (*types.SavedJob, error) {
	if err := requireKey(userID, job.ID); err != nil {
		return nil, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, storageError("encode job", err)
	}
	now := s.clock.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_jobs (user_id, job_id, job, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, job_id) DO UPDATE SET job = excluded.job, saved_at = excluded.saved_at`,
		userID, job.ID, string(data), now.Format(sqliteTime))
	if err != nil {
		return nil, storageError("save job", err)
	}
	return &types.SavedJob{UserID: userID, Job: job, SavedAt: now}, nil
}

func (s *SQLiteStore) UnsaveJob(ctx context.Context, userID, jobID string) error {
	if err := requireKey(userID, jobID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_jobs WHERE user_id = ? AND job_id = ?`, userID, jobID); err != nil {
		return storageError("unsave job", err)
	}
	return nil
}

func (s *SQLiteStore) ListSavedJobs(ctx context.Context, userID string) ([]types.SavedJob, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job, saved_at FROM saved_jobs WHERE user_id = ? ORDER BY saved_at DESC, job_id`, userID)
	if err != nil {
		return nil, storageError("list saved jobs", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.SavedJob{}
	for rows.Next() {
		var data, saved string
		if err := rows.Scan(&data, &saved); err != nil {
			return nil, storageError("scan saved job", err)
		}
		sj := types.SavedJob{UserID: userID, SavedAt: parseTime(saved)}
		if err := json.Unmarshal([]byte(data), &sj.Job); err != nil {
			return nil, storageError("decode saved job", err)
		}
		out = append(out, sj)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list saved jobs", err)
	}
	return out, nil
}

func (s *SQLiteStore) IsJobSaved(ctx context.Context, userID, jobID string) (bool, error) {
	if err := requireKey(userID, jobID); err != nil {
		return false, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_jobs WHERE user_id = ? AND job_id = ?`, userID, jobID).Scan(&n); err != nil {
		return false, storageError("check saved job", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) TrackApplication(ctx context.Context, userID string, job types.JobPosting, status types.ApplicationStatus, notes string) (*types.Application, error) {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (user_id, job_id, job, status, notes, applied_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, job_id) DO UPDATE SET job = excluded.job, status = excluded.status, notes = excluded.notes,
		 applied_at = excluded.applied_at, updated_at = excluded.updated_at`,
		userID, job.ID, string(data), string(status), notes, now.Format(sqliteTime), now.Format(sqliteTime))
	if err != nil {
		return nil, storageError("track application", err)
	}
	return &types.Application{UserID: userID, Job: job, Status: status, Notes: notes, AppliedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, userID, jobID string, status types.ApplicationStatus, notes *string) (*types.Application, error) {
	if err := requireKey(userID, jobID); err != nil {
		return nil, err
	}
	if err := requireStatus(status); err != nil {
		return nil, err
	}
	now := s.clock.now().Format(sqliteTime)

	var res sql.Result
	var err error
	if notes != nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE applications SET status = ?, notes = ?, updated_at = ? WHERE user_id = ? AND job_id = ?`,
			string(status), *notes, now, userID, jobID)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE applications SET status = ?, updated_at = ? WHERE user_id = ? AND job_id = ?`,
			string(status), now, userID, jobID)
	}
	if err != nil {
		return nil, storageError("update application", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, notFound("application", userID, jobID)
	}
	return s.getApplication(ctx, userID, jobID)
}

func (s *SQLiteStore) getApplication(ctx context.Context, userID, jobID string) (*types.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job, status, notes, applied_at, updated_at FROM applications WHERE user_id = ? AND job_id = ?`,
		userID, jobID)
	app, err := scanSQLiteApplication(userID, row.Scan)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound("application", userID, jobID)
	}
	return app, err
}

func scanSQLiteApplication(userID string, scan func(dest ...any) error) (*types.Application, error) {
	var data, status, notes, applied, updated string
	if err := scan(&data, &status, &notes, &applied, &updated); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storageError("scan application", err)
	}
	app := &types.Application{
		UserID:    userID,
		Status:    types.ApplicationStatus(status),
		Notes:     notes,
		AppliedAt: parseTime(applied),
		UpdatedAt: parseTime(updated),
	}
	if err := json.Unmarshal([]byte(data), &app.Job); err != nil {
		return nil, storageError("decode application", err)
	}
	return app, nil
}

func (s *SQLiteStore) ListApplications(ctx context.Context, userID string) ([]types.Application, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job, status, notes, applied_at, updated_at FROM applications WHERE user_id = ? ORDER BY applied_at DESC, job_id`,
		userID)
	if err != nil {
		return nil, storageError("list applications", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.Application{}
	for rows.Next() {
		app, err := scanSQLiteApplication(userID, rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list applications", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteApplication(ctx context.Context, userID, jobID string) error {
	if err := requireKey(userID, jobID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM applications WHERE user_id = ? AND job_id = ?`, userID, jobID); err != nil {
		return storageError("delete application", err)
	}
	return nil
}

func (s *SQLiteStore) ApplicationStats(ctx context.Context, userID string) (types.ApplicationStats, error) {
	apps, err := s.ListApplications(ctx, userID)
	if err != nil {
		return types.ApplicationStats{}, err
	}
	return ComputeStats(apps), nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
