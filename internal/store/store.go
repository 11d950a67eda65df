// Package store persists user profiles, saved jobs and application
// tracking, keyed by user id and job id.
package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

//go:embed migrations
var migrationsFS embed.FS

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Store is implemented by every persistence backend.
type Store interface {
	SaveProfile(ctx context.Context, userID, targetRole string, profile types.CandidateProfile) (*types.SavedProfile, error)
	GetProfile(ctx context.Context, userID string) (*types.SavedProfile, error)

	SaveJob(ctx context.Context, userID string, job types.JobPosting) (*types.SavedJob, error)
	UnsaveJob(ctx context.Context, userID, jobID string) error
	ListSavedJobs(ctx context.Context, userID string) ([]types.SavedJob, error)
	IsJobSaved(ctx context.Context, userID, jobID string) (bool, error)

	TrackApplication(ctx context.Context, userID string, job types.JobPosting, status types.ApplicationStatus, notes string) (*types.Application, error)
	UpdateApplicationStatus(ctx context.Context, userID, jobID string, status types.ApplicationStatus, notes *string) (*types.Application, error)
	ListApplications(ctx context.Context, userID string) ([]types.Application, error)
	DeleteApplication(ctx context.Context, userID, jobID string) error
	ApplicationStats(ctx context.Context, userID string) (types.ApplicationStats, error)

	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver   string
	DSN      string
	MaxConns int32
	MinConns int32
}

// Open connects the configured backend and applies its migrations. The
// "none" driver returns a nil Store.
func Open(ctx context.Context, cfg Config, logger *errors.Logger) (Store, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	switch strings.ToLower(cfg.Driver) {
	case "", DriverNone:
		return nil, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported store driver: %s", cfg.Driver), nil)
	}
}

// migrations returns the sorted SQL files for a backend.
func migrations(driver string) ([]string, map[string]string, error) {
	dir := "migrations/" + driver
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	names := make([]string, 0, len(entries))
	bodies := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(migrationsFS, dir+"/"+entry.Name())
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		names = append(names, entry.Name())
		bodies[entry.Name()] = string(data)
	}
	return names, bodies, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "user id is required", nil)
	}
	return nil
}

func requireKey(userID, jobID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if strings.TrimSpace(jobID) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "job id is required", nil)
	}
	return nil
}

func requireStatus(status types.ApplicationStatus) error {
	if !status.Valid() {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid application status %q (valid: saved, applied, interview, offer, rejected, withdrawn)", status), nil)
	}
	return nil
}

func notFound(what, userID, jobID string) error {
	err := errors.NewStorageError(errors.ErrCodeNotFound, what+" not found", nil).
		WithContext("user_id", userID)
	if jobID != "" {
		err = err.WithContext("job_id", jobID)
	}
	return err
}

func storageError(op string, err error) error {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, op+" failed", err)
}

// ComputeStats counts applications per status. Saved and withdrawn entries
// only count towards the total.
func ComputeStats(apps []types.Application) types.ApplicationStats {
	stats := types.ApplicationStats{Total: len(apps)}
	for _, app := range apps {
		switch app.Status {
		case types.StatusApplied:
			stats.Applied++
		case types.StatusInterview:
			stats.Interview++
		case types.StatusOffer:
			stats.Offer++
		case types.StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
