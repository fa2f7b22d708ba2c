// internal/generation/store.go

// Package generation hosts the engine as a background job per order:
// job persistence, the per-order run lock, the polling runner and the
// completion notifier.
package generation

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"starterforge/internal/common/errors"
)

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// ErrRunInProgress is returned by Enqueue when the order already has an
// active (queued or running) job. Re-submissions coalesce into that job
// instead of producing divergent output for the same order.
var ErrRunInProgress = stderrors.New("RUN_IN_PROGRESS")

// Job is one generation run record.
type Job struct {
	ID           string
	OrderID      string
	Status       JobStatus
	ProjectName  string
	ErrorCode    string
	ErrorDetails string
}

// Store persists generation jobs in Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Enqueue creates a queued job for the order unless an active job
// already exists.
func (s *Store) Enqueue(ctx context.Context, orderID string) (string, error) {
	jobID := uuid.NewString()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_jobs (id, order_id, status, created_at)
		SELECT $1, $2, 'queued', NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM generation_jobs
			WHERE order_id = $2 AND status IN ('queued', 'running')
		)`, jobID, orderID)
	if err != nil {
		return "", errors.NewJobStoreFailedError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", errors.NewJobStoreFailedError(err)
	}
	if rows == 0 {
		return "", ErrRunInProgress
	}

	return jobID, nil
}

// ClaimNext transitions the oldest queued job to running and returns
// it. Returns nil when the queue is empty.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	var job Job
	err := s.db.QueryRowContext(ctx, `
		UPDATE generation_jobs SET status = 'running', started_at = NOW()
		WHERE id = (
			SELECT id FROM generation_jobs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
		)
		RETURNING id, order_id`).Scan(&job.ID, &job.OrderID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewJobStoreFailedError(err)
	}

	job.Status = StatusRunning
	return &job, nil
}

// MarkCompleted finishes a job successfully.
func (s *Store) MarkCompleted(ctx context.Context, jobID, projectName string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = 'completed', project_name = $2, finished_at = NOW()
		WHERE id = $1`, jobID, projectName)
	if err != nil {
		return errors.NewJobStoreFailedError(err)
	}
	return nil
}

// MarkFailed records the failure kind and offending identifiers on the
// job record so catalog or feature authoring can be corrected.
func (s *Store) MarkFailed(ctx context.Context, jobID, errorCode, errorDetails string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = 'failed', error_code = $2, error_details = $3, finished_at = NOW()
		WHERE id = $1`, jobID, errorCode, errorDetails)
	if err != nil {
		return errors.NewJobStoreFailedError(err)
	}
	return nil
}

// GetByOrder returns the most recent job for an order.
func (s *Store) GetByOrder(ctx context.Context, orderID string) (*Job, error) {
	var (
		job          Job
		projectName  sql.NullString
		errorCode    sql.NullString
		errorDetails sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, status, project_name, error_code, error_details
		FROM generation_jobs
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, orderID).Scan(
		&job.ID, &job.OrderID, &job.Status, &projectName, &errorCode, &errorDetails,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no generation job for order %s", orderID)
		}
		return nil, errors.NewJobStoreFailedError(err)
	}

	job.ProjectName = projectName.String
	job.ErrorCode = errorCode.String
	job.ErrorDetails = errorDetails.String
	return &job, nil
}
