// internal/generation/store_test.go
package generation

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starterforge/internal/common/errors"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

// ==========================
// Enqueue Tests
// ==========================

func TestStore_Enqueue(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO generation_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	jobID, err := NewStore(db).Enqueue(context.Background(), "order-1")

	require.NoError(t, err)
	assert.NotEmpty(t, jobID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Enqueue_CoalescesActiveJob(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	// The guarded insert affects zero rows when an active job exists.
	mock.ExpectExec("INSERT INTO generation_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewStore(db).Enqueue(context.Background(), "order-1")

	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Enqueue_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO generation_jobs").
		WillReturnError(sql.ErrConnDone)

	_, err := NewStore(db).Enqueue(context.Background(), "order-1")

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeJobStoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// ClaimNext Tests
// ==========================

func TestStore_ClaimNext(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE generation_jobs SET status = 'running'").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}).
			AddRow("job-1", "order-1"))

	job, err := NewStore(db).ClaimNext(context.Background())

	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "order-1", job.OrderID)
	assert.Equal(t, StatusRunning, job.Status)
}

func TestStore_ClaimNext_EmptyQueue(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE generation_jobs SET status = 'running'").
		WillReturnError(sql.ErrNoRows)

	job, err := NewStore(db).ClaimNext(context.Background())

	require.NoError(t, err)
	assert.Nil(t, job)
}

// ==========================
// State Transition Tests
// ==========================

func TestStore_MarkCompleted(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("SET status = 'completed'").
		WithArgs("job-1", "e-commerce-pro-professional").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewStore(db).MarkCompleted(context.Background(), "job-1", "e-commerce-pro-professional")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MarkFailed_RecordsCodeAndDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("SET status = 'failed'").
		WithArgs("job-1", "UNKNOWN_FEATURE", "ghost-feature").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewStore(db).MarkFailed(context.Background(), "job-1", "UNKNOWN_FEATURE", "ghost-feature")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// GetByOrder Tests
// ==========================

func TestStore_GetByOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, order_id, status").
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "order_id", "status", "project_name", "error_code", "error_details"}).
			AddRow("job-1", "order-1", "failed", nil, "DUPLICATE_MODEL", "model: User"))

	job, err := NewStore(db).GetByOrder(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Empty(t, job.ProjectName)
	assert.Equal(t, "DUPLICATE_MODEL", job.ErrorCode)
	assert.Equal(t, "model: User", job.ErrorDetails)
}

func TestStore_GetByOrder_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, order_id, status").
		WithArgs("order-x").
		WillReturnError(sql.ErrNoRows)

	_, err := NewStore(db).GetByOrder(context.Background(), "order-x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order-x")
}
