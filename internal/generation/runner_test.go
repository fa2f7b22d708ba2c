// internal/generation/runner_test.go
package generation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starterforge/internal/catalog"
	"starterforge/internal/common/logger"
	"starterforge/internal/engine"
	"starterforge/internal/models"
)

// ==========================
// Test Fakes
// ==========================

type fakeOrders struct {
	order models.OrderDetails
	err   error
}

func (f *fakeOrders) GetOrder(ctx context.Context, orderID string) (models.OrderDetails, error) {
	return f.order, f.err
}

type fakeArchiver struct {
	projectNames []string
	err          error
}

func (f *fakeArchiver) Archive(ctx context.Context, projectName string, result *engine.Result) error {
	if f.err != nil {
		return f.err
	}
	f.projectNames = append(f.projectNames, projectName)
	return nil
}

type fakeNotifier struct {
	notified []string
	err      error
}

func (f *fakeNotifier) GenerationCompleted(ctx context.Context, order models.OrderDetails, projectName string) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, projectName)
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "base/package.json",
		[]byte(`{"name": "starter", "version": "0.1.0", "private": true}`), 0o644))
	require.NoError(t, util.WriteFile(fs, "base/apps/web/src/App.tsx",
		[]byte("export const App = () => null"), 0o644))

	features := []models.FeatureSpec{
		{
			Slug: "auth-jwt", Name: "JWT Authentication",
			Module: models.ModuleRef{Slug: "auth", Name: "Authentication", Category: "security"},
		},
	}
	return engine.New(catalog.NewStatic(features), fs, "base", logger.NewTestLogger(t))
}

func testRunnerOrder() models.OrderDetails {
	return models.OrderDetails{
		ID:               "order-1",
		OrderNumber:      "ORD-2026-0042",
		Tier:             "professional",
		SelectedFeatures: []string{"auth-jwt"},
		CustomerEmail:    "dana@example.com",
	}
}

func setupRunner(t *testing.T, orders OrderProvider, archiver Archiver, notifier Notifier) (*Runner, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, mock := setupMockDB(t)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	runner := NewRunner(
		NewStore(db),
		NewOrderLock(rdb, time.Minute),
		testEngine(t),
		orders,
		archiver,
		notifier,
		logger.NewTestLogger(t),
		10*time.Millisecond,
		time.Minute,
	)
	return runner, mock, mr
}

// ==========================
// Process Tests
// ==========================

func TestRunner_Process_Completes(t *testing.T) {
	archiver := &fakeArchiver{}
	notifier := &fakeNotifier{}
	runner, mock, mr := setupRunner(t, &fakeOrders{order: testRunnerOrder()}, archiver, notifier)

	mock.ExpectExec("SET status = 'completed'").
		WithArgs("job-1", "starter-professional").
		WillReturnResult(sqlmock.NewResult(0, 1))

	runner.Process(context.Background(), &Job{ID: "job-1", OrderID: "order-1"})

	assert.Equal(t, []string{"starter-professional"}, archiver.projectNames)
	assert.Equal(t, []string{"starter-professional"}, notifier.notified)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Lock released after the run.
	assert.False(t, mr.Exists("genlock:order-1"))
}

func TestRunner_Process_OrderAlreadyLocked(t *testing.T) {
	runner, mock, mr := setupRunner(t, &fakeOrders{order: testRunnerOrder()}, &fakeArchiver{}, &fakeNotifier{})

	require.NoError(t, mr.Set("genlock:order-1", "1"))

	mock.ExpectExec("SET status = 'failed'").
		WithArgs("job-1", "RUN_IN_PROGRESS", "orderId: order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	runner.Process(context.Background(), &Job{ID: "job-1", OrderID: "order-1"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_Process_UnknownFeatureMarksFailed(t *testing.T) {
	order := testRunnerOrder()
	order.SelectedFeatures = []string{"ghost-feature"}
	archiver := &fakeArchiver{}
	runner, mock, mr := setupRunner(t, &fakeOrders{order: order}, archiver, &fakeNotifier{})

	mock.ExpectExec("SET status = 'failed'").
		WithArgs("job-1", "UNKNOWN_FEATURE", "ghost-feature").
		WillReturnResult(sqlmock.NewResult(0, 1))

	runner.Process(context.Background(), &Job{ID: "job-1", OrderID: "order-1"})

	assert.Empty(t, archiver.projectNames)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.False(t, mr.Exists("genlock:order-1"))
}

func TestRunner_Process_ArchiveFailureMarksFailed(t *testing.T) {
	archiver := &fakeArchiver{err: context.DeadlineExceeded}
	notifier := &fakeNotifier{}
	runner, mock, _ := setupRunner(t, &fakeOrders{order: testRunnerOrder()}, archiver, notifier)

	mock.ExpectExec("SET status = 'failed'").
		WithArgs("job-1", "INTERNAL_ERROR", "context deadline exceeded").
		WillReturnResult(sqlmock.NewResult(0, 1))

	runner.Process(context.Background(), &Job{ID: "job-1", OrderID: "order-1"})

	assert.Empty(t, notifier.notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_Process_NotificationFailureStillCompletes(t *testing.T) {
	archiver := &fakeArchiver{}
	notifier := &fakeNotifier{err: context.DeadlineExceeded}
	runner, mock, _ := setupRunner(t, &fakeOrders{order: testRunnerOrder()}, archiver, notifier)

	mock.ExpectExec("SET status = 'completed'").
		WithArgs("job-1", "starter-professional").
		WillReturnResult(sqlmock.NewResult(0, 1))

	runner.Process(context.Background(), &Job{ID: "job-1", OrderID: "order-1"})

	assert.Equal(t, []string{"starter-professional"}, archiver.projectNames)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Submit Tests
// ==========================

func TestRunner_Submit(t *testing.T) {
	runner, mock, _ := setupRunner(t, &fakeOrders{}, &fakeArchiver{}, &fakeNotifier{})

	mock.ExpectExec("INSERT INTO generation_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	jobID, err := runner.Submit(context.Background(), "order-1")

	require.NoError(t, err)
	assert.NotEmpty(t, jobID)
}

func TestRunner_Submit_Coalesces(t *testing.T) {
	runner, mock, _ := setupRunner(t, &fakeOrders{}, &fakeArchiver{}, &fakeNotifier{})

	mock.ExpectExec("INSERT INTO generation_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := runner.Submit(context.Background(), "order-1")

	assert.ErrorIs(t, err, ErrRunInProgress)
}
