// internal/generation/runner.go
package generation

import (
	"context"
	"time"

	"starterforge/internal/common/errors"
	"starterforge/internal/common/logger"
	"starterforge/internal/common/metrics"
	"starterforge/internal/engine"
	"starterforge/internal/models"
)

// OrderProvider supplies order details, including the resolved template
// and license references. Backed by the order service in production.
type OrderProvider interface {
	GetOrder(ctx context.Context, orderID string) (models.OrderDetails, error)
}

// Archiver turns a finished generation result into a downloadable
// artifact. Packaging is an I/O concern owned by the host, not the
// engine.
type Archiver interface {
	Archive(ctx context.Context, projectName string, result *engine.Result) error
}

// Runner polls the job store and executes generation runs one at a
// time. The per-order lock guards against a second runner instance
// picking up the same order.
type Runner struct {
	store        *Store
	lock         *OrderLock
	engine       *engine.Engine
	orders       OrderProvider
	archiver     Archiver
	notifier     Notifier
	logger       logger.Logger
	pollInterval time.Duration
	runTimeout   time.Duration
}

func NewRunner(store *Store, lock *OrderLock, eng *engine.Engine, orders OrderProvider,
	archiver Archiver, notifier Notifier, log logger.Logger,
	pollInterval, runTimeout time.Duration) *Runner {
	return &Runner{
		store:        store,
		lock:         lock,
		engine:       eng,
		orders:       orders,
		archiver:     archiver,
		notifier:     notifier,
		logger:       log.WithFields(map[string]interface{}{"component": "runner"}),
		pollInterval: pollInterval,
		runTimeout:   runTimeout,
	}
}

// Submit queues a generation run for an order. Re-submission while a
// run is queued or running coalesces into the existing job.
func (r *Runner) Submit(ctx context.Context, orderID string) (string, error) {
	jobID, err := r.store.Enqueue(ctx, orderID)
	if err != nil {
		if err == ErrRunInProgress {
			r.logger.Info("coalescing duplicate submission", map[string]interface{}{
				"orderId": orderID,
			})
		}
		return "", err
	}

	r.logger.Info("generation job queued", map[string]interface{}{
		"jobId":   jobID,
		"orderId": orderID,
	})
	return jobID, nil
}

// Run polls for queued jobs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			job, err := r.store.ClaimNext(ctx)
			if err != nil {
				r.logger.Error("failed to claim job", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			if job == nil {
				continue
			}
			r.Process(ctx, job)
		}
	}
}

// Process executes one claimed job end to end and records the outcome
// on the job row. A failed pipeline never leaves a running row behind.
func (r *Runner) Process(ctx context.Context, job *Job) {
	log := r.logger.WithFields(map[string]interface{}{
		"jobId":   job.ID,
		"orderId": job.OrderID,
	})
	log.Info("processing generation job", nil)

	acquired, err := r.lock.Acquire(ctx, job.OrderID)
	if err != nil {
		r.fail(ctx, job, "", errors.NewJobStoreFailedError(err))
		return
	}
	if !acquired {
		r.fail(ctx, job, "", errors.NewRunInProgressError(job.OrderID))
		return
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), job.OrderID); err != nil {
			log.Warn("failed to release order lock", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	metrics.GenerationRunsActive.Inc()
	defer metrics.GenerationRunsActive.Dec()
	started := time.Now()

	order, err := r.orders.GetOrder(ctx, job.OrderID)
	if err != nil {
		r.fail(ctx, job, "", err)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()

	result, err := r.engine.Generate(runCtx, order)
	if err != nil {
		r.fail(ctx, job, order.Tier, err)
		return
	}

	if err := r.archiver.Archive(runCtx, result.ProjectName, result); err != nil {
		r.fail(ctx, job, order.Tier, err)
		return
	}

	if err := r.store.MarkCompleted(ctx, job.ID, result.ProjectName); err != nil {
		log.Error("failed to mark job completed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	metrics.GenerationRunsCompleted.WithLabelValues(order.Tier).Inc()
	metrics.GenerationRunDuration.WithLabelValues(order.Tier).Observe(time.Since(started).Seconds())

	if err := r.notifier.GenerationCompleted(ctx, order, result.ProjectName); err != nil {
		// The artifact is ready; a lost email is not a failed run.
		log.Warn("completion notification failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("generation job completed", map[string]interface{}{
		"projectName": result.ProjectName,
		"fileCount":   result.Tree.Len(),
	})
}

func (r *Runner) fail(ctx context.Context, job *Job, tier string, cause error) {
	stdErr := errors.Normalize(cause)

	r.logger.Error("generation job failed", map[string]interface{}{
		"jobId":     job.ID,
		"orderId":   job.OrderID,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})

	if tier == "" {
		tier = "unknown"
	}
	metrics.GenerationRunsFailed.WithLabelValues(tier, string(stdErr.Code)).Inc()

	if err := r.store.MarkFailed(ctx, job.ID, string(stdErr.Code), stdErr.Details); err != nil {
		r.logger.Error("failed to mark job failed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}
}
