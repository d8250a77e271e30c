package worker

// recalc_worker.go
// Processes plan recalculation jobs from QueueRecalc. A rule or plan
// change enqueues one job per plan; the worker re-evaluates every
// transaction the plan could apply to and overwrites pending amounts.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RecalcJobPayload is the job envelope sent to QueueRecalc.
type RecalcJobPayload struct {
	OrganizationID string `json:"organization_id"`
	PlanID         string `json:"plan_id"`
}

// PlanRecalculator re-runs a plan's calculations. Declared here so the
// worker package does not import the service package that enqueues jobs.
type PlanRecalculator interface {
	RecalculatePlan(ctx context.Context, orgID, planID uuid.UUID) (int, error)
}

const recalcMaxAttempts = 3

// RecalcWorker processes plan recalculation jobs from QueueRecalc.
type RecalcWorker struct {
	calc PlanRecalculator
}

func NewRecalcWorker(calc PlanRecalculator) *RecalcWorker {
	return &RecalcWorker{calc: calc}
}

// Process re-runs one plan's calculations with exponential backoff.
// Jobs that still fail after the last attempt go to the DLQ; a job with
// an unparseable payload is dropped, retrying cannot fix it.
func (w *RecalcWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload RecalcJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recalc_worker: invalid payload")
		return
	}
	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		log.Error().Str("organization_id", payload.OrganizationID).Msg("recalc_worker: invalid organization_id")
		return
	}
	planID, err := uuid.Parse(payload.PlanID)
	if err != nil {
		log.Error().Str("plan_id", payload.PlanID).Msg("recalc_worker: invalid plan_id")
		return
	}

	var updated int
	err = withRetry(ctx, recalcMaxAttempts, func(attempt int) error {
		n, err := w.calc.RecalculatePlan(ctx, orgID, planID)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("plan_id", payload.PlanID).
				Msg("recalc_worker: attempt failed, retrying")
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		SendToDLQ(ctx, rdb, QueueRecalc, "recalc", raw, err.Error(), recalcMaxAttempts)
		return
	}

	log.Info().
		Str("plan_id", payload.PlanID).
		Int("updated", updated).
		Msg("recalc_worker: plan recalculated")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
