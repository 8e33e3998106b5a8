package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/onebeat/internal/jobs"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/onebeat/replenish"
)

// Replenisher consumes recommendation files.
type Replenisher interface {
	Run(ctx context.Context, companyID int64) (replenish.Result, error)
}

// ReplenishJob turns the latest recommendation file into purchase orders.
type ReplenishJob struct {
	Importer Replenisher
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle processes TaskOnebeatReplenish tasks.
func (j *ReplenishJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Importer == nil {
		return errors.New("onebeat replenish: handler not configured")
	}
	var payload ReplenishPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.CompanyID <= 0 {
		return asynq.SkipRetry
	}
	err := j.Run(ctx, payload.CompanyID)
	if errors.Is(err, onebeat.ErrConfiguration) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// Run imports the latest file. A missing file is not a failure.
func (j *ReplenishJob) Run(ctx context.Context, companyID int64) (resultErr error) {
	tracker := j.Metrics.Track(TaskOnebeatReplenish)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("company_id", companyID))
	res, err := j.Importer.Run(ctx, companyID)
	if errors.Is(err, replenish.ErrNoReplenishmentFile) {
		logger.Info("no replenishment file")
		return nil
	}
	if len(res.Orders) > 0 {
		j.Metrics.AddOrders(companyID, len(res.Orders))
	}
	if err != nil {
		logger.Error("replenish failed",
			slog.String("file", res.File),
			slog.Int("orders_created", len(res.Orders)),
			slog.Any("error", err))
		return err
	}
	logger.Info("completed replenish",
		slog.String("file", res.File),
		slog.Int("orders", len(res.Orders)),
		slog.Int("skipped", len(res.Skipped)))
	return nil
}

func (j *ReplenishJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
