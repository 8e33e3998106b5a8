package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/onebeat/internal/jobs"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/onebeat/export"
	"github.com/odyssey-erp/onebeat/internal/platform/cache"
	"github.com/odyssey-erp/onebeat/internal/transfer"
)

// DefaultLockTTL bounds how long an export run holds the company lock.
const DefaultLockTTL = 10 * time.Minute

// DatasetPreparer builds export datasets.
type DatasetPreparer interface {
	Prepare(ctx context.Context, req onebeat.Request) (*onebeat.Dataset, error)
}

// ExportLocker serialises export runs per company.
type ExportLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (*cache.Lock, error)
}

// ExportResult lists the uploaded files of a run.
type ExportResult struct {
	RunID string
	Files []string
}

// ExportJob renders the OneBeat reports and uploads them to the remote.
type ExportJob struct {
	Service   DatasetPreparer
	Assembler *export.Assembler
	Remote    transfer.Remote
	Locker    ExportLocker
	LockTTL   time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle processes TaskOnebeatExport tasks.
func (j *ExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("onebeat export: handler not configured")
	}
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.CompanyID <= 0 {
		return asynq.SkipRetry
	}
	_, err := j.Run(ctx, payload)
	switch {
	case errors.Is(err, onebeat.ErrExportInProgress):
		j.logger().Info("onebeat export already running", slog.Int64("company_id", payload.CompanyID))
		return nil
	case errors.Is(err, onebeat.ErrConfiguration), errors.Is(err, onebeat.ErrInvalidWindow):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// Run executes one export under the company lock.
func (j *ExportJob) Run(ctx context.Context, payload ExportPayload) (result ExportResult, resultErr error) {
	if j.Service == nil || j.Assembler == nil || j.Remote == nil {
		return result, &onebeat.ConfigurationError{Field: "export", Reason: "service, assembler and remote are required"}
	}
	tracker := j.Metrics.Track(TaskOnebeatExport)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("company_id", payload.CompanyID))
	if j.Locker != nil {
		lock, err := j.Locker.Obtain(ctx, fmt.Sprintf("onebeat:export:%d", payload.CompanyID), j.lockTTL())
		if errors.Is(err, cache.ErrLocked) {
			return result, onebeat.ErrExportInProgress
		}
		if err != nil {
			return result, err
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release export lock", slog.Any("error", err))
			}
		}()
	}

	start := time.Now()
	req := onebeat.Request{CompanyID: payload.CompanyID}
	if !payload.Start.IsZero() || !payload.Stop.IsZero() {
		req.Window = onebeat.Window{Start: payload.Start, Stop: payload.Stop}
	}
	ds, err := j.Service.Prepare(ctx, req)
	if err != nil {
		logger.Error("prepare export", slog.Any("error", err))
		return result, err
	}
	result.RunID = ds.RunID
	logger = logger.With(slog.String("run_id", ds.RunID))

	files, err := j.Assembler.RenderAll(ds)
	if err != nil {
		logger.Error("render export", slog.Any("error", err))
		return result, err
	}
	for _, f := range files {
		if err := j.Remote.Upload(ctx, f.Name, f.Data); err != nil {
			logger.Error("upload report", slog.String("file", f.Name), slog.Any("error", err))
			return result, fmt.Errorf("onebeat export: upload %s: %w", f.Name, err)
		}
		j.Metrics.AddReportRows(string(f.Kind), payload.CompanyID, countRows(f.Data))
		result.Files = append(result.Files, f.Name)
	}
	logger.Info("completed onebeat export",
		slog.String("schema", j.Assembler.Schema().Name),
		slog.Int("files", len(result.Files)),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (j *ExportJob) lockTTL() time.Duration {
	if j.LockTTL > 0 {
		return j.LockTTL
	}
	return DefaultLockTTL
}

func (j *ExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// countRows counts data records, excluding the header line.
func countRows(data []byte) int {
	n := 0
	for i := 0; i+1 < len(data); i++ {
		if data[i] == '\r' && data[i+1] == '\n' {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}
