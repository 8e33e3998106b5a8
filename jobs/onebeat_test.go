package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/onebeat/internal/inventory"
	jobmetrics "github.com/odyssey-erp/onebeat/internal/jobs"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/onebeat/export"
	"github.com/odyssey-erp/onebeat/internal/onebeat/replenish"
	"github.com/odyssey-erp/onebeat/internal/platform/cache"
	"github.com/odyssey-erp/onebeat/internal/transfer"
)

type stubPreparer struct {
	req onebeat.Request
	err error
}

func (p *stubPreparer) Prepare(_ context.Context, req onebeat.Request) (*onebeat.Dataset, error) {
	p.req = req
	if p.err != nil {
		return nil, p.err
	}
	locations := []inventory.Location{{ID: 1, Name: "Stock", CompleteName: "WH/Stock", Usage: inventory.UsageInternal, WarehouseDirect: true}}
	products := []inventory.Product{{ID: 10, Code: "SKU1", Name: "Widget", UoM: inventory.UnitOfMeasure{ID: 1, Name: "Units"}}}
	res := onebeat.ResolveReportable(locations)
	return &onebeat.Dataset{
		RunID:       "run-1",
		Company:     inventory.Company{ID: req.CompanyID, Name: "Acme", VAT: "900123"},
		CompanyCode: "900",
		Timezone:    time.UTC,
		AsOf:        time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC),
		Products:    products,
		Locations:   locations,
		Resolution:  res,
		Buffers:     []onebeat.Buffer{{ID: 1, CompanyID: req.CompanyID, ProductID: 10, LocationID: 1, BufferSize: 15}},
		Snapshot:    onebeat.BuildSnapshot(onebeat.SnapshotInput{Products: products, Resolution: res}),
		Ledger:      onebeat.Ledger{},
	}, nil
}

func newLocker(t *testing.T) *cache.Locker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewLocker(rdb, "test:")
}

func newExportJob(t *testing.T, prep DatasetPreparer) (*ExportJob, *transfer.Dir) {
	t.Helper()
	dir, err := transfer.NewDir(t.TempDir())
	require.NoError(t, err)
	return &ExportJob{
		Service:   prep,
		Assembler: export.NewAssembler(export.OneBeatSchema),
		Remote:    dir,
		Locker:    newLocker(t),
		Metrics:   jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}, dir
}

func TestExportJobUploadsReports(t *testing.T) {
	job, dir := newExportJob(t, &stubPreparer{})
	task, err := NewExportTask(ExportPayload{CompanyID: 3})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))

	names, err := dir.List(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"STOCKLOCATIONS_900_20240305.csv",
		"MTSSKUS_900_20240305.csv",
		"TRANSACTIONS_900_20240305.csv",
		"STATUS_900_20240305.csv",
	}, names)
}

func TestExportJobPassesWindow(t *testing.T) {
	prep := &stubPreparer{}
	job, _ := newExportJob(t, prep)
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	stop := start.Add(48 * time.Hour)

	_, err := job.Run(context.Background(), ExportPayload{CompanyID: 3, Start: start, Stop: stop})
	require.NoError(t, err)
	require.Equal(t, onebeat.Window{Start: start, Stop: stop}, prep.req.Window)
	require.Equal(t, int64(3), prep.req.CompanyID)
}

func TestExportJobRejectsConcurrentRun(t *testing.T) {
	job, _ := newExportJob(t, &stubPreparer{})
	ctx := context.Background()
	held, err := job.Locker.Obtain(ctx, "onebeat:export:3", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Release(ctx) })

	_, err = job.Run(ctx, ExportPayload{CompanyID: 3})
	require.ErrorIs(t, err, onebeat.ErrExportInProgress)

	task, err := NewExportTask(ExportPayload{CompanyID: 3})
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))
}

func TestExportJobSkipsRetryOnConfigurationError(t *testing.T) {
	job, _ := newExportJob(t, &stubPreparer{err: &onebeat.ConfigurationError{Field: "vat", Reason: "missing"}})
	task, err := NewExportTask(ExportPayload{CompanyID: 3})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, onebeat.ErrConfiguration)
}

func TestExportJobRetriesTransientError(t *testing.T) {
	boom := errors.New("connection reset")
	job, _ := newExportJob(t, &stubPreparer{err: boom})
	task, err := NewExportTask(ExportPayload{CompanyID: 3})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)

	_, err = job.Locker.Obtain(context.Background(), "onebeat:export:3", time.Minute)
	require.NoError(t, err, "lock must be released after a failed run")
}

func TestHandlersRejectBadPayload(t *testing.T) {
	job, _ := newExportJob(t, &stubPreparer{})
	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskOnebeatExport, []byte("{"))), asynq.SkipRetry)

	body, _ := json.Marshal(ReplenishPayload{})
	rj := &ReplenishJob{Importer: &stubReplenisher{}}
	require.ErrorIs(t, rj.Handle(context.Background(), asynq.NewTask(TaskOnebeatReplenish, body)), asynq.SkipRetry)
}

type stubReplenisher struct {
	res replenish.Result
	err error
}

func (r *stubReplenisher) Run(context.Context, int64) (replenish.Result, error) {
	return r.res, r.err
}

func TestReplenishJobTreatsMissingFileAsSuccess(t *testing.T) {
	job := &ReplenishJob{Importer: &stubReplenisher{err: replenish.ErrNoReplenishmentFile}}
	task, err := NewReplenishTask(ReplenishPayload{CompanyID: 1})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestReplenishJobPropagatesFailure(t *testing.T) {
	boom := errors.New("db down")
	job := &ReplenishJob{
		Importer: &stubReplenisher{err: boom},
		Metrics:  jobmetrics.NewMetrics(prometheus.NewRegistry()),
	}
	require.ErrorIs(t, job.Run(context.Background(), 1), boom)

	job.Importer = &stubReplenisher{err: &onebeat.ConfigurationError{Field: "remote", Reason: "none"}}
	task, err := NewReplenishTask(ReplenishPayload{CompanyID: 1})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestNewTasksRequireCompany(t *testing.T) {
	_, err := NewExportTask(ExportPayload{})
	require.Error(t, err)
	_, err = NewReplenishTask(ReplenishPayload{})
	require.Error(t, err)
}

func TestCountRows(t *testing.T) {
	require.Equal(t, 0, countRows(nil))
	require.Equal(t, 0, countRows([]byte("h\r\n")))
	require.Equal(t, 2, countRows([]byte("h\r\na\r\nb\r\n")))
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body QueueHealth
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, QueueHealth{Queue: QueueDefault}, body)
}
