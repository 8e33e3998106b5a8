// Package http exposes OneBeat report downloads, buffer uploads and export
// triggers over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/onebeat/internal/inventory"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/onebeat/export"
	"github.com/odyssey-erp/onebeat/internal/platform/httpx"
	"github.com/odyssey-erp/onebeat/jobs"
)

// maxUploadBytes caps buffer update uploads.
const maxUploadBytes = 8 << 20

// DatasetPreparer builds export datasets.
type DatasetPreparer interface {
	Prepare(ctx context.Context, req onebeat.Request) (*onebeat.Dataset, error)
}

// BufferImporter applies sku;location;buffer files.
type BufferImporter interface {
	ImportBufferUpdates(ctx context.Context, companyID int64, r io.Reader) (onebeat.UpdateReport, error)
}

// ExportEnqueuer schedules background exports.
type ExportEnqueuer interface {
	EnqueueExport(ctx context.Context, payload jobs.ExportPayload) (*asynq.TaskInfo, error)
}

// Handler serves the OneBeat endpoints.
type Handler struct {
	logger    *slog.Logger
	service   DatasetPreparer
	assembler *export.Assembler
	buffers   BufferImporter
	enqueuer  ExportEnqueuer
	validator *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs Handler. buffers and enqueuer may be nil, which
// disables the matching routes.
func NewHandler(logger *slog.Logger, service DatasetPreparer, assembler *export.Assembler, buffers BufferImporter, enqueuer ExportEnqueuer) (*Handler, error) {
	if service == nil || assembler == nil {
		return nil, fmt.Errorf("onebeat handler: service and assembler required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		assembler: assembler,
		buffers:   buffers,
		enqueuer:  enqueuer,
		validator: validator.New(),
		rateLimit: httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint)),
	}, nil
}

// MountRoutes registers the OneBeat endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}", func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/reports/{kind}", h.handleReport)
		if h.buffers != nil {
			r.Post("/buffers", h.handleBufferUpload)
		}
		if h.enqueuer != nil {
			r.Post("/exports", h.handleEnqueueExport)
		}
	})
}

type reportQuery struct {
	CompanyID int64     `validate:"required,gt=0"`
	Kind      string    `validate:"required,oneof=STOCKLOCATIONS MTSSKUS TRANSACTIONS STATUS"`
	Start     time.Time `validate:"required_with=Stop"`
	Stop      time.Time `validate:"required_with=Start"`
	Timezone  string    `validate:"omitempty,timezone"`
}

func (q reportQuery) key() string {
	return fmt.Sprintf("%d|%d|%d|%s", q.CompanyID, q.Start.UnixNano(), q.Stop.UnixNano(), q.Timezone)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseReportQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	kind, _ := export.ParseKind(q.Kind)

	result, err, shared := singleflightPrepare(r.Context(), q.key(), func(ctx context.Context) (interface{}, error) {
		req := onebeat.Request{CompanyID: q.CompanyID, Timezone: q.Timezone}
		if !q.Start.IsZero() {
			req.Window = onebeat.Window{Start: q.Start, Stop: q.Stop}
		}
		return h.service.Prepare(ctx, req)
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	ds, ok := result.(*onebeat.Dataset)
	if !ok || ds == nil {
		httpx.RespondError(w, errors.New("onebeat: empty dataset"))
		return
	}
	file, err := h.assembler.Render(ds, kind)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.Info("onebeat report served",
		slog.Int64("company_id", q.CompanyID),
		slog.String("report", string(kind)),
		slog.String("run_id", ds.RunID),
		slog.Bool("shared", shared))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func (h *Handler) parseReportQuery(r *http.Request) (reportQuery, error) {
	companyID, err := companyFromPath(r)
	if err != nil {
		return reportQuery{}, err
	}
	q := reportQuery{
		CompanyID: companyID,
		Kind:      strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "kind"))),
		Timezone:  strings.TrimSpace(r.URL.Query().Get("tz")),
	}
	if q.Start, err = parseTime(r.URL.Query().Get("start")); err != nil {
		return q, fmt.Errorf("%w: start: %v", httpx.ErrValidation, err)
	}
	if q.Stop, err = parseTime(r.URL.Query().Get("stop")); err != nil {
		return q, fmt.Errorf("%w: stop: %v", httpx.ErrValidation, err)
	}
	if err := h.validator.Struct(q); err != nil {
		return q, fmt.Errorf("%w: %s", httpx.ErrValidation, describe(err))
	}
	return q, nil
}

type bufferUploadResponse struct {
	Updated int `json:"updated"`
	Missing int `json:"missing"`
}

func (h *Handler) handleBufferUpload(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyFromPath(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: file: %v", httpx.ErrValidation, err))
			return
		}
		defer file.Close()
		body = file
	}
	report, err := h.buffers.ImportBufferUpdates(r.Context(), companyID, body)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.Info("buffer updates applied",
		slog.Int64("company_id", companyID),
		slog.Int("updated", report.Updated),
		slog.Int("missing", report.Missing))
	httpx.JSON(w, http.StatusOK, bufferUploadResponse{Updated: report.Updated, Missing: report.Missing})
}

type exportRequest struct {
	Start time.Time `json:"start" validate:"required_with=Stop"`
	Stop  time.Time `json:"stop" validate:"required_with=Start"`
}

type exportResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) handleEnqueueExport(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyFromPath(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req exportRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, describe(err)))
		return
	}
	info, err := h.enqueuer.EnqueueExport(r.Context(), jobs.ExportPayload{CompanyID: companyID, Start: req.Start, Stop: req.Stop})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := exportResponse{Queue: jobs.QueueDefault}
	if info != nil {
		resp.TaskID = info.ID
		resp.Queue = info.Queue
	}
	httpx.JSON(w, http.StatusAccepted, resp)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, inventory.ErrCompanyNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, onebeat.ErrInvalidWindow):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	case errors.Is(err, onebeat.ErrExportInProgress), errors.Is(err, asynq.ErrDuplicateTask):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
	case errors.Is(err, onebeat.ErrConfiguration):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnprocessable, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "request cancelled")
	default:
		h.logger.Error("onebeat request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func companyFromPath(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "companyID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid company id %q", httpx.ErrValidation, raw)
	}
	return id, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
