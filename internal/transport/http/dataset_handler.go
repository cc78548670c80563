package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fishpulse/internal/config"
	apierrors "fishpulse/internal/errors"
	"fishpulse/internal/exporter"
	"fishpulse/internal/infrastructure"
	"fishpulse/internal/middleware"
	api "fishpulse/pkg/contracts/api/v1"
	"fishpulse/pkg/contracts/domain"
)

// uploadField is the multipart form field carrying the production table
const uploadField = "file"

// multipartOverhead is the slack allowed on top of the upload limit for
// multipart boundaries and part headers
const multipartOverhead = 64 << 10

// DatasetHandler handles session and dataset HTTP requests with RFC 7807
// error responses
type DatasetHandler struct {
	service        DatasetServiceInterface
	validator      *middleware.RequestValidator
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
}

// NewDatasetHandler creates a dataset handler. maxUploadBytes bounds what is
// read from a request body before the service sees it.
func NewDatasetHandler(service DatasetServiceInterface, validator *middleware.RequestValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *DatasetHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &DatasetHandler{
		service:        service,
		validator:      validator,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the session routes, mounted under /api/sessions
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateSession)

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(h.SessionCtx)

		r.Delete("/", h.CloseSession)

		r.With(middleware.ContentTypeValidator(h.errorHandler,
			"multipart/form-data",
			"text/",
			"application/octet-stream",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		)).Put("/dataset", h.Upload)
		r.Get("/dataset", h.GetDataset)
		r.Get("/cache", h.GetCacheStats)

		r.Get("/records", h.GetRecords)
		r.Get("/facets", h.GetFacets)
		r.Get("/kpis", h.GetKPIs)
		r.Get("/trend", h.GetTrend)
		r.Get("/top-species", h.GetTopSpecies)
		r.Get("/yearly", h.GetYearly)
		r.Get("/pivot", h.GetPivot)
		r.Get("/report", h.GetReport)
		r.Get("/export.{format}", h.Export)
	})

	return r
}

// SessionCtx validates the session path parameter and tags the request
// context with it for log correlation
func (h *DatasetHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" || len(sessionID) > 64 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sessionID", "Invalid session id"))
			return
		}

		ctx := infrastructure.WithSessionID(r.Context(), sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// CreateSession handles POST /api/sessions
func (h *DatasetHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.CreateSession(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.SessionResponse{SessionID: id})
}

// CloseSession handles DELETE /api/sessions/{sessionID}
func (h *DatasetHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CloseSession(r.Context(), sessionID(r)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload handles PUT /api/sessions/{sessionID}/dataset. The table arrives
// either as the "file" field of a multipart form or as the raw body.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sessionID(r)

	name, raw, err := h.readUpload(w, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "upload received",
		slog.String("name", name),
		slog.Int("bytes", len(raw)))

	ds, hit, err := h.service.Upload(ctx, id, name, raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.UploadResponse{
		SessionID: id,
		Dataset:   ds.Info,
		CacheHit:  hit,
	})
}

// readUpload reads at most maxUploadBytes+1 bytes of the upload so the
// service can reject oversize content with its own limit error
func (h *DatasetHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := h.maxUploadBytes + 1

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		body := http.MaxBytesReader(w, r.Body, limit)
		raw, err := io.ReadAll(body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", nil, apierrors.NewPayloadTooLargeError(h.maxUploadBytes, err)
			}
			return "", nil, apierrors.InvalidRequestWithError(err)
		}
		return uploadName(r.URL.Query().Get("name")), raw, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		return "", nil, apierrors.InvalidRequestWithError(err)
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return "", nil, apierrors.ErrValidation(uploadField, "multipart form has no file field")
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", nil, apierrors.NewPayloadTooLargeError(h.maxUploadBytes, err)
			}
			return "", nil, apierrors.InvalidRequestWithError(err)
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}

		raw, err := io.ReadAll(io.LimitReader(part, limit))
		part.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", nil, apierrors.NewPayloadTooLargeError(h.maxUploadBytes, err)
			}
			return "", nil, apierrors.InvalidRequestWithError(err)
		}
		return uploadName(part.FileName()), raw, nil
	}
}

func uploadName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}

// GetDataset handles GET /api/sessions/{sessionID}/dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Dataset(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetCacheStats handles GET /api/sessions/{sessionID}/cache
func (h *DatasetHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CacheStats(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

// filter decodes and validates the filter query parameters
func (h *DatasetHandler) filter(w http.ResponseWriter, r *http.Request) (domain.ProductionFilter, bool) {
	var req api.FilterRequest
	if err := h.validator.DecodeQuery(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.ProductionFilter{}, false
	}
	return req.ToDomain(), true
}

// GetRecords handles GET /api/sessions/{sessionID}/records
func (h *DatasetHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	records, err := h.service.Records(r.Context(), sessionID(r), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.RecordsResponse{Count: len(records), Records: records})
}

// GetFacets handles GET /api/sessions/{sessionID}/facets
func (h *DatasetHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, facets)
}

// GetKPIs handles GET /api/sessions/{sessionID}/kpis
func (h *DatasetHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	kpis, err := h.service.KPIs(r.Context(), sessionID(r), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, kpis)
}

// GetTrend handles GET /api/sessions/{sessionID}/trend
func (h *DatasetHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	trend, err := h.service.Trend(r.Context(), sessionID(r), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, trend)
}

// GetTopSpecies handles GET /api/sessions/{sessionID}/top-species?n=10
func (h *DatasetHandler) GetTopSpecies(w http.ResponseWriter, r *http.Request) {
	req := api.TopSpeciesRequest{N: config.DefaultTopSpecies}
	if err := h.validator.DecodeQuery(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	top, err := h.service.TopSpecies(r.Context(), sessionID(r), req.ToDomain(), req.N)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.TopSpeciesResponse{N: req.N, Species: top})
}

// GetYearly handles GET /api/sessions/{sessionID}/yearly
func (h *DatasetHandler) GetYearly(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	yearly, err := h.service.Yearly(r.Context(), sessionID(r), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, yearly)
}

// GetPivot handles GET /api/sessions/{sessionID}/pivot
func (h *DatasetHandler) GetPivot(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	pivot, err := h.service.Pivot(r.Context(), sessionID(r), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, pivot)
}

// GetReport handles GET /api/sessions/{sessionID}/report
func (h *DatasetHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	report, err := h.service.Report(r.Context(), sessionID(r), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Export handles GET /api/sessions/{sessionID}/export.{format}. The file is
// built in memory first so a failure still produces a problem response.
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be one of: csv, xlsx"))
		return
	}

	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	rows, err := h.service.Export(r.Context(), sessionID(r), filter, format, &buf)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("format", string(format)),
		slog.Int("rows", rows),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.Header().Set("X-Export-Rows", fmt.Sprint(rows))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
