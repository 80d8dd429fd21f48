package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/truelectro/image-resampler/internal/dto"
	"github.com/truelectro/image-resampler/internal/middleware"
	"github.com/truelectro/image-resampler/internal/store"
)

// BatchService is the surface the HTTP layer needs from the batch service.
type BatchService interface {
	CreateBatch(ctx context.Context) (*dto.BatchResponse, error)
	GetBatch(ctx context.Context, batchID string) (*dto.BatchResponse, error)
	DeleteBatch(ctx context.Context, batchID string) error
	AddFile(ctx context.Context, batchID, filename, mimeType string, data []byte) (*dto.FileResponse, error)
	RemoveFile(ctx context.Context, batchID, fileID string) error
	Process(ctx context.Context, traceID, batchID string, req *dto.ProcessRequest) (*dto.RunSummary, error)
	FileStatus(ctx context.Context, batchID, fileID string) (*dto.FileStatusResponse, error)
	FileContent(ctx context.Context, batchID, fileID string) ([]byte, string, error)
	ResultContent(ctx context.Context, batchID, fileID string) ([]byte, string, string, error)
	Archive(ctx context.Context, batchID string, w io.Writer) (int, error)
}

type BatchHandler struct {
	service     BatchService
	logger      *zap.Logger
	validator   *validator.Validate
	maxUploadMB int64
}

func NewBatchHandler(service BatchService, maxUploadMB int64, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		service:     service,
		logger:      logger,
		validator:   validator.New(),
		maxUploadMB: maxUploadMB,
	}
}

func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	resp, err := h.service.CreateBatch(r.Context())
	if err != nil {
		h.handleError(w, "Failed to create batch", err, traceID)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	resp, err := h.service.GetBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		h.handleError(w, "Failed to get batch", err, traceID)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *BatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if err := h.service.DeleteBatch(r.Context(), chi.URLParam(r, "batchID")); err != nil {
		h.handleError(w, "Failed to delete batch", err, traceID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BatchHandler) Upload(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())
	batchID := chi.URLParam(r, "batchID")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB<<20)

	if err := r.ParseMultipartForm(h.maxUploadMB << 20); err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to parse form", traceID)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, `missing file: form field key should be "file"`, traceID)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(w, "Failed to read file", err, traceID)
		return
	}

	mime := mimetype.Detect(data)
	if !isAllowedImageType(mime.String()) {
		h.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type: %s", mime.String()), traceID)
		return
	}

	resp, err := h.service.AddFile(r.Context(), batchID, header.Filename, mime.String(), data)
	if err != nil {
		h.handleError(w, "Failed to add file", err, traceID)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *BatchHandler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	err := h.service.RemoveFile(r.Context(), chi.URLParam(r, "batchID"), chi.URLParam(r, "fileID"))
	if err != nil {
		h.handleError(w, "Failed to remove file", err, traceID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BatchHandler) Process(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())
	batchID := chi.URLParam(r, "batchID")

	var req dto.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", traceID)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, validationMessage(err), traceID)
		return
	}
	if req.Percent > 0 && req.Width > 0 {
		h.respondError(w, http.StatusBadRequest, "percent and width are mutually exclusive", traceID)
		return
	}

	summary, err := h.service.Process(r.Context(), traceID, batchID, &req)
	if err != nil {
		h.handleError(w, "Failed to process batch", err, traceID)
		return
	}

	h.logger.Info("Batch processed",
		zap.String("trace_id", traceID),
		zap.String("batch_id", batchID),
		zap.Int("finished", summary.Finished),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)

	h.respondJSON(w, http.StatusOK, summary)
}

func (h *BatchHandler) FileStatus(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	resp, err := h.service.FileStatus(r.Context(), chi.URLParam(r, "batchID"), chi.URLParam(r, "fileID"))
	if err != nil {
		h.handleError(w, "Failed to get file status", err, traceID)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// FilePreview serves the original upload.
func (h *BatchHandler) FilePreview(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	data, mime, err := h.service.FileContent(r.Context(), chi.URLParam(r, "batchID"), chi.URLParam(r, "fileID"))
	if err != nil {
		h.handleError(w, "Failed to get file", err, traceID)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Write(data)
}

// FileResult serves the converted output of one file.
func (h *BatchHandler) FileResult(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	data, mime, filename, err := h.service.ResultContent(r.Context(), chi.URLParam(r, "batchID"), chi.URLParam(r, "fileID"))
	if err != nil {
		h.handleError(w, "Failed to get result", err, traceID)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// Archive bundles every finished result into one zip download.
func (h *BatchHandler) Archive(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())
	batchID := chi.URLParam(r, "batchID")

	buf := new(bytes.Buffer)
	count, err := h.service.Archive(r.Context(), batchID, buf)
	if err != nil {
		h.handleError(w, "Failed to build archive", err, traceID)
		return
	}
	if count == 0 {
		h.respondError(w, http.StatusNotFound, "batch has no finished files", traceID)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "batch-"+batchID+".zip"))
	w.Write(buf.Bytes())
}

func (h *BatchHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *BatchHandler) handleError(w http.ResponseWriter, message string, err error, traceID string) {
	switch {
	case errors.Is(err, store.ErrBatchNotFound) || errors.Is(err, store.ErrFileNotFound):
		h.respondError(w, http.StatusNotFound, err.Error(), traceID)
	case errors.Is(err, store.ErrBatchBusy):
		h.respondError(w, http.StatusConflict, err.Error(), traceID)
	default:
		h.logger.Error(message,
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, message, traceID)
	}
}

func (h *BatchHandler) respondError(w http.ResponseWriter, status int, message, traceID string) {
	h.respondJSON(w, status, dto.ErrorResponse{Error: message, TraceID: traceID})
}

func (h *BatchHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
