package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/truelectro/image-resampler/internal/archive"
	"github.com/truelectro/image-resampler/internal/cache"
	"github.com/truelectro/image-resampler/internal/converter"
	"github.com/truelectro/image-resampler/internal/dto"
	"github.com/truelectro/image-resampler/internal/models"
	"github.com/truelectro/image-resampler/internal/repository"
	"github.com/truelectro/image-resampler/internal/store"
	"github.com/truelectro/image-resampler/internal/upscale"
)

type Converter interface {
	Convert(src []byte, mimeType, filename string, opts converter.Options) (*models.Result, error)
}

type BatchService struct {
	store    *store.Store
	conv     Converter
	upscaler upscale.Upscaler
	statuses *cache.StatusCache
	history  repository.Repository
	logger   *zap.Logger
}

func New(st *store.Store, conv Converter, up upscale.Upscaler, statuses *cache.StatusCache, history repository.Repository, logger *zap.Logger) *BatchService {
	if history == nil {
		history = repository.Noop{}
	}
	return &BatchService{
		store:    st,
		conv:     conv,
		upscaler: up,
		statuses: statuses,
		history:  history,
		logger:   logger,
	}
}

func (s *BatchService) CreateBatch(ctx context.Context) (*dto.BatchResponse, error) {
	b := s.store.CreateBatch()
	s.logger.Info("Batch created", zap.String("batch_id", b.ID))
	return toBatchResponse(b), nil
}

func (s *BatchService) GetBatch(ctx context.Context, batchID string) (*dto.BatchResponse, error) {
	b, err := s.store.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	return toBatchResponse(b), nil
}

func (s *BatchService) DeleteBatch(ctx context.Context, batchID string) error {
	b, err := s.store.GetBatch(batchID)
	if err != nil {
		return err
	}
	for _, f := range b.Files {
		if err := s.statuses.Delete(ctx, f.ID); err != nil {
			s.logger.Warn("Failed to drop cached status", zap.String("file_id", f.ID), zap.Error(err))
		}
	}
	return s.store.DeleteBatch(batchID)
}

func (s *BatchService) AddFile(ctx context.Context, batchID, filename, mimeType string, data []byte) (*dto.FileResponse, error) {
	f, err := s.store.AddFile(batchID, filename, mimeType, data)
	if err != nil {
		return nil, err
	}

	if err := s.statuses.Set(ctx, f.ID, f.Status); err != nil {
		s.logger.Warn("Failed to cache status", zap.String("file_id", f.ID), zap.Error(err))
	}

	s.logger.Info("File added",
		zap.String("batch_id", batchID),
		zap.String("file_id", f.ID),
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
	)

	resp := toFileResponse(batchID, f)
	return &resp, nil
}

func (s *BatchService) RemoveFile(ctx context.Context, batchID, fileID string) error {
	if err := s.store.RemoveFile(batchID, fileID); err != nil {
		return err
	}
	if err := s.statuses.Delete(ctx, fileID); err != nil {
		s.logger.Warn("Failed to drop cached status", zap.String("file_id", fileID), zap.Error(err))
	}
	return nil
}

// Process runs one sequential driver pass over the batch: every file that is
// not already finished is converted with the requested settings, in insertion
// order. A failing item is marked failed and the pass moves on.
func (s *BatchService) Process(ctx context.Context, traceID, batchID string, req *dto.ProcessRequest) (*dto.RunSummary, error) {
	if err := s.store.BeginRun(batchID); err != nil {
		return nil, err
	}
	defer s.store.EndRun(batchID)

	b, err := s.store.GetBatch(batchID)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	summary := &dto.RunSummary{BatchID: batchID, Total: len(b.Files)}

	opts := converter.Options{
		Format:  converter.Format(req.Format),
		Percent: req.Percent,
		Width:   req.Width,
		Height:  req.Height,
		Quality: req.Quality,
	}

	for _, f := range b.Files {
		if f.Status == models.StatusFinished {
			summary.Skipped++
			continue
		}

		s.setProcessing(ctx, batchID, f.ID)

		res, err := s.convertOne(ctx, f, req.Upscale, opts)
		if err != nil {
			s.logger.Error("Conversion failed",
				zap.String("trace_id", traceID),
				zap.String("batch_id", batchID),
				zap.String("file_id", f.ID),
				zap.String("filename", f.Filename),
				zap.Error(err),
			)
			s.setFailed(ctx, batchID, f.ID, err.Error())
			summary.Failed++
			continue
		}

		s.setFinished(ctx, batchID, f.ID, res)
		summary.Finished++

		s.logger.Info("File converted",
			zap.String("trace_id", traceID),
			zap.String("batch_id", batchID),
			zap.String("file_id", f.ID),
			zap.String("output", res.Filename),
			zap.Int("width", res.Width),
			zap.Int("height", res.Height),
			zap.Int64("bytes", res.Size),
		)
	}

	run := &models.BatchRun{
		BatchID:     batchID,
		TraceID:     traceID,
		Format:      req.Format,
		Total:       summary.Total,
		Finished:    summary.Finished,
		Failed:      summary.Failed,
		Skipped:     summary.Skipped,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
	}
	if err := s.history.RecordRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record batch run", zap.String("batch_id", batchID), zap.Error(err))
	}

	return summary, nil
}

func (s *BatchService) convertOne(ctx context.Context, f *models.SourceFile, wantUpscale bool, opts converter.Options) (*models.Result, error) {
	data := f.Data

	if wantUpscale {
		if s.upscaler == nil {
			s.logger.Warn("Upscaling requested but no upscaler configured", zap.String("file_id", f.ID))
		} else {
			up, err := s.upscaler.Upscale(ctx, data, f.MimeType)
			if err != nil {
				return nil, fmt.Errorf("upscale: %w", err)
			}
			data = up
			opts.Upscaled = true
		}
	}

	return s.conv.Convert(data, f.MimeType, f.Filename, opts)
}

// FileStatus answers from the status cache when possible and falls back to
// the authoritative store.
func (s *BatchService) FileStatus(ctx context.Context, batchID, fileID string) (*dto.FileStatusResponse, error) {
	if status, err := s.statuses.Get(ctx, fileID); err == nil {
		return &dto.FileStatusResponse{ID: fileID, Status: string(status)}, nil
	}

	f, err := s.store.GetFile(batchID, fileID)
	if err != nil {
		return nil, err
	}

	if err := s.statuses.Set(ctx, f.ID, f.Status); err != nil {
		s.logger.Warn("Failed to cache status", zap.String("file_id", f.ID), zap.Error(err))
	}

	return &dto.FileStatusResponse{ID: f.ID, Status: string(f.Status)}, nil
}

// FileContent returns the original upload for preview rendering.
func (s *BatchService) FileContent(ctx context.Context, batchID, fileID string) ([]byte, string, error) {
	f, err := s.store.GetFile(batchID, fileID)
	if err != nil {
		return nil, "", err
	}
	return f.Data, f.MimeType, nil
}

// ResultContent returns the converted output for preview or download.
func (s *BatchService) ResultContent(ctx context.Context, batchID, fileID string) ([]byte, string, string, error) {
	f, err := s.store.GetFile(batchID, fileID)
	if err != nil {
		return nil, "", "", err
	}
	if f.Result == nil {
		return nil, "", "", store.ErrFileNotFound
	}
	return f.Result.Data, f.Result.MimeType, f.Result.Filename, nil
}

// Archive streams a zip of all finished results to w and returns the entry
// count.
func (s *BatchService) Archive(ctx context.Context, batchID string, w io.Writer) (int, error) {
	b, err := s.store.GetBatch(batchID)
	if err != nil {
		return 0, err
	}
	return archive.Build(w, b.Files)
}

func (s *BatchService) setProcessing(ctx context.Context, batchID, fileID string) {
	if err := s.store.SetProcessing(batchID, fileID); err != nil {
		s.logger.Warn("Failed to update status", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	if err := s.statuses.Set(ctx, fileID, models.StatusProcessing); err != nil {
		s.logger.Warn("Failed to cache status", zap.String("file_id", fileID), zap.Error(err))
	}
}

func (s *BatchService) setFinished(ctx context.Context, batchID, fileID string, res *models.Result) {
	if err := s.store.SetFinished(batchID, fileID, res); err != nil {
		s.logger.Warn("Failed to attach result", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	if err := s.statuses.Set(ctx, fileID, models.StatusFinished); err != nil {
		s.logger.Warn("Failed to cache status", zap.String("file_id", fileID), zap.Error(err))
	}
}

func (s *BatchService) setFailed(ctx context.Context, batchID, fileID, errMsg string) {
	if err := s.store.SetFailed(batchID, fileID, errMsg); err != nil {
		s.logger.Warn("Failed to update status", zap.String("file_id", fileID), zap.Error(err))
		return
	}
	if err := s.statuses.Set(ctx, fileID, models.StatusFailed); err != nil {
		s.logger.Warn("Failed to cache status", zap.String("file_id", fileID), zap.Error(err))
	}
}

func toBatchResponse(b *models.Batch) *dto.BatchResponse {
	files := make([]dto.FileResponse, 0, len(b.Files))
	for _, f := range b.Files {
		files = append(files, toFileResponse(b.ID, f))
	}
	return &dto.BatchResponse{
		ID:        b.ID,
		Files:     files,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toFileResponse(batchID string, f *models.SourceFile) dto.FileResponse {
	resp := dto.FileResponse{
		ID:           f.ID,
		Filename:     f.Filename,
		MimeType:     f.MimeType,
		Size:         int64(len(f.Data)),
		Status:       string(f.Status),
		ErrorMessage: f.ErrorMessage,
		PreviewURL:   fmt.Sprintf("/api/batches/%s/files/%s", batchID, f.ID),
		CreatedAt:    f.CreatedAt.UTC().Format(time.RFC3339),
	}
	if f.Result != nil {
		resp.Result = &dto.ResultResponse{
			Filename:   f.Result.Filename,
			Size:       f.Result.Size,
			Width:      f.Result.Width,
			Height:     f.Result.Height,
			MimeType:   f.Result.MimeType,
			PreviewURL: fmt.Sprintf("/api/batches/%s/files/%s/result", batchID, f.ID),
		}
	}
	return resp
}
