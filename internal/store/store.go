package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/truelectro/image-resampler/internal/models"
)

var (
	ErrBatchNotFound = errors.New("batch not found")
	ErrFileNotFound  = errors.New("file not found")
	ErrBatchBusy     = errors.New("batch is already being processed")
)

// Store is the in-memory state container for all batches and their files.
// It is the only shared mutable state in the service; every mutation goes
// through its methods under the store lock.
type Store struct {
	mu      sync.Mutex
	batches map[string]*models.Batch
	running map[string]bool
	ttl     time.Duration
	logger  *zap.Logger
}

func New(ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		batches: make(map[string]*models.Batch),
		running: make(map[string]bool),
		ttl:     ttl,
		logger:  logger,
	}
}

func (s *Store) CreateBatch() *models.Batch {
	now := time.Now()
	b := &models.Batch{
		ID:        uuid.New().String(),
		CreatedAt: now,
		TouchedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
	return b
}

// GetBatch returns a shallow snapshot of the batch: the file slice is copied
// so callers can iterate without holding the store lock, but the file
// records themselves are shared and must only be mutated via Store methods.
func (s *Store) GetBatch(id string) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return nil, ErrBatchNotFound
	}
	b.TouchedAt = time.Now()

	snapshot := *b
	snapshot.Files = append([]*models.SourceFile(nil), b.Files...)
	return &snapshot, nil
}

func (s *Store) DeleteBatch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[id]; !ok {
		return ErrBatchNotFound
	}
	delete(s.batches, id)
	delete(s.running, id)
	return nil
}

func (s *Store) AddFile(batchID, filename, mimeType string, data []byte) (*models.SourceFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}

	now := time.Now()
	f := &models.SourceFile{
		ID:        uuid.New().String(),
		Filename:  filename,
		MimeType:  mimeType,
		Data:      data,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Files = append(b.Files, f)
	b.TouchedAt = now
	return f, nil
}

func (s *Store) RemoveFile(batchID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return ErrBatchNotFound
	}

	for i, f := range b.Files {
		if f.ID == fileID {
			b.Files = append(b.Files[:i], b.Files[i+1:]...)
			b.TouchedAt = time.Now()
			return nil
		}
	}
	return ErrFileNotFound
}

func (s *Store) GetFile(batchID, fileID string) (*models.SourceFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findFile(batchID, fileID)
}

// SetProcessing transitions a file to the processing status.
func (s *Store) SetProcessing(batchID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.findFile(batchID, fileID)
	if err != nil {
		return err
	}
	f.Status = models.StatusProcessing
	f.ErrorMessage = ""
	f.UpdatedAt = time.Now()
	return nil
}

// SetFinished attaches the conversion result and marks the file finished.
// The result is immutable from here on.
func (s *Store) SetFinished(batchID, fileID string, res *models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.findFile(batchID, fileID)
	if err != nil {
		return err
	}
	f.Result = res
	f.Status = models.StatusFinished
	f.ErrorMessage = ""
	f.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetFailed(batchID, fileID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.findFile(batchID, fileID)
	if err != nil {
		return err
	}
	f.Result = nil
	f.Status = models.StatusFailed
	f.ErrorMessage = errMsg
	f.UpdatedAt = time.Now()
	return nil
}

// BeginRun takes the per-batch processing lock. A batch runs at most one
// driver pass at a time; a second trigger fails with ErrBatchBusy.
func (s *Store) BeginRun(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[batchID]; !ok {
		return ErrBatchNotFound
	}
	if s.running[batchID] {
		return ErrBatchBusy
	}
	s.running[batchID] = true
	return nil
}

func (s *Store) EndRun(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, batchID)
}

// StartSweeper evicts batches idle for longer than the store TTL. A zero
// TTL disables eviction.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	for id, b := range s.batches {
		if s.running[id] || b.TouchedAt.After(cutoff) {
			continue
		}
		delete(s.batches, id)
		s.logger.Info("Evicted idle batch",
			zap.String("batch_id", id),
			zap.Int("files", len(b.Files)),
		)
	}
}

func (s *Store) findFile(batchID, fileID string) (*models.SourceFile, error) {
	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	for _, f := range b.Files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return nil, ErrFileNotFound
}
