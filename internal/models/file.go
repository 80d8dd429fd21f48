package models

import (
	"time"
)

type FileStatus string

const (
	StatusPending    FileStatus = "pending"
	StatusProcessing FileStatus = "processing"
	StatusFinished   FileStatus = "finished"
	StatusFailed     FileStatus = "failed"
)

// Result holds the encoded output of one conversion. It is attached to a
// SourceFile when the file reaches StatusFinished and never mutated after.
type Result struct {
	Data     []byte
	Size     int64
	Width    int
	Height   int
	MimeType string
	Filename string
}

// SourceFile is one user-added upload inside a batch. A file is finished
// if and only if Result is non-nil.
type SourceFile struct {
	ID           string
	Filename     string
	MimeType     string
	Data         []byte
	Status       FileStatus
	ErrorMessage string
	Result       *Result
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Batch is an insertion-ordered set of source files processed in one run.
type Batch struct {
	ID        string
	Files     []*SourceFile
	CreatedAt time.Time
	TouchedAt time.Time
}

// BatchRun is the summary row recorded after each driver pass.
type BatchRun struct {
	BatchID     string
	TraceID     string
	Format      string
	Total       int
	Finished    int
	Failed      int
	Skipped     int
	StartedAt   time.Time
	CompletedAt time.Time
}
