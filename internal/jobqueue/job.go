// Package jobqueue implements the unbounded MPSC job queue and the single
// dedicated worker that drains it, per the single-writer discipline.
package jobqueue

import (
	"time"

	"github.com/N-Schaef/shreddr/internal/docmodel"
	"github.com/oklog/ulid/v2"
)

// JobType is a tagged union of the two ingest operations the worker
// understands.
type JobType struct {
	Kind JobKind

	// ImportFile fields.
	Path string
	Copy bool

	// ReprocessFile fields.
	ID       docmodel.DocId
	ForceOCR bool
}

// JobKind discriminates JobType's variant.
type JobKind int

const (
	KindImportFile JobKind = iota
	KindReprocessFile
)

// ImportFile builds an ImportFile job.
func ImportFile(path string, copy bool) JobType {
	return JobType{Kind: KindImportFile, Path: path, Copy: copy}
}

// ReprocessFile builds a ReprocessFile job.
func ReprocessFile(id docmodel.DocId, forceOCR bool) JobType {
	return JobType{Kind: KindReprocessFile, ID: id, ForceOCR: forceOCR}
}

// Status mirrors the teacher's database.JobStatus, adapted to live
// in-memory rather than be persisted to a row.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is a single unit of queued work with its tracked progress, shaped
// after the teacher's database.Job but held entirely in memory.
type Job struct {
	ID          ulid.ULID
	Type        JobType
	Status      Status
	Progress    int // 0-100
	CurrentStep string
	Message     string
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newJob(t JobType) Job {
	now := time.Now()
	return Job{
		ID:        ulid.Make(),
		Type:      t,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
