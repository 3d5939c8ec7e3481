package jobqueue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/N-Schaef/shreddr/internal/docmodel"
)

var Logger *slog.Logger = slog.Default()

// Processor is the subset of the Index façade the worker needs to carry out
// queued jobs. Defined here rather than imported so jobqueue has no
// dependency on the façade package -- the façade depends on jobqueue, not
// the other way around.
type Processor interface {
	ImportFile(path string, copy bool) (docmodel.DocId, error)
	ReprocessFile(id docmodel.DocId, forceOCR bool) error
}

// Worker is the single dedicated consumer goroutine mandated by the
// single-writer discipline: exactly one goroutine ever calls into the
// façade's mutating operations.
type Worker struct {
	queue *Queue
	proc  Processor

	mu      sync.RWMutex
	current *Job
}

// NewWorker builds a Worker over q, dispatching to proc.
func NewWorker(q *Queue, proc Processor) *Worker {
	return &Worker{queue: q, proc: proc}
}

// Run drains the queue forever, dispatching each job to the Processor. It
// returns only once the queue is closed and drained. Errors are logged and
// do not stop the loop -- a single bad document must not wedge the queue.
func (w *Worker) Run() {
	for {
		job, ok := w.queue.Pop()
		if !ok {
			return
		}
		w.process(job)
	}
}

func (w *Worker) process(job Job) {
	job.Status = StatusRunning
	job.CurrentStep = "starting"
	job.UpdatedAt = time.Now()
	w.setCurrent(&job)

	var err error
	switch job.Type.Kind {
	case KindImportFile:
		job.CurrentStep = "importing"
		w.setCurrent(&job)
		_, err = w.proc.ImportFile(job.Type.Path, job.Type.Copy)
	case KindReprocessFile:
		job.CurrentStep = "reprocessing"
		w.setCurrent(&job)
		err = w.proc.ReprocessFile(job.Type.ID, job.Type.ForceOCR)
	}

	job.UpdatedAt = time.Now()
	if err != nil {
		Logger.Error("job failed", "job_id", job.ID.String(), "kind", job.Type.Kind, "error", err)
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusCompleted
		job.Progress = 100
	}
	w.setCurrent(&job)
}

func (w *Worker) setCurrent(job *Job) {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := *job
	w.current = &cp
}

// CurrentJob returns the most recently started job with its latest status;
// once that job finishes it is still returned, as completed or failed,
// until the next job starts. ok is false until the first job has started.
func (w *Worker) CurrentJob() (Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return Job{}, false
	}
	return *w.current, true
}
