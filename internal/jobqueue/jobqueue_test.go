package jobqueue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/N-Schaef/shreddr/internal/docmodel"
)

type fakeProcessor struct {
	mu       sync.Mutex
	imported []string
	reprocessed []docmodel.DocId
	failPath string
}

func (f *fakeProcessor) ImportFile(path string, copy bool) (docmodel.DocId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path == f.failPath {
		return 0, errors.New("boom")
	}
	f.imported = append(f.imported, path)
	return docmodel.DocId(len(f.imported)), nil
}

func (f *fakeProcessor) ReprocessFile(id docmodel.DocId, forceOCR bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reprocessed = append(f.reprocessed, id)
	return nil
}

func TestWorkerProcessesQueuedJobsInOrder(t *testing.T) {
	q := NewQueue()
	proc := &fakeProcessor{}
	w := NewWorker(q, proc)

	q.Push(ImportFile("a.pdf", true))
	q.Push(ImportFile("b.pdf", true))
	q.Push(ReprocessFile(docmodel.DocId(7), false))
	q.Close()

	w.Run()

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.imported) != 2 || proc.imported[0] != "a.pdf" || proc.imported[1] != "b.pdf" {
		t.Fatalf("unexpected imported order: %v", proc.imported)
	}
	if len(proc.reprocessed) != 1 || proc.reprocessed[0] != docmodel.DocId(7) {
		t.Fatalf("unexpected reprocessed: %v", proc.reprocessed)
	}

	job, ok := w.CurrentJob()
	if !ok {
		t.Fatal("expected a current job to be recorded")
	}
	if job.Status != StatusCompleted {
		t.Fatalf("expected last job to be completed, got %s", job.Status)
	}
}

func TestWorkerContinuesPastFailedJob(t *testing.T) {
	q := NewQueue()
	proc := &fakeProcessor{failPath: "bad.pdf"}
	w := NewWorker(q, proc)

	q.Push(ImportFile("bad.pdf", true))
	q.Push(ImportFile("good.pdf", true))
	q.Close()

	w.Run()

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.imported) != 1 || proc.imported[0] != "good.pdf" {
		t.Fatalf("expected the queue to continue past the failed job, got %v", proc.imported)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()

	done := make(chan Job, 1)
	go func() {
		job, ok := q.Pop()
		if !ok {
			return
		}
		done <- job
	}()

	time.Sleep(10 * time.Millisecond)
	pushed := q.Push(ImportFile("later.pdf", false))

	select {
	case got := <-done:
		if got.ID != pushed.ID {
			t.Fatalf("popped job %v, expected %v", got.ID, pushed.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for blocked Pop to return")
	}
}

func TestQueueLenReflectsPendingJobs(t *testing.T) {
	q := NewQueue()
	q.Push(ImportFile("a.pdf", false))
	q.Push(ImportFile("b.pdf", false))
	if got := q.Len(); got != 2 {
		t.Fatalf("expected Len() == 2, got %d", got)
	}
	q.Pop()
	if got := q.Len(); got != 1 {
		t.Fatalf("expected Len() == 1 after one Pop, got %d", got)
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := NewQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected Pop to report ok=false after Close with no jobs")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Close to unblock Pop")
	}
}
