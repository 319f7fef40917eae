package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsail/dirsail/task"
)

func TestSubmitRunsToSuccess(t *testing.T) {
	s := New(context.Background(), 0)
	defer s.Stop()

	done := make(chan struct{})
	tk := s.Submit(WorkerFile, Normal, task.KindPaste, func(ctx context.Context, out chan<- task.Out) {
		out <- task.NewTotal(1)
		out <- task.Succ()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}

	// give the Apply goroutine a moment to drain before checking removal
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, s.Ongoing.Get(tk.ID))
}

func TestHighPriorityRunsBeforeQueuedLow(t *testing.T) {
	s := New(context.Background(), 0)
	defer s.Stop()

	// Block the single File worker on a low-priority task first so
	// subsequent submissions queue up rather than racing into the worker.
	blockRelease := make(chan struct{})
	blockStarted := make(chan struct{})
	s.Submit(WorkerFile, Low, task.KindDelete, func(ctx context.Context, out chan<- task.Out) {
		close(blockStarted)
		<-blockRelease
		out <- task.Succ()
	})
	<-blockStarted

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	wg.Add(2)

	s.Submit(WorkerFile, Low, task.KindDelete, func(ctx context.Context, out chan<- task.Out) {
		mu.Lock()
		order = append(order, "low")
		mu.Unlock()
		out <- task.Succ()
		wg.Done()
	})
	s.Submit(WorkerFile, High, task.KindDelete, func(ctx context.Context, out chan<- task.Out) {
		mu.Lock()
		order = append(order, "high")
		mu.Unlock()
		out <- task.Succ()
		wg.Done()
	})

	close(blockRelease)
	waitOrTimeout(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 2)
	assert.Equal(t, "high", order[0], "high priority must drain before low once both are queued")
}

func TestCancelPropagatesToRunContext(t *testing.T) {
	s := New(context.Background(), 0)
	defer s.Stop()

	canceled := make(chan bool, 1)
	started := make(chan struct{})
	tk := s.Submit(WorkerProcess, Normal, task.KindProcess, func(ctx context.Context, out chan<- task.Out) {
		close(started)
		<-ctx.Done()
		canceled <- true
		out <- task.Fail(ctx.Err())
	})
	<-started
	s.Ongoing.Cancel(tk.ID)

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("run context was never cancelled")
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}
}
