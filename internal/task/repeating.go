package task

import (
	"context"
	"sync"
	"time"
)

// RepeatingTask executes a task in a specific interval asynchronously.
// The context passed to the task is cancelled once the task is stopped.
type RepeatingTask struct {
	task     func(ctx context.Context)
	interval time.Duration

	mtx     sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRepeating creates a new repeating asynchronous task
func NewRepeating(task func(ctx context.Context), interval time.Duration) *RepeatingTask {
	return &RepeatingTask{
		task:     task,
		interval: interval,
	}
}

// Start starts the repeating task.
// If the task is already running, this is a no-op.
func (task *RepeatingTask) Start() {
	task.mtx.Lock()
	defer task.mtx.Unlock()
	if task.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(task.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				task.task(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	task.running = true
	task.cancel = cancel
	task.done = done
}

// Stop stops the repeating task and waits for a currently running execution to finish.
// If the task is not running, this is a no-op.
// forceExec defines whether to execute the task one last time just before the task shuts down.
func (task *RepeatingTask) Stop(forceExec bool) {
	task.mtx.Lock()
	defer task.mtx.Unlock()
	if !task.running {
		return
	}
	task.cancel()
	<-task.done
	task.running = false
	if forceExec {
		task.task(context.Background())
	}
}

// Running reports whether the task is currently scheduled
func (task *RepeatingTask) Running() bool {
	task.mtx.Lock()
	defer task.mtx.Unlock()
	return task.running
}
