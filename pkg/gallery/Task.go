package gallery

import (
	"context"
	"sync"
)

/*
Task is the handle of one background listing fetch. A task that finishes
after being superseded or aborted reports Stale and a nil error: its result
was thrown away on purpose.
*/
type Task struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	err    error
	stale  bool
}

func newTask(cancel context.CancelFunc) *Task {
	return &Task{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Wait() error {
	<-t.done
	return t.err
}

/*
WaitContext waits for the task or for ctx, whichever ends first. Giving up on
the wait does not cancel the task.
*/
func (t *Task) WaitContext(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) Stale() bool {
	<-t.done
	return t.stale
}

func (t *Task) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *Task) finish(err error, stale bool) {
	t.once.Do(func() {
		t.err = err
		t.stale = stale
		close(t.done)
	})
}
