package worker

import (
	"fmt"
	"time"

	"texopt/internal/models"
)

// Processor runs the per-file state machine. Satisfied by
// converter.Converter; stubbed in tests.
type Processor interface {
	Process(task models.Task, cancel *models.CancelFlag) models.Outcome
}

// Worker consumes tasks from the shared channel and reports one terminal
// StatusUpdate per task.
type Worker struct {
	id        int
	taskChan  <-chan models.Task
	statusCh  chan<- models.StatusUpdate
	processor Processor
	cancel    *models.CancelFlag
	done      chan struct{}
}

// New creates a worker.
func New(id int, taskChan <-chan models.Task, statusCh chan<- models.StatusUpdate,
	processor Processor, cancel *models.CancelFlag) *Worker {
	return &Worker{
		id:        id,
		taskChan:  taskChan,
		statusCh:  statusCh,
		processor: processor,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start begins the worker's processing loop. The loop exits when the task
// channel is closed and drained; cancelled tasks still pass through the
// processor so every discovered file yields exactly one outcome.
func (w *Worker) Start() {
	go func() {
		defer close(w.done)
		for task := range w.taskChan {
			update := w.processTask(task)
			w.statusCh <- update
		}
	}()
}

// Done returns a channel closed when the worker has finished.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// processTask runs one task, converting a panic into a failed outcome so a
// single bad file can never abort the batch.
func (w *Worker) processTask(task models.Task) (update models.StatusUpdate) {
	start := time.Now()
	update = models.StatusUpdate{WorkerID: w.id, SourcePath: task.SourcePath}

	defer func() {
		if r := recover(); r != nil {
			update.Outcome = models.Outcome{
				Kind:    models.OutcomeFailed,
				Failure: models.FailureUnexpected,
				Err:     fmt.Errorf("panic while processing %s: %v", task.SourcePath, r),
			}
			update.Duration = time.Since(start)
		}
	}()

	update.Outcome = w.processor.Process(task, w.cancel)
	update.Duration = time.Since(start)
	return update
}
