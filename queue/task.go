package queue

import (
	"fmt"

	"github.com/ty01csbaidu/streamDM/feature"
)

// Task represents one batch of labeled examples to be folded into a
// partial model and merged into the canonical tree.
type Task struct {
	// BatchID identifies the batch on the queue.
	BatchID string
	// Examples holds the batch, in stream order.
	Examples []*feature.Example
}

// NewTask returns a task for the given batch id and examples.
func NewTask(batchID string, examples []*feature.Example) *Task {
	return &Task{BatchID: batchID, Examples: examples}
}

// ID returns the string that identifies the task on a queue.
func (t *Task) ID() string {
	return t.BatchID
}

func (t *Task) String() string {
	return fmt.Sprintf("{Task %s: %d examples}", t.BatchID, len(t.Examples))
}
