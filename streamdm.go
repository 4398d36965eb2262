/*
Package streamdm trains hoeffding tree classifiers from example
streams. The tree model itself lives in the tree package; this
package provides the batch-parallel training protocol around it: a
source cuts a stream into batch tasks on a queue, workers fold each
batch into a disposable partial model, and every partial model is
merged back into the canonical tree under a single lock, where split
decisions are taken.
*/
package streamdm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ty01csbaidu/streamDM/dataset"
	"github.com/ty01csbaidu/streamDM/feature"
	"github.com/ty01csbaidu/streamDM/queue"
	"github.com/ty01csbaidu/streamDM/tree"
)

/*
Trainer owns the canonical model of a training run and serializes
every merge against it. Any number of workers may call Fold
concurrently; folding happens on private partial models and only the
final merge step synchronizes.
*/
type Trainer struct {
	mu     sync.Mutex
	model  *tree.Model
	logger *zap.SugaredLogger
}

/*
NewTrainer takes a model configuration and a logger and returns a
trainer with a fresh canonical model, or an error if the
configuration is invalid. A nil logger disables logging.
*/
func NewTrainer(cfg *tree.Config, logger *zap.SugaredLogger) (*Trainer, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	model, err := tree.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Trainer{model: model, logger: logger}, nil
}

/*
Resume returns a trainer continuing from the given model, so training
can pick up where a persisted run left off. A nil logger disables
logging.
*/
func Resume(model *tree.Model, logger *zap.SugaredLogger) *Trainer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Trainer{model: model, logger: logger}
}

/*
Model returns a deep-copy snapshot of the canonical model, safe to
read or keep folding into independently of ongoing training.
*/
func (tr *Trainer) Model() *tree.Model {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.model.Clone()
}

/*
Fold spawns a partial model mirroring the canonical model's current
structure, folds the given examples into it sequentially and merges
the result back into the canonical model, attempting a split on the
path of the batch's last example. It returns an error if the merge
fails or the context is cancelled.
*/
func (tr *Trainer) Fold(ctx context.Context, examples []*feature.Example) error {
	tr.mu.Lock()
	partial := tr.model.Spawn()
	tr.mu.Unlock()
	for _, e := range examples {
		if err := ctx.Err(); err != nil {
			return err
		}
		partial.Update(e)
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	_, err := tr.model.Merge(partial, true)
	if err != nil {
		return fmt.Errorf("merging partial model: %v", err)
	}
	return nil
}

/*
Seed takes a context, a stream, a queue and a batch size, cuts the
stream into batches of up to batchSize examples and pushes them as
tasks on the queue for workers to train from. It returns the number
of examples pushed and an error if the stream or the queue fail.
*/
func Seed(ctx context.Context, s dataset.Stream, q queue.Queue, batchSize int) (int, error) {
	var count, batch int
	for {
		examples, err := dataset.Batch(ctx, s, batchSize)
		if err != nil && err != io.EOF {
			return count, fmt.Errorf("reading batch %d: %v", batch, err)
		}
		if len(examples) > 0 {
			task := queue.NewTask(fmt.Sprintf("batch-%d", batch), examples)
			if perr := q.Push(ctx, task); perr != nil {
				return count, fmt.Errorf("pushing batch %d: %v", batch, perr)
			}
			count += len(examples)
			batch++
		}
		if err == io.EOF {
			return count, nil
		}
	}
}

/*
Work takes a context, a trainer, a queue and an emptyQueueSleep
duration and enters a loop in which it:
  - pulls a task from the queue,
  - folds the task's batch into the trainer,
  - marks the task as completed on the queue.

If at some point no task can be pulled and the sum of tasks running
and pending on the queue is 0, the worker ends returning nil. If no
task can be pulled but the sum is not 0, the worker sleeps for the
given emptyQueueSleep duration and retries.

Work returns a non-nil error if the given context times out or is
cancelled, if folding a batch fails or if an operation with the
given queue returns a non-nil error.
*/
func Work(ctx context.Context, tr *Trainer, q queue.Queue, emptyQueueSleep time.Duration) error {
	for {
		task, tctx, tcf, err := q.Pull(ctx)
		if err != nil {
			return err
		}
		if task == nil {
			pending, running, err := q.Count(ctx)
			if err != nil {
				return err
			}
			if pending+running == 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(emptyQueueSleep):
			}
			continue
		}
		mctx, cancel := mergeCtxCancel(tctx, ctx)
		err = workTask(mctx, task, tr, q)
		cancel()
		tcf()
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func workTask(ctx context.Context, task *queue.Task, tr *Trainer, q queue.Queue) error {
	defer func() {
		q.Drop(ctx, task.ID())
	}()
	tr.logger.Debugw("folding batch", "task", task.ID(), "examples", len(task.Examples))
	if err := tr.Fold(ctx, task.Examples); err != nil {
		return err
	}
	return q.Complete(ctx, task.ID())
}

func mergeCtxCancel(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	mctx, cancel := context.WithCancel(ctx1)
	go func() {
		select {
		case <-mctx.Done():
		case <-ctx2.Done():
			cancel()
		}
	}()
	return mctx, cancel
}

/*
Test takes a context, a trainer's model and a stream and returns the
prediction success rate of the model over the stream and the number
of examples tested, or an error if the stream fails.
*/
func Test(ctx context.Context, model *tree.Model, s dataset.Stream) (float64, int, error) {
	var correct, count int
	for {
		e, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, err
		}
		if model.Predict(e) == e.Class() {
			correct++
		}
		count++
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(correct) / float64(count), count, nil
}
