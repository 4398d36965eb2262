package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ty01csbaidu/streamDM/feature"
)

func batchTask(id string) *Task {
	return NewTask(id, []*feature.Example{feature.NewExample([]float64{1}, 0)})
}

func TestMemQueue(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	require.NoError(t, q.Push(ctx, batchTask("batch-0")))
	require.NoError(t, q.Push(ctx, batchTask("batch-1")))
	pending, running, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
	assert.Equal(t, 0, running)

	task, tctx, tcf, err := q.Pull(ctx)
	require.NoError(t, err)
	require.NotNil(t, task)
	require.NotNil(t, tctx)
	defer tcf()
	assert.Equal(t, "batch-0", task.ID())
	pending, running, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, running)

	require.NoError(t, q.Complete(ctx, task.ID()))
	pending, running, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 0, running)

	// Dropping after completion is a no-op.
	require.NoError(t, q.Drop(ctx, task.ID()))
	pending, _, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestMemQueueDropRequeues(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	require.NoError(t, q.Push(ctx, batchTask("batch-0")))
	task, _, tcf, err := q.Pull(ctx)
	require.NoError(t, err)
	tcf()
	require.NoError(t, q.Drop(ctx, task.ID()))

	again, _, tcf, err := q.Pull(ctx)
	require.NoError(t, err)
	defer tcf()
	assert.Equal(t, task.ID(), again.ID())
}

func TestMemQueuePullEmpty(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)

	task, tctx, tcf, err := q.Pull(ctx)
	assert.NoError(t, err)
	assert.Nil(t, task)
	assert.Nil(t, tctx)
	assert.Nil(t, tcf)
}

func TestMemQueueHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := New()
	assert.Error(t, q.Push(ctx, batchTask("batch-0")))
	_, _, _, err := q.Pull(ctx)
	assert.Error(t, err)
	_, _, err = q.Count(ctx)
	assert.Error(t, err)
}

func TestStopCancelsPulledContexts(t *testing.T) {
	ctx := context.Background()
	q := New()
	require.NoError(t, q.Push(ctx, batchTask("batch-0")))
	_, tctx, tcf, err := q.Pull(ctx)
	require.NoError(t, err)
	defer tcf()
	require.NoError(t, q.Stop(ctx))
	<-tctx.Done()
	assert.Error(t, tctx.Err())
}

func TestWaitForEmptyQueue(t *testing.T) {
	ctx := context.Background()
	q := New()
	defer q.Stop(ctx)
	assert.NoError(t, WaitFor(ctx, q))
}

func TestTaskString(t *testing.T) {
	task := batchTask("batch-7")
	assert.Equal(t, "batch-7", task.ID())
	assert.Contains(t, task.String(), "batch-7")
}
