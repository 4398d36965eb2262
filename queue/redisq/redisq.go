/*
Package redisq provides a queue.Queue backed by a redis server, so a
batch source and the training workers can run on different processes
or hosts. The queue keeps its state under keys prefixed with the
queue id:
  - id:pending is a list with the ids of the pending tasks
  - id:running is a hash from running task ids to the unix time at
    which the task is considered abandoned and requeued
  - id:task:task_id holds the encoded task data

Tasks are encoded and decoded with the given EncodeDecoder. The
returned queue is safe for concurrent use by multiple goroutines and
processes.
*/
package redisq

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "gopkg.in/redis.v5"

	"github.com/ty01csbaidu/streamDM/queue"
)

/*
EncodeDecoder is an interface for objects that allow encoding tasks
as slices of bytes and decoding them back to tasks. It is used to
serialize tasks into a representation to store on redis.
*/
type EncodeDecoder interface {
	// Encode receives a *queue.Task and returns a slice of bytes
	// with the task encoded or an error if the encoding could not be
	// performed for some reason.
	Encode(context.Context, *queue.Task) ([]byte, error)
	// Decode receives a slice of bytes and returns a *queue.Task
	// decoded from the slice of bytes or an error if the decoding
	// could not be performed for some reason.
	Decode(context.Context, []byte) (*queue.Task, error)
}

type redisQ struct {
	id         string
	rc         *redis.Client
	taskMaxRun time.Duration
	allTaskCtx context.Context
	allTaskCF  context.CancelFunc
	EncodeDecoder
}

/*
New returns a queue.Queue that uses the given redis client as
backend, prefixing its keys with the given id. A task pulled but
neither completed nor dropped within taskMaxRun is considered
abandoned by a failed worker and requeued; a zero taskMaxRun
disables requeuing.
*/
func New(id string, rc *redis.Client, taskMaxRun time.Duration, encDec EncodeDecoder) queue.Queue {
	ctx, cf := context.WithCancel(context.Background())
	rq := &redisQ{
		id:            id,
		rc:            rc,
		taskMaxRun:    taskMaxRun,
		allTaskCtx:    ctx,
		allTaskCF:     cf,
		EncodeDecoder: encDec,
	}
	if taskMaxRun > 0 {
		go rq.requeueAbandonedTasks()
	}
	return rq
}

func (rq *redisQ) Push(ctx context.Context, t *queue.Task) error {
	data, err := rq.Encode(ctx, t)
	if err != nil {
		return fmt.Errorf("pushing task %s to queue: %v", t.ID(), err)
	}
	ok, err := rq.rc.SetNX(rq.taskKey(t.ID()), string(data), 0).Result()
	if err != nil {
		return fmt.Errorf("pushing task %s to queue: %v", t.ID(), err)
	}
	if !ok {
		return fmt.Errorf("pushing task %s to queue: task already exists", t.ID())
	}
	err = rq.rc.RPush(rq.pendingKey(), t.ID()).Err()
	if err != nil {
		rq.rc.Del(rq.taskKey(t.ID()))
		return fmt.Errorf("pushing task %s to queue: %v", t.ID(), err)
	}
	return nil
}

func (rq *redisQ) Pull(ctx context.Context) (*queue.Task, context.Context, context.CancelFunc, error) {
	id, err := rq.rc.LPop(rq.pendingKey()).Result()
	if err == redis.Nil {
		return nil, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pulling task from queue: %v", err)
	}
	deadline := int64(0)
	if rq.taskMaxRun > 0 {
		deadline = time.Now().Add(rq.taskMaxRun).Unix()
	}
	err = rq.rc.HSet(rq.runningKey(), id, strconv.FormatInt(deadline, 10)).Err()
	if err != nil {
		rq.rc.RPush(rq.pendingKey(), id)
		return nil, nil, nil, fmt.Errorf("pulling task %s from queue: %v", id, err)
	}
	data, err := rq.rc.Get(rq.taskKey(id)).Result()
	if err != nil {
		rq.Drop(ctx, id)
		return nil, nil, nil, fmt.Errorf("pulling task %s from queue: %v", id, err)
	}
	t, err := rq.Decode(ctx, []byte(data))
	if err != nil {
		rq.Drop(ctx, id)
		return nil, nil, nil, fmt.Errorf("pulling task %s from queue: %v", id, err)
	}
	var tctx context.Context
	var tcf context.CancelFunc
	if rq.taskMaxRun == 0 {
		tctx, tcf = context.WithCancel(rq.allTaskCtx)
	} else {
		tctx, tcf = context.WithTimeout(rq.allTaskCtx, rq.taskMaxRun)
	}
	return t, tctx, tcf, nil
}

func (rq *redisQ) Drop(ctx context.Context, id string) error {
	removed, err := rq.rc.HDel(rq.runningKey(), id).Result()
	if err != nil {
		return fmt.Errorf("dropping task %s: %v", id, err)
	}
	if removed == 0 {
		return nil
	}
	err = rq.rc.RPush(rq.pendingKey(), id).Err()
	if err != nil {
		return fmt.Errorf("dropping task %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Complete(ctx context.Context, id string) error {
	err := rq.rc.HDel(rq.runningKey(), id).Err()
	if err != nil {
		return fmt.Errorf("completing task %s: %v", id, err)
	}
	err = rq.rc.Del(rq.taskKey(id)).Err()
	if err != nil {
		return fmt.Errorf("completing task %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Count(ctx context.Context) (int, int, error) {
	pending, err := rq.rc.LLen(rq.pendingKey()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("counting tasks: %v", err)
	}
	running, err := rq.rc.HLen(rq.runningKey()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("counting tasks: %v", err)
	}
	return int(pending), int(running), nil
}

func (rq *redisQ) Stop(ctx context.Context) error {
	rq.allTaskCF()
	return nil
}

// requeueAbandonedTasks periodically drops running tasks whose
// deadline has passed, so batches pulled by failed workers are not
// lost.
func (rq *redisQ) requeueAbandonedTasks() {
	ticker := time.NewTicker(rq.taskMaxRun / 2)
	defer ticker.Stop()
	for {
		select {
		case <-rq.allTaskCtx.Done():
			return
		case <-ticker.C:
		}
		running, err := rq.rc.HGetAll(rq.runningKey()).Result()
		if err != nil {
			continue
		}
		now := time.Now().Unix()
		for id, rawDeadline := range running {
			deadline, err := strconv.ParseInt(rawDeadline, 10, 64)
			if err != nil || deadline == 0 || deadline > now {
				continue
			}
			rq.Drop(rq.allTaskCtx, id)
		}
	}
}

func (rq *redisQ) taskKey(taskID string) string {
	return fmt.Sprintf("%s:task:%s", rq.id, taskID)
}

func (rq *redisQ) pendingKey() string {
	return fmt.Sprintf("%s:pending", rq.id)
}

func (rq *redisQ) runningKey() string {
	return fmt.Sprintf("%s:running", rq.id)
}
