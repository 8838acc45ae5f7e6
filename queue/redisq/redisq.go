/*
Package redisq provides an implementation of queue.Queue that keeps
tasks on a redis server, so that workers on several processes or hosts
can take part in the same mining run.
*/
package redisq

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pbanos/pfpgrowth/queue"
	redis "gopkg.in/redis.v5"
)

/*
EncodeDecoder is an interface for objects
that allow encoding tasks as slices of bytes and decoding
them back to tasks. It is used to serialize tasks into a
representation to store on redis.
*/
type EncodeDecoder interface {
	Encode(context.Context, *queue.Task) ([]byte, error)
	Decode(context.Context, []byte) (*queue.Task, error)
}

type redisQ struct {
	id         string
	rc         *redis.Client
	allTaskCtx context.Context
	allTaskCF  context.CancelFunc
	taskMaxRun time.Duration
	lockTTL    time.Duration
	EncodeDecoder
}

const lockReleaseScript = `
if redis.call("GET",KEYS[1]) == ARGV[1] then
    return redis.call("DEL",KEYS[1])
else
    return 0
end
`

const countScript = `return {redis.call("SCARD", KEYS[1]), redis.call("SCARD", KEYS[2])}`

const (
	lockAttempts    = 5
	failToLockSleep = 10 * time.Millisecond
	// DefaultLockTTL is the lock TTL used when New is given none.
	DefaultLockTTL = time.Second
)

/*
New returns a queue.Queue that uses the given redis client as a
backend. It uses the given id, usually the run ID, to prefix the keys
used on the redis server to keep the queue's data, which are the following:
  * id:pending is the key to a set with the key prefixes of the pending tasks
  * id:running is the key to a set with the key prefixes of the running tasks
  * id:task:partition:data is the key to a string that holds the task data.
  Tasks are encoded and decoded using the given EncodeDecoder.
  * id:task:partition:lock implements a lock for exclusive management of a
  task on the queue. It is set to expire in the given lockTTL duration.
  * id:task:partition:running marks the task as running and expires in the
  given taskMaxRun duration. Once the key expires the queue considers the
  task was dropped by a failing worker and makes it pending again. A zero
  taskMaxRun prevents the key from expiring and disables that cleanup.

The returned queue is safe for concurrent use by multiple goroutines.
*/
func New(id string, rc *redis.Client, taskMaxRun, lockTTL time.Duration, encDec EncodeDecoder) queue.Queue {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	ctx, cf := context.WithCancel(context.Background())
	rq := &redisQ{
		id:            id,
		rc:            rc,
		allTaskCtx:    ctx,
		allTaskCF:     cf,
		taskMaxRun:    taskMaxRun,
		lockTTL:       lockTTL,
		EncodeDecoder: encDec,
	}
	if taskMaxRun > 0 {
		go rq.dropTimedOutTasks()
	}
	return rq
}

func (rq *redisQ) Push(ctx context.Context, t *queue.Task) error {
	data, err := rq.Encode(ctx, t)
	if err != nil {
		return fmt.Errorf("pushing task %s to queue: %v", t.ID(), err)
	}
	prefix := rq.taskKeyPrefix(t.ID())
	ok, err := rq.rc.SetNX(dataKey(prefix), string(data), 0).Result()
	if err != nil {
		return fmt.Errorf("pushing task %s to queue: %v", t.ID(), err)
	}
	if !ok {
		return fmt.Errorf("pushing task %s to queue: key %q already exists", t.ID(), dataKey(prefix))
	}
	added, err := rq.rc.SAdd(rq.pendingSetKey(), prefix).Result()
	if err != nil || added != 1 {
		rq.rc.Del(dataKey(prefix))
		if err == nil {
			err = fmt.Errorf("%q already in pending set %q", prefix, rq.pendingSetKey())
		}
		return fmt.Errorf("pushing task %s to queue %s: %v", t.ID(), rq.id, err)
	}
	return nil
}

func (rq *redisQ) Pull(ctx context.Context) (*queue.Task, context.Context, context.CancelFunc, error) {
	iter := rq.rc.SScan(rq.pendingSetKey(), 0, "", 0).Iterator()
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		prefix := iter.Val()
		err := rq.withLockFor(ctx, prefix, 0, func(ctx context.Context) error {
			ok, err := rq.rc.SetNX(runningKey(prefix), "true", rq.taskMaxRun).Result()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("task %q already running", prefix)
			}
			_, err = rq.rc.SMove(rq.pendingSetKey(), rq.runningSetKey(), prefix).Result()
			if err != nil {
				rq.rc.Del(runningKey(prefix))
				return fmt.Errorf("moving %q from %q set to %q set: %v", prefix, rq.pendingSetKey(), rq.runningSetKey(), err)
			}
			return nil
		})
		if err != nil {
			continue
		}
		id := taskID(prefix)
		data, err := rq.rc.Get(dataKey(prefix)).Result()
		if err != nil {
			rq.Drop(ctx, id)
			return nil, nil, nil, fmt.Errorf("pulling task %q: reading task data: %v", prefix, err)
		}
		t, err := rq.Decode(ctx, []byte(data))
		if err != nil {
			rq.Drop(ctx, id)
			return nil, nil, nil, fmt.Errorf("pulling task %q: %v", prefix, err)
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
	if err := iter.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterating over pending tasks in %q set: %v", rq.pendingSetKey(), err)
	}
	return nil, nil, nil, nil
}

func (rq *redisQ) Drop(ctx context.Context, id string) error {
	prefix := rq.taskKeyPrefix(id)
	err := rq.withLockFor(ctx, prefix, lockAttempts, func(ctx context.Context) error {
		ok, err := rq.rc.SMove(rq.runningSetKey(), rq.pendingSetKey(), prefix).Result()
		if err != nil {
			return fmt.Errorf("moving %q from %q to %q: %v", prefix, rq.runningSetKey(), rq.pendingSetKey(), err)
		}
		if !ok {
			return nil
		}
		return rq.unmarkRunning(prefix)
	})
	if err != nil {
		return fmt.Errorf("dropping %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Complete(ctx context.Context, id string) error {
	prefix := rq.taskKeyPrefix(id)
	err := rq.withLockFor(ctx, prefix, lockAttempts, func(ctx context.Context) error {
		count, err := rq.rc.SRem(rq.runningSetKey(), prefix).Result()
		if err != nil {
			return fmt.Errorf("removing %q from %q: %v", prefix, rq.runningSetKey(), err)
		}
		if count == 0 {
			return nil
		}
		if err = rq.unmarkRunning(prefix); err != nil {
			return err
		}
		return rq.rc.Del(dataKey(prefix)).Err()
	})
	if err != nil {
		return fmt.Errorf("completing %s: %v", id, err)
	}
	return nil
}

func (rq *redisQ) Count(context.Context) (int, int, error) {
	// both sets are counted by one script so that a task moving
	// between them cannot make the queue look empty
	v, err := rq.rc.Eval(countScript, []string{rq.pendingSetKey(), rq.runningSetKey()}).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("counting tasks: %v", err)
	}
	counts, ok := v.([]interface{})
	if !ok || len(counts) != 2 {
		return 0, 0, fmt.Errorf("counting tasks: redis returned %v instead of 2 counts", v)
	}
	p, ok := counts[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("counting tasks: cannot extract integer pending tasks count from %v (%T)", counts[0], counts[0])
	}
	r, ok := counts[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("counting tasks: cannot extract integer running tasks count from %v (%T)", counts[1], counts[1])
	}
	return int(p), int(r), nil
}

func (rq *redisQ) Stop(context.Context) error {
	rq.allTaskCF()
	return nil
}

func (rq *redisQ) String() string {
	return fmt.Sprintf("{redis queue %s}", rq.id)
}

func (rq *redisQ) unmarkRunning(prefix string) error {
	if _, err := rq.rc.Del(runningKey(prefix)).Result(); err != nil {
		return fmt.Errorf("removing %q: %v", runningKey(prefix), err)
	}
	return nil
}

func (rq *redisQ) taskKeyPrefix(id string) string {
	return fmt.Sprintf("%s:task:%s", rq.id, id)
}

func (rq *redisQ) pendingSetKey() string {
	return fmt.Sprintf("%s:pending", rq.id)
}

func (rq *redisQ) runningSetKey() string {
	return fmt.Sprintf("%s:running", rq.id)
}

func dataKey(prefix string) string {
	return prefix + ":data"
}

func runningKey(prefix string) string {
	return prefix + ":running"
}

func taskID(prefix string) string {
	return prefix[strings.LastIndex(prefix, ":")+1:]
}

func (rq *redisQ) withLockFor(ctx context.Context, prefix string, additionalAttempts int, f func(ctx context.Context) error) error {
	lockKey := prefix + ":lock"
	token := uuid.NewString()
	for {
		ok, err := rq.rc.SetNX(lockKey, token, rq.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("could not acquire lock: %v", err)
		}
		if ok {
			break
		}
		if additionalAttempts <= 0 {
			return fmt.Errorf("could not acquire lock: already taken")
		}
		d, _ := rq.rc.PTTL(lockKey).Result()
		if d < 0 {
			d = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d + time.Duration(rand.Int63n(int64(failToLockSleep)*int64(additionalAttempts)))):
		}
		additionalAttempts--
	}
	defer rq.rc.Eval(lockReleaseScript, []string{lockKey}, token)
	lctx, cf := context.WithTimeout(ctx, rq.lockTTL)
	defer cf()
	return f(lctx)
}

func (rq *redisQ) dropTimedOutTasks() {
	ticker := time.NewTicker(rq.taskMaxRun / 2)
	defer ticker.Stop()
	for {
		iter := rq.rc.SScan(rq.runningSetKey(), 0, "", 0).Iterator()
		for iter.Next() {
			prefix := iter.Val()
			var timedOut bool
			rq.withLockFor(rq.allTaskCtx, prefix, 0, func(ctx context.Context) error {
				exists, err := rq.rc.Exists(runningKey(prefix)).Result()
				if err != nil {
					return err
				}
				timedOut = !exists
				return nil
			})
			if timedOut {
				rq.Drop(rq.allTaskCtx, taskID(prefix))
			}
			if rq.allTaskCtx.Err() != nil {
				return
			}
		}
		select {
		case <-rq.allTaskCtx.Done():
			return
		case <-ticker.C:
		}
	}
}
