package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// workKind labels a scheduled unit of work for logs and metrics.
type workKind string

const (
	workPrepare  workKind = "prepare"
	workGenerate workKind = "generate"
)

// workItem is one queued unit of accelerator work.
type workItem struct {
	id       string
	kind     workKind
	enqueued time.Time
	run      func()
	done     chan struct{}
}

// scheduler serializes all accelerator-bound work through a single lane:
// strict FIFO across all callers, one item in flight process-wide, no
// priority, no preemption. The queue is unbounded; backpressure is the
// caller's concern, never the lane's.
type scheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*workItem
	closed bool

	log    zerolog.Logger
	worker sync.WaitGroup
}

func newScheduler(log zerolog.Logger) *scheduler {
	s := &scheduler{log: log}
	s.cond = sync.NewCond(&s.mu)
	s.worker.Add(1)
	go s.loop()
	return s
}

// loop is the single lane. It drains remaining items after close so no
// accepted work is ever dropped.
func (s *scheduler) loop() {
	defer s.worker.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		queueDepth.Set(float64(len(s.queue)))
		s.mu.Unlock()

		wait := time.Since(item.enqueued)
		s.log.Debug().Str("work_id", item.id).Str("kind", string(item.kind)).Dur("waited", wait).Msg("work item dequeued")
		item.run()
		close(item.done)
	}
}

// submit appends fn to the lane and blocks until it completes. If ctx ends
// first the caller gets ctx.Err() back, but the item still runs to
// completion in its turn; once enqueued, work is never cancelled.
func (s *scheduler) submit(ctx context.Context, kind workKind, fn func()) error {
	item := &workItem{
		id:       uuid.NewString(),
		kind:     kind,
		enqueued: time.Now(),
		run:      fn,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	s.queue = append(s.queue, item)
	pos := len(s.queue)
	queueDepth.Set(float64(len(s.queue)))
	s.cond.Signal()
	s.mu.Unlock()

	s.log.Debug().Str("work_id", item.id).Str("kind", string(kind)).Int("position", pos).Msg("work item enqueued")

	select {
	case <-item.done:
		return nil
	case <-ctx.Done():
		// Abandoned, not cancelled: the item's result is discarded.
		s.log.Debug().Str("work_id", item.id).Msg("caller abandoned work item")
		return ctx.Err()
	}
}

// len reports the number of items waiting (not the one in flight).
func (s *scheduler) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// close stops accepting work and waits for the lane to drain.
func (s *scheduler) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.worker.Wait()
}
