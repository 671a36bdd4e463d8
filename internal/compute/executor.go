package compute

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Backend executes command streams.
type Backend interface {
	Submit(ctx context.Context, s *Stream) error
}

// ExecutorStats counts work done by an Executor.
type ExecutorStats struct {
	Streams     uint64
	Segments    uint64
	Dispatches  uint64
	Groups      uint64
	Invocations uint64
}

// Executor is the CPU backend. Dispatches inside a barrier-free segment run
// concurrently on a worker pool and every barrier waits for the whole
// segment, so a validated stream observes the same ordering a GPU queue
// would enforce.
type Executor struct {
	mu     sync.Mutex // serializes streams, like a single queue
	pool   *workerPool
	rng    *rand.Rand
	logger *zap.Logger

	streams     atomic.Uint64
	segments    atomic.Uint64
	dispatches  atomic.Uint64
	groups      atomic.Uint64
	invocations atomic.Uint64
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the worker count. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		e.pool.close()
		e.pool = newWorkerPool(n)
	}
}

// WithShuffle permutes group and invocation order with a seeded generator.
// Used to check that kernel results do not depend on execution order.
func WithShuffle(seed int64) Option {
	return func(e *Executor) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogger sets the logger used for stream diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates a CPU executor. Call Close to stop its workers.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		pool:   newWorkerPool(0),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close stops the worker goroutines.
func (e *Executor) Close() {
	e.pool.close()
}

// Stats returns a snapshot of the executor counters.
func (e *Executor) Stats() ExecutorStats {
	return ExecutorStats{
		Streams:     e.streams.Load(),
		Segments:    e.segments.Load(),
		Dispatches:  e.dispatches.Load(),
		Groups:      e.groups.Load(),
		Invocations: e.invocations.Load(),
	}
}

// Submit validates and runs a stream. A stream with a hazard is rejected
// before anything runs. Cancellation is checked between segments only: a
// started dispatch always runs to completion.
func (e *Executor) Submit(ctx context.Context, s *Stream) error {
	if err := s.Validate(); err != nil {
		e.logger.Warn("stream rejected", zap.Stringer("stream", s), zap.Error(err))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	segs := s.Segments()
	e.logger.Debug("submit stream",
		zap.Stringer("stream", s),
		zap.Int("segments", len(segs)))

	for _, seg := range segs {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.runSegment(seg)
		e.segments.Add(1)
	}
	e.streams.Add(1)
	return nil
}

func (e *Executor) runSegment(seg []Kernel) {
	var work []func()
	for _, k := range seg {
		gx, gy := k.Groups()
		for y := range gy {
			for x := range gx {
				work = append(work, e.groupWork(k, ID{X: x, Y: y}))
			}
		}
		e.dispatches.Add(1)
	}
	if e.rng != nil {
		e.rng.Shuffle(len(work), func(i, j int) { work[i], work[j] = work[j], work[i] })
	}
	e.groups.Add(uint64(len(work)))
	e.invocations.Add(uint64(len(work) * GroupSize * GroupSize))
	e.pool.executeAll(work)
}

func (e *Executor) groupWork(k Kernel, group ID) func() {
	var order []int
	if e.rng != nil {
		order = e.rng.Perm(GroupSize * GroupSize)
	}
	return func() {
		for i := range GroupSize * GroupSize {
			l := i
			if order != nil {
				l = order[i]
			}
			k.Invoke(NewInvocation(group, ID{X: l % GroupSize, Y: l / GroupSize}))
		}
	}
}
