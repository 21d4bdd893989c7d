// Package scheduler implements the memory-aware priority scheduler from
// spec.md §4.6: a bounded priority queue of Jobs serviced by W workers, plus
// a memory sampler that forces GC and backs off when the process is under
// pressure. Grounded on the teacher's internal/fileproc worker-pool shape
// (pool.New().WithMaxGoroutines(...).WithContext(ctx)), generalized from a
// flat unordered worker map to a priority-ordered queue with retries and a
// Failed table, since fileproc itself has no notion of job priority or
// memory backoff.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panbanda/devpulse/internal/engineerr"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// defaultJoinTimeout is spec.md §5's "the scheduler's join timeout is 60s":
// how long Run waits, after the queue has drained, for in-flight jobs to
// return before giving up and returning whatever results are in hand.
const defaultJoinTimeout = 60 * time.Second

// jobQueue is a max-heap ordered by descending Priority, FIFO among equal
// priorities via a monotonic sequence number.
type jobQueue struct {
	items []queuedJob
	seq   int
}

type queuedJob struct {
	job Job
	seq int
}

func (q *jobQueue) Len() int { return len(q.items) }
func (q *jobQueue) Less(i, j int) bool {
	if q.items[i].job.Priority != q.items[j].job.Priority {
		return q.items[i].job.Priority > q.items[j].job.Priority
	}
	return q.items[i].seq < q.items[j].seq
}
func (q *jobQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *jobQueue) Push(x any)    { q.items = append(q.items, x.(queuedJob)) }
func (q *jobQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// Scheduler runs Jobs with priority ordering, bounded retries, and a
// memory-aware backoff. Always constructed per run, never a package
// singleton (mirrors internal/metrics.Registry's "never a singleton"
// convention).
type Scheduler struct {
	workers     int
	monitor     *MemoryMonitor
	joinTimeout time.Duration

	mu     sync.Mutex
	cond   *sync.Cond
	queue  jobQueue
	closed bool

	stopped atomic.Bool

	failedMu sync.Mutex
	failed   map[string]error
}

// New builds a Scheduler with W workers, defaulting to
// min(4, max(1, NumCPU-1)) when workers <= 0, per spec.md §4.6.
func New(workers int, monitor *MemoryMonitor) *Scheduler {
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()-1)
		if workers > 4 {
			workers = 4
		}
	}
	s := &Scheduler{
		workers:     workers,
		monitor:     monitor,
		joinTimeout: defaultJoinTimeout,
		failed:      make(map[string]error),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// SetJoinTimeout overrides the default 60s join timeout (spec.md §5),
// e.g. from config.SchedulerConfig.JoinTimeoutSeconds.
func (s *Scheduler) SetJoinTimeout(d time.Duration) {
	if d > 0 {
		s.joinTimeout = d
	}
}

// Stop sets the should_stop flag spec.md §5 describes: polled between
// jobs (never pre-empting one already running), so in-flight diff
// processing for a commit always runs to completion.
func (s *Scheduler) Stop() {
	s.stopped.Store(true)
	s.cond.Broadcast()
}

// Submit enqueues a job. Safe for concurrent use.
func (s *Scheduler) Submit(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.seq++
	heap.Push(&s.queue, queuedJob{job: j, seq: s.queue.seq})
	s.cond.Signal()
}

// Close signals that no more jobs will be submitted; workers drain the
// remaining queue and then exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *Scheduler) next() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.queue.Len() == 0 && !s.closed && !s.stopped.Load() {
		s.cond.Wait()
	}
	if s.stopped.Load() || s.queue.Len() == 0 {
		return Job{}, false
	}
	qj := heap.Pop(&s.queue).(queuedJob)
	return qj.job, true
}

// Run drains the queue with s.workers concurrent workers until Close is
// called and the queue is empty, should_stop is set via Stop, or ctx is
// cancelled. Completion order across workers is unspecified (spec.md §4.6
// "Ordering"); priority only biases which job a worker starts next. Each
// job runs to completion before a worker checks should_stop/cancellation
// again — there is no mid-job preemption (spec.md §5 "Cancellation").
//
// Once the queue empties (or should_stop fires), Run waits up to the
// configured join timeout (default 60s, spec.md §5) for any jobs still
// in flight before returning whatever results are in hand.
func (s *Scheduler) Run(ctx context.Context) []Result {
	p := pool.New().WithMaxGoroutines(s.workers).WithContext(ctx)
	var mu sync.Mutex
	var results []Result
	var processed atomic.Int64

	for i := 0; i < s.workers; i++ {
		p.Go(func(ctx context.Context) error {
			for {
				job, ok := s.next()
				if !ok {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if s.stopped.Load() {
					return nil
				}

				if s.monitor != nil {
					n := processed.Add(1)
					if n%100 == 0 && s.monitor.OverCap() {
						start := s.monitor.UsagePercent()
						s.monitor.WaitUntilBelow(start)
					}
				}

				err := job.Func(job.Args)
				if err != nil {
					logJobError(job, err)
				}
				if err != nil && job.RetriesLeft > 0 && !s.stopped.Load() {
					job.RetriesLeft--
					s.Submit(job)
					continue
				}
				if err != nil {
					s.failedMu.Lock()
					s.failed[job.ID] = err
					s.failedMu.Unlock()
				}
				mu.Lock()
				results = append(results, Result{JobID: job.ID, Err: err})
				mu.Unlock()
			}
		})
	}

	done := make(chan struct{})
	go func() {
		_ = p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.joinTimeout):
		logrus.WithField("timeout", s.joinTimeout).
			Warn("scheduler: join timeout exceeded, returning with jobs still in flight")
	}

	mu.Lock()
	defer mu.Unlock()
	return results
}

// logJobError renders a job's failure at its requeue/give-up site. Job
// funcs (clonedriver, traversal) already return typed *engineerr.Error
// values at their own skip/retry boundaries, so this just forwards those
// through the same stable-prefix rendering rather than re-wrapping them;
// anything else logs with the plain bare WithError the scheduler used
// before engineerr existed.
func logJobError(job Job, err error) {
	var ee *engineerr.Error
	if errors.As(err, &ee) {
		engineerr.Log(logrus.StandardLogger(), "scheduler", ee)
		return
	}
	logrus.WithField("job", job.ID).WithError(err).Warn("job failed")
}

// Failed returns the table of jobs that exhausted their retries.
func (s *Scheduler) Failed() map[string]error {
	s.failedMu.Lock()
	defer s.failedMu.Unlock()
	out := make(map[string]error, len(s.failed))
	for k, v := range s.failed {
		out[k] = v
	}
	return out
}
