package uploader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/logship/internal/queue"
	"github.com/rzbill/logship/internal/transport"
	logpkg "github.com/rzbill/logship/pkg/log"
	"github.com/rzbill/logship/pkg/report"
)

// State is the uploader lifecycle state.
type State int32

const (
	// Starting means the uploader is waiting for the queue to become ready.
	Starting State = iota
	// Running means the main loop is pulling and delivering batches.
	Running
	// StopRequested means a stop was observed; the loop keeps draining
	// non-empty batches before stopping.
	StopRequested
	// Stopped is terminal.
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Starting:
		return "STARTING"
	case Running:
		return "RUNNING"
	case StopRequested:
		return "STOP_REQUESTED"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Sender delivers one batch and reports the outcome. Satisfied by
// *transport.Client.
type Sender interface {
	Send(ctx context.Context, entries []queue.Entry) transport.Result
}

// Options configures an Uploader.
type Options struct {
	Queue  *queue.Queue
	Sender Sender
	// BatchSize caps entries per delivery attempt (default 50).
	BatchSize int
	// IdleWait bounds the sleep when the queue is empty (default 1s); a new
	// enqueue or a stop request wakes the loop early.
	IdleWait time.Duration
	// PollInterval is how often Stop re-checks the observed state
	// (default 100ms).
	PollInterval time.Duration
	Handler      report.Handler
	Logger       logpkg.Logger
}

// Uploader is the single background consumer of a queue. It pulls batches
// in insertion order, delivers them through the Sender, and deletes entries
// whose outcome is decided. Exactly one Uploader runs per queue; batches
// are never processed in parallel.
type Uploader struct {
	q            *queue.Queue
	sender       Sender
	batchSize    int
	idleWait     time.Duration
	pollInterval time.Duration
	handler      report.Handler
	logger       logpkg.Logger

	cur       atomic.Int32 // observed State
	requested atomic.Int32 // Running or Stopped
	stopCh    chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	done      chan struct{}
}

// New builds an Uploader; call Start to launch the consumer goroutine.
func New(opts Options) *Uploader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.IdleWait <= 0 {
		opts.IdleWait = time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Handler == nil {
		opts.Handler = report.NewLogHandler(opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	u := &Uploader{
		q:            opts.Queue,
		sender:       opts.Sender,
		batchSize:    opts.BatchSize,
		idleWait:     opts.IdleWait,
		pollInterval: opts.PollInterval,
		handler:      opts.Handler,
		logger:       opts.Logger,
	}
	u.stopCh = make(chan struct{})
	u.done = make(chan struct{})
	u.cur.Store(int32(Starting))
	u.requested.Store(int32(Running))
	return u
}

// Start launches the consumer goroutine.
func (u *Uploader) Start() {
	if !u.started.CompareAndSwap(false, true) {
		return
	}
	go u.run()
}

// State returns the observed lifecycle state.
func (u *Uploader) State() State { return State(u.cur.Load()) }

func (u *Uploader) requestedState() State { return State(u.requested.Load()) }

func (u *Uploader) run() {
	defer close(u.done)

	// Wait for the queue to come up. A stop arriving first means the
	// uploader never ran at all.
	select {
	case <-u.q.ReadySignal():
	case <-u.stopCh:
		u.logger.Warn("stop requested before queue became ready, uploader never ran")
		u.cur.Store(int32(Stopped))
		return
	}
	u.cur.Store(int32(Running))
	u.logger.Debug("uploader running")

	batch := u.q.DequeueBatch(u.batchSize)
	for {
		cur := u.State()
		if cur != Running && !(cur == StopRequested && len(batch) > 0) {
			break
		}

		if cur == StopRequested {
			u.logger.Warn("stop requested, draining queue", logpkg.Int("pending", len(batch)))
		}

		if len(batch) == 0 {
			// Nothing to deliver. Sleep briefly; a fresh enqueue or a stop
			// request wakes us early.
			select {
			case <-u.q.EnqueueSignal():
			case <-u.stopCh:
			case <-time.After(u.idleWait):
			}
		} else {
			u.deliver(batch)
		}

		batch = u.q.DequeueBatch(u.batchSize)

		// Transition order is load-bearing: the empty-queue-with-stop check
		// must run before the plain stop-flag check so a pending stop always
		// gets one full drain pass and the loop cannot sit in StopRequested
		// once the queue is empty.
		if len(batch) == 0 && u.requestedState() == Stopped {
			u.cur.Store(int32(Stopped))
		} else if u.requestedState() == Stopped {
			u.cur.Store(int32(StopRequested))
		}
	}

	u.cur.Store(int32(Stopped))
	u.logger.Debug("uploader stopped")
}

// deliver sends one batch and applies the outcome policy. A retained batch
// is simply not deleted; the next pull returns the same entries.
func (u *Uploader) deliver(batch []queue.Entry) {
	res := u.sender.Send(context.Background(), batch)
	switch {
	case res.Err != nil:
		u.handler.Error("unable to send batch to ingestion endpoint", res.Err, report.CodeDelivery)
	case res.Status == 200 || res.Status == 201:
		u.q.DeleteBatch(batch)
	case res.Status == 400:
		// The endpoint cannot process this payload and never will; keeping
		// it would block the queue forever. Discard.
		u.handler.Error(
			fmt.Sprintf("endpoint rejected batch as malformed, discarding %d entries: %s", len(batch), res.Body),
			nil, report.CodeDelivery)
		u.q.DeleteBatch(batch)
	default:
		u.handler.Error(
			fmt.Sprintf("received status %d from ingestion endpoint", res.Status),
			nil, report.CodeDelivery)
	}
}

// Stop requests shutdown, wakes an idle loop immediately, and blocks,
// polling at a short interval, until the observed state reaches Stopped.
// The in-flight batch is never interrupted and the queue is fully drained
// first. Safe to call more than once.
func (u *Uploader) Stop() {
	u.stopOnce.Do(func() {
		u.requested.Store(int32(Stopped))
		close(u.stopCh)
	})
	if !u.started.Load() {
		u.cur.Store(int32(Stopped))
		return
	}
	for u.State() != Stopped {
		select {
		case <-u.done:
		case <-time.After(u.pollInterval):
		}
	}
}
