package queue

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/logship/internal/storage/pebble"
	"github.com/rzbill/logship/pkg/report"
)

// Entry is one durably buffered, not-yet-delivered log record.
type Entry struct {
	// ID is assigned by the queue at insertion time and is strictly
	// increasing across the queue's lifetime, including restarts.
	ID uint64
	// Message is the pre-formatted log line, opaque to the queue.
	Message string
	// EnqueuedAt is the wall-clock time of insertion in nanoseconds. It is
	// diagnostic only and never drives ordering or delivery decisions.
	EnqueuedAt int64
}

// Options configures a Queue.
type Options struct {
	// DataDir is the directory holding the backing store.
	DataDir string
	// Name is the logical queue name; several queues may share one DataDir.
	Name string
	// Fsync is the store durability policy (default: sync every commit).
	Fsync pebblestore.FsyncMode
	// Shared is the store registry to acquire the backing store through.
	// Defaults to pebblestore.DefaultShared.
	Shared *pebblestore.Shared
	// Handler receives internally handled faults. Defaults to a no-op-logger
	// handler.
	Handler report.Handler
}

// Queue is a persistent, ordered, crash-safe FIFO of log entries backed by
// Pebble. Producers append concurrently; a single consumer reads batches in
// ascending id order and deletes them once delivery is decided.
type Queue struct {
	name    string
	dataDir string
	shared  *pebblestore.Shared
	handler report.Handler

	// mu serializes id assignment with the store write that persists it.
	mu     sync.Mutex
	db     *pebblestore.DB
	lastID uint64

	initDone chan struct{} // closed when initialization finished, either way
	readyCh  chan struct{} // closed only on successful initialization
	initErr  error

	notifyMu sync.Mutex
	notifyCh chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open starts asynchronous initialization of the queue and returns
// immediately. The store connection and schema are established in the
// background; Ready / ReadySignal report completion. If initialization
// fails the queue stays permanently non-ready and the failure is reported
// once through the handler.
func Open(opts Options) *Queue {
	if opts.Shared == nil {
		opts.Shared = pebblestore.DefaultShared
	}
	if opts.Handler == nil {
		opts.Handler = report.NewLogHandler(nil)
	}
	q := &Queue{
		name:     opts.Name,
		dataDir:  opts.DataDir,
		shared:   opts.Shared,
		handler:  opts.Handler,
		initDone: make(chan struct{}),
		readyCh:  make(chan struct{}),
		notifyCh: make(chan struct{}),
	}
	go q.init(opts)
	return q
}

func (q *Queue) init(opts Options) {
	defer close(q.initDone)

	db, err := q.shared.Acquire(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		q.initErr = err
		q.handler.Error("unable to open local store for log queue", err, report.CodeStorage)
		return
	}
	q.db = db

	// An existing queue is detected by its meta key; reuse restores the id
	// sequence so restart never reissues an id.
	meta, err := db.Get(KeyMeta(q.name))
	if err == nil && len(meta) >= 8 {
		q.lastID = binary.BigEndian.Uint64(meta[:8])
	} else if err != nil && err != pebble.ErrNotFound {
		q.initErr = err
		q.handler.Error("unable to read log queue metadata", err, report.CodeStorage)
		return
	}
	close(q.readyCh)
}

// Ready reports whether the store connection and schema are established.
func (q *Queue) Ready() bool {
	select {
	case <-q.readyCh:
		return true
	default:
		return false
	}
}

// ReadySignal returns a channel closed once the queue becomes ready. It
// never closes if initialization failed.
func (q *Queue) ReadySignal() <-chan struct{} { return q.readyCh }

// EnqueueSignal returns a channel closed on the next successful enqueue.
// Callers re-fetch the channel after each wake.
func (q *Queue) EnqueueSignal() <-chan struct{} {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()
	return q.notifyCh
}

// WaitForEnqueue blocks until a new entry is enqueued or timeout elapses.
// It returns true if woken by an enqueue, false on timeout.
func (q *Queue) WaitForEnqueue(timeout time.Duration) bool {
	ch := q.EnqueueSignal()
	if timeout <= 0 {
		<-ch
		return true
	}
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (q *Queue) notify() {
	q.notifyMu.Lock()
	close(q.notifyCh)
	q.notifyCh = make(chan struct{})
	q.notifyMu.Unlock()
}

// Enqueue appends one entry with a fresh monotonic id and the given
// timestamp, committing it durably before returning. Failures are reported
// through the handler and surface only as a false return; the message is
// not retried by this layer.
func (q *Queue) Enqueue(message string, ts int64) bool {
	<-q.initDone
	if q.initErr != nil || q.closed.Load() {
		q.handler.Error("unable to persist log message: queue not available", q.initErr, report.CodeStorage)
		return false
	}

	q.mu.Lock()
	q.lastID++
	id := q.lastID

	b := q.db.NewBatch()
	defer b.Close()
	err := b.Set(KeyEntry(q.name, id), EncodeRecord(ts, []byte(message)), nil)
	if err == nil {
		var meta [8]byte
		binary.BigEndian.PutUint64(meta[:], id)
		err = b.Set(KeyMeta(q.name), meta[:], nil)
	}
	if err == nil {
		err = q.db.CommitBatch(context.Background(), b)
	}
	q.mu.Unlock()

	if err != nil {
		q.handler.Error("unable to persist log message", err, report.CodeStorage)
		return false
	}
	q.notify()
	return true
}

// DequeueBatch returns up to max entries in ascending id order. It returns
// an empty slice when the queue is empty and never blocks waiting for data.
// Entries remain in the queue until DeleteBatch removes them.
func (q *Queue) DequeueBatch(max int) []Entry {
	<-q.initDone
	if q.initErr != nil || q.closed.Load() {
		return nil
	}

	low, hi := entryBounds(q.name)
	iter, err := q.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		q.handler.Error("unable to query the log queue", err, report.CodeStorage)
		return nil
	}
	defer iter.Close()

	capHint := max
	if capHint < 1 {
		capHint = 1
	}
	entries := make([]Entry, 0, capHint)
	for ok := iter.First(); ok && (max <= 0 || len(entries) < max); ok = iter.Next() {
		ts, msg, okDec := DecodeRecord(iter.Value())
		if !okDec {
			// A corrupt record is skipped rather than wedging the queue.
			q.handler.Error("corrupt record in log queue", nil, report.CodeStorage)
			continue
		}
		entries = append(entries, Entry{ID: idFromKey(iter.Key()), Message: string(msg), EnqueuedAt: ts})
	}
	if err := iter.Error(); err != nil {
		q.handler.Error("unable to query the log queue", err, report.CodeStorage)
	}
	return entries
}

// DeleteBatch removes all listed entries by id in one atomic commit and
// returns the number deleted. Deletion is final. An empty input is a no-op
// returning 0.
func (q *Queue) DeleteBatch(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	<-q.initDone
	if q.initErr != nil || q.closed.Load() {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	b := q.db.NewBatch()
	defer b.Close()
	for _, e := range entries {
		if err := b.Delete(KeyEntry(q.name, e.ID), nil); err != nil {
			q.handler.Error("unable to delete delivered entries", err, report.CodeStorage)
			return 0
		}
	}
	if err := q.db.CommitBatch(context.Background(), b); err != nil {
		q.handler.Error("unable to delete delivered entries", err, report.CodeStorage)
		return 0
	}
	return len(entries)
}

// Stats summarizes the pending backlog.
type Stats struct {
	Pending  int
	OldestID uint64
	NewestID uint64
	LastID   uint64
}

// Stats scans the queue and reports backlog counts and id bounds.
func (q *Queue) Stats() Stats {
	<-q.initDone
	if q.initErr != nil || q.closed.Load() {
		return Stats{}
	}

	st := Stats{LastID: func() uint64 { q.mu.Lock(); defer q.mu.Unlock(); return q.lastID }()}
	low, hi := entryBounds(q.name)
	iter, err := q.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		q.handler.Error("unable to query the log queue", err, report.CodeStorage)
		return st
	}
	defer iter.Close()
	for ok := iter.First(); ok; ok = iter.Next() {
		id := idFromKey(iter.Key())
		if st.Pending == 0 {
			st.OldestID = id
		}
		st.NewestID = id
		st.Pending++
	}
	return st
}

// Close waits for initialization to settle, then releases the backing
// store; the last queue on a store triggers a final compaction before the
// store closes. Close is idempotent.
func (q *Queue) Close(ctx context.Context) error {
	<-q.initDone
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		if q.initErr != nil {
			return
		}
		q.closeErr = q.shared.Release(ctx, q.dataDir)
	})
	return q.closeErr
}
