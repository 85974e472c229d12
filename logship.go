// Package logship buffers formatted log events durably on local disk and
// forwards them to a remote ingestion endpoint in batches, in the
// background. An event accepted by Append survives a process crash and is
// delivered at least once, in order, when the endpoint is reachable; Close
// drains everything still pending before returning.
//
// The package is designed to sit behind a host logging framework's append
// call:
//
//	a, err := logship.Open(logship.Options{
//	    DataDir:     "/var/lib/myapp/logship",
//	    Name:        "app",
//	    EndpointURL: "https://ingest.example.com/bulk",
//	})
//	if err != nil { /* handle */ }
//	defer a.Close()
//
//	a.Append("2026-08-29T10:00:00Z INFO something happened\n")
package logship

import (
	"context"
	"sync"
	"time"

	"github.com/rzbill/logship/internal/queue"
	pebblestore "github.com/rzbill/logship/internal/storage/pebble"
	"github.com/rzbill/logship/internal/transport"
	"github.com/rzbill/logship/internal/uploader"
	logpkg "github.com/rzbill/logship/pkg/log"
	"github.com/rzbill/logship/pkg/report"
)

// Sink is the capability the host framework appends through. Append is safe
// for concurrent use and never blocks on network activity; it returns once
// the entry is durably queued (or the failure has been reported).
type Sink interface {
	Append(message string)
}

// ErrorHandler receives every internally handled fault as a (description,
// cause, severity code) triple. See package report for the codes.
type ErrorHandler = report.Handler

// Appender is the durable buffering sink. It owns one queue and one
// background uploader.
type Appender struct {
	opts Options
	q    *queue.Queue
	up   *uploader.Uploader

	closeOnce sync.Once
	closeErr  error
}

var _ Sink = (*Appender)(nil)

// Open validates opts, opens the durable queue (initialization proceeds in
// the background), and starts the uploader. Open itself only fails on
// invalid options; a storage initialization failure is reported through the
// error handler and leaves the appender accepting-and-dropping, per the
// fire-and-forget contract.
func Open(opts Options) (*Appender, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	q := queue.Open(queue.Options{
		DataDir: opts.DataDir,
		Name:    opts.Name,
		Fsync:   storeFsync(opts.Durability),
		Handler: opts.ErrorHandler,
	})

	client := transport.New(transport.Options{
		EndpointURL: opts.EndpointURL,
		ProxyHost:   opts.ProxyHost,
		ProxyPort:   opts.ProxyPort,
		Logger:      opts.Logger.With(logpkg.Component("transport")),
	})

	up := uploader.New(uploader.Options{
		Queue:     q,
		Sender:    client,
		BatchSize: opts.BatchSize,
		IdleWait:  opts.IdleWait,
		Handler:   opts.ErrorHandler,
		Logger:    opts.Logger.With(logpkg.Component("uploader")),
	})
	up.Start()

	return &Appender{opts: opts, q: q, up: up}, nil
}

// Append durably enqueues one pre-formatted log line. It blocks only on the
// local storage write, never on the endpoint. Failures are reported through
// the configured ErrorHandler, not returned.
func (a *Appender) Append(message string) {
	a.q.Enqueue(message, time.Now().UnixNano())
}

// Ready reports whether the backing store finished initializing.
func (a *Appender) Ready() bool { return a.q.Ready() }

// Close stops the uploader, which first drains every queued entry, then
// checkpoints and closes the backing store. Calling Close again has no
// further effect.
func (a *Appender) Close() error {
	a.closeOnce.Do(func() {
		a.up.Stop()
		a.closeErr = a.q.Close(context.Background())
	})
	return a.closeErr
}

func storeFsync(d Durability) pebblestore.FsyncMode {
	switch d {
	case DurabilityInterval:
		return pebblestore.FsyncModeInterval
	case DurabilityRelaxed:
		return pebblestore.FsyncModeNever
	default:
		return pebblestore.FsyncModeAlways
	}
}
