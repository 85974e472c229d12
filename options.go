package logship

import (
	"time"

	logpkg "github.com/rzbill/logship/pkg/log"
	"github.com/rzbill/logship/pkg/report"
)

// Durability selects how aggressively the backing store syncs its WAL.
type Durability int

const (
	// DurabilityStrict fsyncs every enqueue. Default: an accepted entry
	// survives a crash.
	DurabilityStrict Durability = iota
	// DurabilityInterval group-commits syncs over a small window.
	DurabilityInterval
	// DurabilityRelaxed leaves syncing to the store's own policy.
	DurabilityRelaxed
)

// DefaultBatchSize is the number of entries pulled per delivery attempt
// when Options.BatchSize is zero.
const DefaultBatchSize = 50

// DefaultIdleWait bounds the uploader's sleep on an empty queue.
const DefaultIdleWait = time.Second

// Options configures an Appender.
type Options struct {
	// DataDir is the directory for the persistent store. Required.
	DataDir string
	// Name is the logical queue name within DataDir. Required. Appenders
	// with distinct names may share a DataDir; the store is opened once.
	Name string
	// EndpointURL is the HTTP(S) ingestion endpoint batches are POSTed to.
	// Required.
	EndpointURL string

	// BatchSize caps entries per upload (default DefaultBatchSize).
	BatchSize int
	// IdleWait bounds the uploader's empty-queue sleep (default
	// DefaultIdleWait); a new Append wakes it early.
	IdleWait time.Duration
	// ProxyHost and ProxyPort, when ProxyHost is set, route uploads through
	// an HTTP proxy.
	ProxyHost string
	ProxyPort int
	// Durability is the store sync policy (default DurabilityStrict).
	Durability Durability

	// Logger receives operational logging. Defaults to a nop logger.
	Logger logpkg.Logger
	// ErrorHandler receives internally handled faults. Defaults to
	// reporting through Logger.
	ErrorHandler ErrorHandler
}

func (o Options) validate() error {
	if o.DataDir == "" {
		return ErrNoDataDir
	}
	if o.Name == "" {
		return ErrNoName
	}
	if o.EndpointURL == "" {
		return ErrNoEndpoint
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.IdleWait <= 0 {
		o.IdleWait = DefaultIdleWait
	}
	if o.Logger == nil {
		o.Logger = logpkg.NewNop()
	}
	if o.ErrorHandler == nil {
		o.ErrorHandler = report.NewLogHandler(o.Logger)
	}
	return o
}
