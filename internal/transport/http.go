package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rzbill/logship/internal/queue"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// MaxMessageBytes is the per-message size cap. A message at or above this
// threshold is excluded from the request body at send time and reported as
// dropped. Note the exclusion is independent of the batch outcome: if the
// rest of the batch is acknowledged, the oversized entry is deleted with it
// without ever having been transmitted.
const MaxMessageBytes = 5200

// Result is the outcome of one delivery attempt. Err is set on a
// transport-level I/O failure, in which case Status is meaningless.
type Result struct {
	Status int
	Body   string
	Err    error
}

// Options configures the HTTP client.
type Options struct {
	// EndpointURL is the ingestion endpoint receiving POSTed batches.
	EndpointURL string
	// ProxyHost and ProxyPort route requests through an HTTP proxy when
	// ProxyHost is non-empty.
	ProxyHost string
	ProxyPort int
	// Logger defaults to a nop logger.
	Logger logpkg.Logger
}

// Client posts batches of entries to the ingestion endpoint as plain text.
type Client struct {
	endpoint string
	http     *http.Client
	logger   logpkg.Logger
}

// New builds a Client. The underlying http.Client carries no timeout: a
// batch is never abandoned mid-flight, so a hung connection stalls the
// uploader until the peer responds or the connection drops.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNop()
	}
	tr := &http.Transport{}
	if opts.ProxyHost != "" {
		tr.Proxy = http.ProxyURL(&url.URL{
			Scheme: "http",
			Host:   net.JoinHostPort(opts.ProxyHost, strconv.Itoa(opts.ProxyPort)),
		})
	}
	return &Client{
		endpoint: opts.EndpointURL,
		http:     &http.Client{Transport: tr},
		logger:   logger,
	}
}

// Send delivers one batch as a single POST, concatenating each message's
// bytes in batch order. It returns the endpoint's status code, or an I/O
// failure as Result.Err.
func (c *Client) Send(ctx context.Context, entries []queue.Entry) Result {
	var body bytes.Buffer
	for _, e := range entries {
		if len(e.Message) >= MaxMessageBytes {
			c.logger.Warn("message too large for endpoint, dropping",
				logpkg.Uint64("id", e.ID), logpkg.Int("bytes", len(e.Message)))
			continue
		}
		body.WriteString(e.Message)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return Result{Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	// Drain the response so the connection can be reused; keep a snippet
	// for error reporting on rejection.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	_, _ = io.Copy(io.Discard, resp.Body)

	return Result{Status: resp.StatusCode, Body: string(snippet)}
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }
