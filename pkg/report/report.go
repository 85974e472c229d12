// Package report defines the error-reporting seam between logship and its
// host. Every internally handled fault (storage write failure, rejected
// batch, network error) flows through a Handler; nothing is raised back into
// the host's logging call path.
package report

import logpkg "github.com/rzbill/logship/pkg/log"

// Severity codes attached to reports. The code classifies which side of the
// pipeline faulted, not how bad it is.
const (
	CodeStorage  = 1
	CodeDelivery = 2
)

// Handler receives internally handled faults. Implementations must not
// panic and must be safe for concurrent use; they are called from both the
// producer path and the uploader goroutine.
type Handler interface {
	Error(description string, cause error, code int)
}

// LogHandler reports faults through a structured logger. It is the default
// Handler when the host does not supply one.
type LogHandler struct {
	Logger logpkg.Logger
}

// NewLogHandler wraps a logger in a Handler.
func NewLogHandler(l logpkg.Logger) *LogHandler {
	if l == nil {
		l = logpkg.NewNop()
	}
	return &LogHandler{Logger: l}
}

// Error implements Handler.
func (h *LogHandler) Error(description string, cause error, code int) {
	h.Logger.Error(description, logpkg.Err(cause), logpkg.Int("code", code))
}
