package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	logpkg "github.com/rzbill/logship/pkg/log"
)

func TestLogHandlerReportsTriple(t *testing.T) {
	var buf bytes.Buffer
	l := logpkg.NewLogger(
		logpkg.WithFormatter(&logpkg.TextFormatter{DisableTimestamp: true}),
		logpkg.WithOutput(logpkg.NewWriterOutput(&buf)),
	)
	h := NewLogHandler(l)

	h.Error("unable to persist log message", errors.New("disk full"), CodeStorage)

	out := buf.String()
	for _, want := range []string{"unable to persist log message", "disk full", "code=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q: %q", want, out)
		}
	}
}

func TestNewLogHandlerNilLogger(t *testing.T) {
	h := NewLogHandler(nil)
	// Must not panic.
	h.Error("fault", nil, CodeDelivery)
}
