package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormatterDeterministicFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(DebugLevel),
		WithFormatter(&TextFormatter{DisableTimestamp: true}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("batch sent", Int("entries", 3), Str("endpoint", "http://x"))

	got := buf.String()
	want := "INFO batch sent endpoint=http://x entries=3\n"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(WarnLevel),
		WithFormatter(&TextFormatter{DisableTimestamp: true}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("suppressed levels leaked: %q", buf.String())
	}
	if strings.Count(buf.String(), "shown") != 2 {
		t.Fatalf("expected warn and error lines, got %q", buf.String())
	}
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithFormatter(&TextFormatter{DisableTimestamp: true}),
		WithOutput(NewWriterOutput(&buf)),
	)
	child := l.With(Component("uploader"))
	child.Info("tick")

	if !strings.Contains(buf.String(), "component=uploader") {
		t.Fatalf("child fields missing: %q", buf.String())
	}

	buf.Reset()
	l.Info("tick")
	if strings.Contains(buf.String(), "component=") {
		t.Fatalf("parent logger polluted by child fields: %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithFormatter(&JSONFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("hello", Uint64("id", 7))

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if obj["msg"] != "hello" || obj["level"] != "INFO" {
		t.Fatalf("unexpected object: %v", obj)
	}
	if obj["id"] != float64(7) {
		t.Fatalf("field missing: %v", obj)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": DebugLevel,
		"info":  InfoLevel,
		"warn":  WarnLevel,
		"error": ErrorLevel,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
