package logger

import (
	"bytes"
	"os"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	if got := buf.String(); got != "DEBUG\ttest message arg\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Section("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestInfo_AlwaysWritten(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("listening on %s", ":8080")

	if got := buf.String(); got != "INFO\tlistening on :8080\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestWarnAndError(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Warn("slow %d", 3)
	Error("failed")

	want := "WARN\tslow 3\nERROR\tfailed\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestSection_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Startup")

	if got := buf.String(); got != "DEBUG\t=== Startup ===\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestWith_AddsFields(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	With("request_id", "abc").Info("handled")

	if got := buf.String(); !bytes.Contains([]byte(got), []byte(`"request_id": "abc"`)) {
		t.Errorf("expected field in output, got %q", got)
	}
}
