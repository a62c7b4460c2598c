package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_DoesNotPanic(t *testing.T) {
	Init(false, false)
	L().Info().Msg("test json info")

	Init(true, false)
	L().Debug().Msg("test json debug")

	Init(false, true)
	if !IsPrettyMode() {
		t.Error("expected pretty mode after Init(false, true)")
	}
	L().Info().Msg("test human info")

	Init(false, false)
	if IsPrettyMode() {
		t.Error("expected pretty mode off after Init(false, false)")
	}
}

func TestNew_ConsoleOutput(t *testing.T) {
	var human, jsonOut bytes.Buffer
	defer Init(false, false)

	l := New(&human, &jsonOut, false, true)
	l.Info().Int64("latency_ms", 3).Msg("probe period")

	if jsonOut.Len() != 0 {
		t.Errorf("expected no JSON output in human mode, got: %s", jsonOut.String())
	}
	if !strings.Contains(human.String(), "probe period") {
		t.Errorf("expected console line, got: %s", human.String())
	}
	if !strings.Contains(human.String(), "latency_ms=3") {
		t.Errorf("expected console field, got: %s", human.String())
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var human, jsonOut bytes.Buffer
	defer Init(false, false)

	l := New(&human, &jsonOut, false, false)
	l.Debug().Msg("dropped")
	if jsonOut.Len() != 0 {
		t.Errorf("expected debug line to be filtered, got: %s", jsonOut.String())
	}

	l = New(&human, &jsonOut, true, false)
	l.Debug().Msg("kept")
	if !strings.Contains(jsonOut.String(), `"message":"kept"`) {
		t.Errorf("expected debug line, got: %s", jsonOut.String())
	}
}

func TestWithHarness(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer Init(false, false)

	log := WithHarness("probe")
	log.Info().Msg("test message")

	if !bytes.Contains(buf.Bytes(), []byte(`"harness":"probe"`)) {
		t.Errorf("expected harness field in output, got: %s", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).With().Str("custom", "field").Logger())
	defer Init(false, false)

	L().Info().Msg("test")

	if !bytes.Contains(buf.Bytes(), []byte(`"custom":"field"`)) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}
}
