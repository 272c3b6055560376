package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(zerolog.New(&buf))

	logger.Info("epoch finished",
		EpochKey, 3,
		F1Key, 0.82,
		ModelNameKey, "cnn",
	)

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	if record["message"] != "epoch finished" {
		t.Errorf("message = %v, want 'epoch finished'", record["message"])
	}
	if record[ModelNameKey] != "cnn" {
		t.Errorf("%s = %v, want cnn", ModelNameKey, record[ModelNameKey])
	}
	if record[EpochKey] != float64(3) {
		t.Errorf("%s = %v, want 3", EpochKey, record[EpochKey])
	}
}

func TestZerologLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(zerolog.New(&buf)).With(SplitKey, "dev")

	logger.Info("evaluating")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record[SplitKey] != "dev" {
		t.Errorf("%s = %v, want dev", SplitKey, record[SplitKey])
	}
}

func TestTestLoggerCapture(t *testing.T) {
	tl := NewTestLogger(LevelInfo)

	tl.Debug("should be filtered")
	tl.Info("checkpoint updated", F1Key, 0.9)

	child := tl.With(ModelNameKey, "baseline_bert")
	child.Warn("no improvement")

	records := tl.Records()
	if len(records) != 2 {
		t.Fatalf("captured %d records, want 2", len(records))
	}
	if !tl.ContainsMessage("checkpoint updated") {
		t.Error("expected 'checkpoint updated' message")
	}
	if !tl.ContainsField(ModelNameKey, "baseline_bert") {
		t.Error("expected child context field on shared sink")
	}
}

func TestToLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ToLevel(tt.in); got != tt.want {
			t.Errorf("ToLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
