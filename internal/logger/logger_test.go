package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// JSON形式のログが出力されることを検証
func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "info")

	log.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v", entry["key"])
	}
}

// 指定レベル未満のログが抑制されることを検証
func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "warn")

	log.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("info log was not suppressed: %s", buf.String())
	}

	log.Warn("should be emitted")
	if buf.Len() == 0 {
		t.Error("warn log was suppressed")
	}
}

// ログレベル文字列の解析を検証
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "ERROR", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
