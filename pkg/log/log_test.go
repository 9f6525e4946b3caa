package log

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"Warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"FATAL":   zapcore.FatalLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfValidate_FileOutput(t *testing.T) {
	c := &Conf{Output: "file"}
	if err := c.Validate(); err == nil {
		t.Error("expected error when file output has no path")
	}

	c = &Conf{Output: "file", Path: "/tmp/logs"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RotateSize != 100 || c.RotateNum != 10 || c.KeepDays != 7 {
		t.Errorf("expected rotation defaults to be filled, got %+v", c)
	}
}

func TestNewLog_Stdout(t *testing.T) {
	conf := SetDefaults()
	l, err := NewLog(conf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l == nil {
		t.Fatal("expected logger to be non-nil")
	}
	Infow("test message", "key", "value")
}
