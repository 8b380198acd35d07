package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		level        Level
		messageLevel Level
		shouldLog    bool
	}{
		{"DEBUG logs at DEBUG level", DEBUG, DEBUG, true},
		{"INFO logs at DEBUG level", DEBUG, INFO, true},
		{"DEBUG doesn't log at INFO level", INFO, DEBUG, false},
		{"ERROR logs at INFO level", INFO, ERROR, true},
		{"WARN logs at ERROR level", ERROR, WARN, false},
		{"ERROR logs at ERROR level", ERROR, ERROR, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			result := logger.shouldLog(tt.messageLevel, "message")
			if result != tt.shouldLog {
				t.Errorf("shouldLog(%v) = %v, want %v", tt.messageLevel, result, tt.shouldLog)
			}
		})
	}
}

func TestPackageLevels(t *testing.T) {
	l := New(WARN)
	l.packageLevels = map[string]Level{"mpris": DEBUG, "daemon": ERROR}

	tests := []struct {
		msg   string
		level Level
		want  bool
	}{
		{"[mpris] player appeared", DEBUG, true},
		{"[daemon] shifted", WARN, false},
		{"[registry] promoted", INFO, false},
		{"[registry] dropped", WARN, true},
		{"no component", WARN, true},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := l.shouldLog(tt.level, tt.msg); got != tt.want {
				t.Errorf("shouldLog(%v, %q) = %v, want %v", tt.level, tt.msg, got, tt.want)
			}
		})
	}
}

func TestExtractComponent(t *testing.T) {
	tests := map[string]string{
		"[mpris] hello": "mpris",
		"[] empty":      "",
		"plain":         "",
		"[unterminated": "",
	}
	for msg, want := range tests {
		if got := extractComponent(msg); got != want {
			t.Errorf("extractComponent(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestWriteGoesToZapCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(INFO, core)

	l.write(DEBUG, "[mpris] hidden %d", []interface{}{1})
	l.write(WARN, "[mpris] shown %d", []interface{}{2})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Message != "[mpris] shown 2" {
		t.Errorf("message = %q", entries[0].Message)
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"warning", WARN, false},
		{"error", ERROR, false},
		{"", INFO, false},
		{"loud", INFO, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelNames(t *testing.T) {
	tests := map[Level]string{
		DEBUG: "DEBUG",
		INFO:  "INFO ",
		WARN:  "WARN ",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}

	for level, expected := range tests {
		if levelNames[level] != expected {
			t.Errorf("levelNames[%d] = %s, want %s", level, levelNames[level], expected)
		}
	}
}

func TestSetLevel(t *testing.T) {
	originalLevel := defaultLogger.level

	defer func() {
		defaultLogger.level = originalLevel
	}()

	SetLevel(DEBUG)
	if defaultLogger.level != DEBUG {
		t.Errorf("SetLevel(DEBUG) failed, level = %d, want %d", defaultLogger.level, DEBUG)
	}

	SetLevel(ERROR)
	if defaultLogger.level != ERROR {
		t.Errorf("SetLevel(ERROR) failed, level = %d, want %d", defaultLogger.level, ERROR)
	}
}
