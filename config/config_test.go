package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/b0bbywan/go-playerctl/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logger.Level
	}{
		{"debug", logger.DEBUG},
		{"DEBUG", logger.DEBUG},
		{"Debug", logger.DEBUG},
		{"info", logger.INFO},
		{"INFO", logger.INFO},
		{"warn", logger.WARN},
		{"WARN", logger.WARN},
		{"error", logger.ERROR},
		{"ERROR", logger.ERROR},
		{"fatal", logger.FATAL},
		{"FATAL", logger.FATAL},
		{"unknown", logger.WARN}, // default
		{"", logger.WARN},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLogLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLogLevel(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Players) != 0 || len(cfg.Ignore) != 0 {
		t.Errorf("players = %v, ignore = %v, want none", cfg.Players, cfg.Ignore)
	}
	if cfg.Format != "" || cfg.NoMessages {
		t.Errorf("format = %q, no-messages = %v", cfg.Format, cfg.NoMessages)
	}
	if cfg.LogLevel != logger.WARN {
		t.Errorf("LogLevel = %d, want WARN", cfg.LogLevel)
	}
	if cfg.MPRIS.Timeout != 5*time.Second {
		t.Errorf("MPRIS.Timeout = %s, want 5s", cfg.MPRIS.Timeout)
	}
	if !cfg.Daemon.Notify {
		t.Error("Daemon.Notify should default to true")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
player: spotify, vlc
ignore-player: firefox
format: "{{ artist }} - {{ title }}"
no-messages: true
loglevel: debug
loglevels:
  daemon: error
mpris:
  timeout: 2s
daemon:
  ignore: [chromium, mpv]
  notify: false
`)

	l := NewLoader(dir)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := &Config{
		Players:       []string{"spotify", "vlc"},
		Ignore:        []string{"firefox"},
		Format:        "{{ artist }} - {{ title }}",
		NoMessages:    true,
		LogLevel:      logger.DEBUG,
		PackageLevels: map[string]logger.Level{"daemon": logger.ERROR},
		MPRIS:         &MPRISConfig{Timeout: 2 * time.Second},
		Daemon:        &DaemonConfig{Ignore: []string{"chromium", "mpv"}, Notify: false},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if got := l.ConfigFile(); got != filepath.Join(dir, "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "player: [unterminated\n")

	if _, err := NewLoader(dir).Load(); err == nil {
		t.Error("Load() should fail on a malformed file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "player: vlc\nloglevel: info\n")
	t.Setenv("PLAYERCTL_PLAYER", "mpv")
	t.Setenv("PLAYERCTL_LOGLEVEL", "error")
	t.Setenv("PLAYERCTL_MPRIS_TIMEOUT", "1s")

	cfg, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff([]string{"mpv"}, cfg.Players); diff != "" {
		t.Errorf("players mismatch (-want +got):\n%s", diff)
	}
	if cfg.LogLevel != logger.ERROR {
		t.Errorf("LogLevel = %d, want ERROR", cfg.LogLevel)
	}
	if cfg.MPRIS.Timeout != time.Second {
		t.Errorf("MPRIS.Timeout = %s, want 1s", cfg.MPRIS.Timeout)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "player: vlc\nformat: \"{{ title }}\"\n")

	fs := pflag.NewFlagSet("playerctl", pflag.ContinueOnError)
	fs.String("player", "", "")
	fs.String("format", "", "")
	fs.Bool("no-messages", false, "")
	if err := fs.Parse([]string{"--player", "spotify,%any"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	l := NewLoader(dir)
	if err := l.BindFlags(fs); err != nil {
		t.Fatalf("BindFlags() error: %v", err)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if diff := cmp.Diff([]string{"spotify", "%any"}, cfg.Players); diff != "" {
		t.Errorf("players mismatch (-want +got):\n%s", diff)
	}
	// unset flags leave the file value alone
	if cfg.Format != "{{ title }}" {
		t.Errorf("Format = %q, want the file value", cfg.Format)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "daemon:\n  ignore: [vlc]\n")

	l := NewLoader(dir)
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	if err := l.Watch(ctx, func(cfg *Config) { reloaded <- cfg }); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}

	if err := os.WriteFile(path, []byte("daemon:\n  ignore: [mpv]\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cmp.Equal([]string{"mpv"}, cfg.Daemon.Ignore) {
				return
			}
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}
}

func TestWatchWithoutFile(t *testing.T) {
	l := NewLoader(t.TempDir())
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := l.Watch(context.Background(), func(*Config) { t.Error("unexpected reload") }); err != nil {
		t.Errorf("Watch() error: %v", err)
	}
}

func BenchmarkParseLogLevel(b *testing.B) {
	for i := 0; i < b.N; i++ {
		parseLogLevel("DEBUG")
	}
}
