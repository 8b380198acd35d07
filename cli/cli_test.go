package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/b0bbywan/go-playerctl/config"
	"github.com/b0bbywan/go-playerctl/dispatch"
	"github.com/b0bbywan/go-playerctl/format"
)

func runPlayerctl(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := RunPlayerctl(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestPlayerctlVersion(t *testing.T) {
	for _, flag := range []string{"-v", "--version"} {
		t.Run(flag, func(t *testing.T) {
			code, stdout, _ := runPlayerctl(t, flag)
			if code != 0 {
				t.Errorf("exit code = %d, want 0", code)
			}
			if want := "v" + config.AppVersion + "\n"; stdout != want {
				t.Errorf("stdout = %q, want %q", stdout, want)
			}
		})
	}
}

func TestPlayerctlWithoutCommandPrintsHelp(t *testing.T) {
	code, stdout, stderr := runPlayerctl(t)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "Available Commands:") || !strings.Contains(stdout, "play-pause") {
		t.Errorf("help not printed, stdout = %q", stdout)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want nothing", stderr)
	}
}

func TestPlayerctlRejectsBadInvocations(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"dance"}, "Could not execute command: Command not recognized: dance\n"},
		{"format on action", []string{"-f", "{{title}}", "play"}, "Could not execute command: format strings are not supported on command: play\n"},
		{"follow on action", []string{"--follow", "next"}, "Could not execute command: follow is not supported on command: next\n"},
		{"bad volume", []string{"volume", "loud"}, "Could not execute command: Could not parse volume as a number: loud\n"},
		{"bad shuffle", []string{"shuffle", "maybe"}, "Could not execute command: Got unknown shuffle status: 'maybe' (expected 'on', 'off', or 'toggle').\n"},
		{"unknown function", []string{"-f", "{{ nope(title) }}", "status"}, "Could not execute command: unknown template function: nope\n"},
		{"unknown flag", []string{"--shout", "play"}, "unknown flag: --shout\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runPlayerctl(t, tt.args...)
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want nothing", stdout)
			}
			if stderr != tt.want {
				t.Errorf("stderr = %q, want %q", stderr, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		quiet bool
		want  string
	}{
		{"no players", dispatch.ErrNoPlayersFound, false, "No players found\n"},
		{"no players quiet", dispatch.ErrNoPlayersFound, true, ""},
		{"nobody could handle quiet", dispatch.ErrNoPlayerCanHandle, true, ""},
		{"command error quiet", &commandError{err: errors.New("boom")}, true, "Could not execute command: boom\n"},
		{"silent", errSilent, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			o := &playerctlOptions{stderr: &stderr, quiet: tt.quiet}
			o.report(tt.err)
			if got := stderr.String(); got != tt.want {
				t.Errorf("report() printed %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	o := &playerctlOptions{}
	if err := o.wrap(nil); err != nil {
		t.Errorf("wrap(nil) = %v", err)
	}
	if err := o.wrap(dispatch.ErrNoPlayersFound); !errors.Is(err, dispatch.ErrNoPlayersFound) {
		t.Errorf("wrap(no players) = %v", err)
	}
	if err := o.wrap(dispatch.ErrOutputClosed); !errors.Is(err, errSilent) {
		t.Errorf("wrap(output closed) = %v, want errSilent", err)
	}
	unavailable := &dispatch.PlayerUnavailableError{Instance: "vlc", Err: errors.New("gone")}
	err := o.wrap(unavailable)
	var cmdErr *commandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("wrap(unavailable) = %T, want *commandError", err)
	}
	if !errors.Is(err, unavailable) {
		t.Error("wrapped error should unwrap to the original")
	}
}

func TestHeartbeat(t *testing.T) {
	lookup := func(name string, hasFormat bool) *dispatch.Command {
		c, err := dispatch.Lookup(name, hasFormat, true)
		if err != nil {
			t.Fatalf("Lookup(%s) error: %v", name, err)
		}
		return c
	}
	parse := func(src string) *format.Template {
		tmpl, err := format.Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", src, err)
		}
		return tmpl
	}

	tests := []struct {
		name    string
		follow  bool
		command *dispatch.Command
		tmpl    *format.Template
		want    time.Duration
	}{
		{"position followed", true, lookup("position", false), nil, time.Second},
		{"position once", false, lookup("position", false), nil, 0},
		{"status followed", true, lookup("status", false), nil, 0},
		{"template with position", true, lookup("metadata", true), parse("{{ duration(position) }}"), time.Second},
		{"template without position", true, lookup("position", true), parse("{{ title }}"), 0},
		{"list only", true, nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := heartbeat(tt.follow, tt.command, tt.tmpl); got != tt.want {
				t.Errorf("heartbeat() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCommandsHelp(t *testing.T) {
	help := commandsHelp()
	for _, want := range []string{
		"  play                     Command the player to play\n",
		"  position [OFFSET][+/-]   ",
		"  metadata [KEY...]        ",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help lacks %q:\n%s", want, help)
		}
	}
}

func TestPlayerctldRejectsUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunPlayerctld(context.Background(), []string{"dance"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "dance"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestPlayerctldCommands(t *testing.T) {
	cmd := NewPlayerctldCommand(&bytes.Buffer{}, &bytes.Buffer{})
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	want := "daemon run shift unshift"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("subcommands = %q, want %q", got, want)
	}
}
