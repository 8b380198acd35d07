package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-playerctl/logger"
	"github.com/b0bbywan/go-playerctl/selection"
)

const (
	AppName   = "playerctl"
	EnvPrefix = "PLAYERCTL"
)

// AppVersion is overridden at build time with -ldflags "-X ...".
var AppVersion = "2.4.1"

type Config struct {
	// CLI defaults, overridden by flags
	Players    []string
	Ignore     []string
	Format     string
	NoMessages bool

	LogLevel      logger.Level
	PackageLevels map[string]logger.Level

	MPRIS  *MPRISConfig
	Daemon *DaemonConfig
}

type MPRISConfig struct {
	Timeout time.Duration
}

type DaemonConfig struct {
	// Ignore lists player names playerctld never manages.
	Ignore []string
	// Notify sends readiness to systemd when run as a unit.
	Notify bool
}

// flagKeys are the config keys that mirror a CLI flag of the same name.
var flagKeys = []string{"player", "ignore-player", "format", "no-messages"}

// Loader reads the configuration from defaults, an optional config.yaml,
// PLAYERCTL_* environment variables and bound flags, lowest priority first.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader searching paths for config.yaml. With no paths
// it searches /etc/playerctl and ~/.config/playerctl.
func NewLoader(paths ...string) *Loader {
	v := viper.New()

	v.SetDefault("player", "")
	v.SetDefault("ignore-player", "")
	v.SetDefault("format", "")
	v.SetDefault("no-messages", false)
	v.SetDefault("loglevel", "WARN")
	v.SetDefault("mpris.timeout", "5s")
	v.SetDefault("daemon.ignore", []string{})
	v.SetDefault("daemon.notify", true)

	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		v.AddConfigPath(filepath.Join("/etc", AppName))
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlags lets the flags that are set on the command line override the
// file and the environment. Flags missing from fs are skipped.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for _, key := range flagKeys {
		f := fs.Lookup(key)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFile returns the file the last Load read, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Load reads the configuration. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return l.build(), nil
}

func (l *Loader) build() *Config {
	timeout := l.v.GetDuration("mpris.timeout")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Config{
		Players:       selection.ParseList(l.v.GetStringSlice("player")...),
		Ignore:        selection.ParseList(l.v.GetStringSlice("ignore-player")...),
		Format:        l.v.GetString("format"),
		NoMessages:    l.v.GetBool("no-messages"),
		LogLevel:      parseLogLevel(l.v.GetString("loglevel")),
		PackageLevels: parsePackageLevels(l.v.GetStringMapString("loglevels")),
		MPRIS:         &MPRISConfig{Timeout: timeout},
		Daemon: &DaemonConfig{
			Ignore: selection.ParseList(l.v.GetStringSlice("daemon.ignore")...),
			Notify: l.v.GetBool("daemon.notify"),
		},
	}
}

// parseLogLevel converts a string to a logger.Level, WARN when unknown.
func parseLogLevel(levelStr string) logger.Level {
	level, err := logger.ParseLevel(levelStr)
	if err != nil || strings.TrimSpace(levelStr) == "" {
		return logger.WARN
	}
	return level
}

func parsePackageLevels(raw map[string]string) map[string]logger.Level {
	if len(raw) == 0 {
		return nil
	}
	levels := make(map[string]logger.Level, len(raw))
	for component, level := range raw {
		levels[component] = parseLogLevel(level)
	}
	return levels
}

// Apply installs the logging settings on the default logger.
func (c *Config) Apply() {
	logger.SetLevel(c.LogLevel)
	if c.PackageLevels != nil {
		logger.SetPackageLevels(c.PackageLevels)
	}
}
