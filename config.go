package svchost

import (
	"flag"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultConfig = Config{
		LogLevel:  "",
		LogFormat: "json",
		Workers:   0,
	}
)

// Config holds the settings shared by every hosted process.
type Config struct {
	// valid values are:
	// "", trace, debug, info, warn, error, fatal, panic
	// "" and unknown values mean info
	LogLevel string
	// valid values are:
	// json, console
	LogFormat string

	// Workers bounds the worker pool, 0 for unbounded
	Workers int
}

// NewConfig returns a config with defaults
// overriden by options
func NewConfig(options ...ConfigOption) *Config {
	c := defaultConfig
	for _, o := range options {
		o(&c)
	}
	return &c
}

type ConfigOption func(c *Config)

// WithEnv overrides config values with ones retrieved from the environment
// LOG_LEVEL: LogLevel,
// LOG_FORMAT: LogFormat,
// WORKERS: Workers,
func WithEnv() ConfigOption {
	return func(c *Config) {
		if e := os.Getenv("LOG_LEVEL"); e != "" {
			c.LogLevel = e
		}
		if e := os.Getenv("LOG_FORMAT"); e != "" {
			c.LogFormat = e
		}
		if e := os.Getenv("WORKERS"); e != "" {
			if n, err := strconv.Atoi(e); err == nil {
				c.Workers = n
			}
		}
	}
}

// WithFlags registers flags with the provided flagset
// fs.Parse MUST be called before config is used
func WithFlags(fs *flag.FlagSet) ConfigOption {
	return func(c *Config) {
		fs.StringVar(&c.LogLevel, "log.level", c.LogLevel, `levels: "", trace, debug, info, warn, error, fatal, panic`)
		fs.StringVar(&c.LogFormat, "log.format", c.LogFormat, `format: json, console`)
		fs.IntVar(&c.Workers, "workers", c.Workers, `worker pool size, 0 for unbounded`)
	}
}

func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}
func WithLogFormat(format string) ConfigOption {
	return func(c *Config) {
		c.LogFormat = format
	}
}
func WithWorkers(n int) ConfigOption {
	return func(c *Config) {
		c.Workers = n
	}
}

// Logger returns a logger writing to stdout
func (c Config) Logger() zerolog.Logger {
	return c.logger(os.Stdout)
}

func (c Config) logger(w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := w
	switch c.LogFormat {
	case "console":
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}
	case "json":
		fallthrough
	default:
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
