package config

import (
    "io"
    "os"
    "strings"
    "time"

    "github.com/rs/zerolog"
)

// NewLogger builds the process logger.  Development gets a human readable
// console writer on stderr; every other environment logs JSON lines.
func NewLogger(cfg Config) zerolog.Logger {
    level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
    if err != nil || cfg.LogLevel == "" {
        level = zerolog.InfoLevel
    }
    var out io.Writer = os.Stderr
    if strings.EqualFold(cfg.Env, "development") {
        out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
    }
    return zerolog.New(out).Level(level).With().Timestamp().Str("service", "maternal-vitals").Logger()
}
