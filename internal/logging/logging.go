package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. Console output goes to stderr
// so it never interleaves with the chat transcript on stdout. When a log
// file is configured, entries are duplicated to a daily-rotated file kept
// for seven days.
func Setup(level, file string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	console := zerolog.ConsoleWriter{Out: os.Stderr}

	if file == "" {
		log.Logger = log.Output(console)
		return nil
	}

	rotated, err := rotatelogs.New(
		file+".%Y%m%d",
		rotatelogs.WithLinkName(file),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", file, err)
	}

	log.Logger = log.Output(io.MultiWriter(console, rotated))
	return nil
}
