package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var (
	verbose atomic.Bool

	mu         sync.Mutex
	output     io.Writer = os.Stdout
	outputFile *os.File
	outputPath string

	logger = log.NewWithOptions(os.Stdout, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: false,
	})
)

// SetVerbose enables or disables debug logging for the current process.
func SetVerbose(enabled bool) {
	verbose.Store(enabled)
	if enabled {
		logger.SetLevel(log.DebugLevel)
		return
	}
	logger.SetLevel(log.InfoLevel)
}

// Verbose reports whether debug logging is enabled.
func Verbose() bool {
	return verbose.Load()
}

// SetOutputFile configures optional file logging while preserving stdout output.
// Passing an empty path disables file logging.
func SetOutputFile(path string) error {
	path = strings.TrimSpace(path)

	mu.Lock()
	defer mu.Unlock()

	if path == outputPath {
		return nil
	}

	if outputFile != nil {
		err := outputFile.Close()
		outputFile = nil
		outputPath = ""
		setOutputLocked(os.Stdout)
		if err != nil {
			return err
		}
	}

	setOutputLocked(os.Stdout)
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	outputFile = f
	outputPath = path
	setOutputLocked(io.MultiWriter(os.Stdout, f))
	return nil
}

// SetOutput redirects all output to w and returns a function restoring the
// previous writer. It is meant for tests and embedding.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := output
	setOutputLocked(w)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		setOutputLocked(prev)
	}
}

func setOutputLocked(w io.Writer) {
	output = w
	logger.SetOutput(w)
}

// Close flushes and closes the log file if one is configured.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if outputFile == nil {
		return nil
	}
	err := outputFile.Close()
	outputFile = nil
	outputPath = ""
	setOutputLocked(os.Stdout)
	return err
}

// Infof prints formatted output regardless of verbosity level.
func Infof(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(output, format, args...)
}

// Infoln prints output regardless of verbosity level.
func Infoln(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(output, args...)
}

// Debugf logs a debug line, shown only when verbose mode is enabled.
func Debugf(format string, args ...any) {
	if !Verbose() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	logger.Debugf(strings.TrimRight(format, "\n"), args...)
}

// Warnf logs a warning line.
func Warnf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Warnf(strings.TrimRight(format, "\n"), args...)
}

// Warn logs a warning with structured key/value pairs.
func Warn(msg string, keyvals ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Warn(msg, keyvals...)
}
