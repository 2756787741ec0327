// Package logging provides the per-review log file plus structured process
// logging. A ReviewLogger belongs to exactly one review invocation and is
// passed explicitly to whoever needs it; there is no package-global current
// logger, so concurrent reviews cannot trample each other's logs.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ReviewLogger writes a human-readable transcript of one review run to a
// dedicated file and mirrors key events to a zerolog logger. All methods are
// safe on a nil receiver so callers can skip logging without nil checks.
type ReviewLogger struct {
	reviewID  string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
	zlog      zerolog.Logger
}

// NewReviewLogger creates the transcript file for a review run under dir.
func NewReviewLogger(reviewID, dir string, zlog zerolog.Logger) (*ReviewLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join(dir, fmt.Sprintf("review_%s_%s.log", reviewID, timestamp))
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &ReviewLogger{
		reviewID:  reviewID,
		logFile:   logFile,
		startTime: time.Now(),
		zlog:      zlog.With().Str("review_id", reviewID).Logger(),
	}
	logger.writeHeader()
	return logger, nil
}

func (r *ReviewLogger) writeHeader() {
	r.writeLine("==============================================")
	r.writeLine(fmt.Sprintf("REVIEW LOG - %s", r.reviewID))
	r.writeLine(fmt.Sprintf("Started: %s", r.startTime.Format("2006-01-02 15:04:05.000")))
	r.writeLine("==============================================")
}

// Log writes a timestamped line to the transcript.
func (r *ReviewLogger) Log(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.writeLine(fmt.Sprintf("[%s] %s",
		time.Since(r.startTime).Round(time.Millisecond), fmt.Sprintf(format, args...)))
}

// LogSection writes a visually separated section header.
func (r *ReviewLogger) LogSection(title string) {
	if r == nil {
		return
	}
	r.writeLine("")
	r.writeLine("---- " + title + " ----")
	r.zlog.Debug().Str("section", title).Msg("review stage")
}

// LogError records a failed operation in the transcript and the process log.
func (r *ReviewLogger) LogError(operation string, err error) {
	if r == nil {
		return
	}
	r.writeLine(fmt.Sprintf("[%s] ERROR %s: %v",
		time.Since(r.startTime).Round(time.Millisecond), operation, err))
	r.zlog.Error().Err(err).Msg(operation)
}

// LogRequest records an outgoing model prompt for a turn.
func (r *ReviewLogger) LogRequest(turn int, model, prompt string) {
	if r == nil {
		return
	}
	r.LogSection(fmt.Sprintf("TURN %d REQUEST (model: %s)", turn, model))
	r.writeLine(prompt)
}

// LogResponse records a model completion for a turn.
func (r *ReviewLogger) LogResponse(turn int, response string) {
	if r == nil {
		return
	}
	r.LogSection(fmt.Sprintf("TURN %d RESPONSE", turn))
	r.writeLine(response)
}

// LogToolCall records a dispatched tool call and a truncated result preview.
func (r *ReviewLogger) LogToolCall(turn int, tool, args, result string) {
	if r == nil {
		return
	}
	r.Log("turn %d: tool %s(%s)", turn, tool, truncate(args, 200))
	r.Log("  result: %s", truncate(result, 400))
}

// Close flushes and closes the transcript file.
func (r *ReviewLogger) Close() {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.logFile == nil {
		return
	}
	duration := time.Since(r.startTime)
	fmt.Fprintf(r.logFile, "\n==============================================\n")
	fmt.Fprintf(r.logFile, "Completed in %v\n", duration.Round(time.Millisecond))
	r.logFile.Close()
	r.logFile = nil
}

func (r *ReviewLogger) writeLine(line string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.logFile == nil {
		return
	}
	fmt.Fprintln(r.logFile, line)
}

func truncate(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

// NewProcessLogger builds the zerolog logger used outside of review runs.
func NewProcessLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}
