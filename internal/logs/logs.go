// Package logs collects a case's append-only log stream (§4.15) and
// renders it to a terminal the way the CLI's request/response formatter
// does: colorized when writing to a real TTY, plain otherwise.
package logs

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/wesleyorama2/sisyphus/internal/result"
)

// Collector appends LogEntry records and hands them to a Scheduler via
// its Log callback; it is safe for concurrent use by fan-out workers.
type Collector struct {
	mu      sync.Mutex
	entries []result.LogEntry
	Verbose bool // include DEBUG entries when draining
	Now     func() time.Time
}

// NewCollector builds an empty Collector wired to the system clock.
func NewCollector(verbose bool) *Collector {
	return &Collector{Verbose: verbose, Now: time.Now}
}

// Log matches the Scheduler.Log callback shape: append one entry,
// sanitizing its message first so a rendered secret never reaches the
// stream.
func (c *Collector) Log(level result.LogLevel, message string, stepIndex *int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, result.LogEntry{
		Timestamp: c.Now(),
		Level:     level,
		Message:   result.SanitizeMessage(message),
		StepIndex: stepIndex,
	})
}

// Entries returns every collected entry, filtering DEBUG out unless
// Verbose is set (the CLI's `-v/--verbose` flag, §6).
func (c *Collector) Entries() []result.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Verbose {
		out := make([]result.LogEntry, len(c.entries))
		copy(out, c.entries)
		return out
	}
	out := make([]result.LogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Level != result.LogDebug {
			out = append(out, e)
		}
	}
	return out
}

// Scheme names the fatih/color palette used for each log level
// (DefaultScheme: debug=white, info=cyan, warning=bold yellow,
// error=bold red).
type Scheme struct {
	Debug   *color.Color
	Info    *color.Color
	Warning *color.Color
	Error   *color.Color
}

// DefaultScheme mirrors output.DefaultColorScheme's severity palette.
func DefaultScheme() *Scheme {
	return &Scheme{
		Debug:   color.New(color.FgWhite),
		Info:    color.New(color.FgCyan),
		Warning: color.New(color.FgYellow, color.Bold),
		Error:   color.New(color.FgRed, color.Bold),
	}
}

// NoColorScheme disables every color, for non-TTY writers.
func NoColorScheme() *Scheme {
	s := DefaultScheme()
	s.Debug.DisableColor()
	s.Info.DisableColor()
	s.Warning.DisableColor()
	s.Error.DisableColor()
	return s
}

func (s *Scheme) colorFor(level result.LogLevel) *color.Color {
	switch level {
	case result.LogDebug:
		return s.Debug
	case result.LogWarning:
		return s.Warning
	case result.LogError:
		return s.Error
	default:
		return s.Info
	}
}

// WriteTo renders entries to w, one line per entry, colorized per scheme.
func WriteTo(w io.Writer, entries []result.LogEntry, scheme *Scheme) {
	for _, e := range entries {
		levelColor := scheme.colorFor(e.Level)
		line := fmt.Sprintf("%s [%s] %s\n", e.Timestamp.Format("15:04:05.000"), e.Level, e.Message)
		fmt.Fprint(w, levelColor.Sprint(line))
	}
}
