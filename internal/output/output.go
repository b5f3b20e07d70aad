package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorRed    = "\033[31m"
)

// Logger writes component-tagged log lines for the pipeline's background
// workers. Components swallow their own non-fatal errors and report them
// here instead of propagating them through the capture loop.
type Logger struct {
	mu  *sync.Mutex
	w   io.Writer
	tag string
}

func NewLogger(w io.Writer, tag string) *Logger {
	return &Logger{mu: &sync.Mutex{}, w: w, tag: tag}
}

// WithTag returns a logger sharing the same writer under a new component tag.
func (l *Logger) WithTag(tag string) *Logger {
	return &Logger{mu: l.mu, w: l.w, tag: tag}
}

func (l *Logger) Infof(format string, a ...any) {
	l.printf(colorBlue+"[info]"+colorReset, format, a...)
}

func (l *Logger) Warnf(format string, a ...any) {
	l.printf(colorYellow+"[warn]"+colorReset, format, a...)
}

func (l *Logger) Errorf(format string, a ...any) {
	l.printf(colorRed+"[error]"+colorReset, format, a...)
}

func (l *Logger) Donef(format string, a ...any) {
	l.printf(colorGreen+"[ok]"+colorReset, format, a...)
}

func (l *Logger) printf(level, format string, a ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s [%s] "+format+"\n", append([]any{level, l.tag}, a...)...)
}

// Formatter renders operator-facing CLI output.
type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted(sessionID, dir string, segmentSeconds int) {
	fmt.Fprintf(f.w, "🎥 Recording started (session %s)\n", sessionID)
	fmt.Fprintf(f.w, "   Segments of %ds saved to %s\n", segmentSeconds, dir)
	fmt.Fprintf(f.w, "   Press Ctrl+C to stop\n")
}

func (f *Formatter) RecordingStopped(duration time.Duration, segments int, artifact string) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s, %d segments)\n", formatDuration(duration), segments)
	if artifact != "" {
		fmt.Fprintf(f.w, "📁 Current video: %s\n", artifact)
	}
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) ArtifactListHeader() {
	fmt.Fprintf(f.w, "📁 Recordings:\n\n")
}

func (f *Formatter) ArtifactListItem(name string, sizeBytes int64, modified time.Time) {
	fmt.Fprintf(f.w, "  %s  %7.1f MB  %s\n", modified.Format("2006-01-02 15:04:05"), float64(sizeBytes)/1024.0/1024.0, name)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
