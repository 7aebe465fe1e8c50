package kumpul

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is the optional diagnostic sink. The coordinator holds it as a
// non-owning reference; a nil logger is a no-op and never affects
// correctness.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SimpleLogger writes leveled key=value lines to stderr.
type SimpleLogger struct {
	out *log.Logger
}

// NewSimpleLogger creates a console logger suitable for development use.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		out: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.emit("DEBUG", msg, keysAndValues)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...interface{}) {
	l.emit("INFO", msg, keysAndValues)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.emit("WARN", msg, keysAndValues)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...interface{}) {
	l.emit("ERROR", msg, keysAndValues)
}

func (l *SimpleLogger) emit(level, msg string, keysAndValues []interface{}) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", keysAndValues[len(keysAndValues)-1])
	}
	l.out.Print(b.String())
}
