// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"fmt"
	"io"
	"os"
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only failures and the final state of a solve
	LogLast LogLevel = 0
	// LogEval print also one line for every solve
	LogEval LogLevel = 1
	// LogTrace print details of every iteration
	LogTrace LogLevel = 99
)

// Logger handles diagnostic output for solvers and accessors.
// Note the writers must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
	Out   io.Writer // Writer for output data.
}

// Resolve returns a copy of logger with defaults applied.
// A nil logger produces no output.
func Resolve(logger *Logger) Logger {
	if logger == nil {
		return Logger{Level: LogNoop, Msg: io.Discard, Out: io.Discard}
	}
	l := *logger
	if l.Msg == nil {
		l.Msg = os.Stdout
	}
	if l.Out == nil {
		l.Out = os.Stderr
	}
	return l
}

// Enable reports whether messages at the given level are emitted.
func (l *Logger) Enable(level LogLevel) bool {
	return l.Level >= level
}

// Log writes a formatted diagnostic message.
func (l *Logger) Log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Print writes formatted output data.
func (l *Logger) Print(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Out, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Out, format)
	}
}
