/*************************************************************************
* Copyright 2026 Jericho Systems, Inc. All rights reserved.
* Contact: <engineering@jerichokernel.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Package kernlog is the kernel's structured, leveled logger. It is passed
// down explicitly from boot to whichever subsystem needs it rather than
// hidden behind a package-level global, so a test can swap in its own
// buffer without touching process state.
package kernlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Level is the logger's verbosity threshold.
type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	case FATAL:
		return "FATAL"
	default:
		return "OFF"
	}
}

func ParseLevel(s string) (Level, error) {
	switch s {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "CRITICAL":
		return CRITICAL, nil
	case "FATAL":
		return FATAL, nil
	case "OFF":
		return OFF, nil
	default:
		return OFF, fmt.Errorf("invalid log level %q", s)
	}
}

// Pair is one key-value field attached to a log entry.
type Pair struct {
	Key string
	Val any
}

// KV builds a Pair. Call sites read like lg.Info("task scheduled",
// kernlog.KV("task", id)).
func KV(key string, val any) Pair { return Pair{Key: key, Val: val} }

// KVErr is shorthand for KV("error", err).
func KVErr(err error) Pair { return Pair{Key: "error", Val: err} }

// Logger writes leveled, key-value log entries to a single io.Writer.
// The zero value is not usable; construct with New.
type Logger struct {
	mu       sync.Mutex
	level    Level
	hostname string
	appname  string
	w        io.Writer
	syslog   bool
}

// New returns a Logger at the given level writing to w. If syslog is true,
// entries are formatted as RFC 5424 records; otherwise a plain
// "timestamp LEVEL message key=val ..." line is written.
func New(w io.Writer, level Level, syslog bool) *Logger {
	hn, _ := os.Hostname()
	return &Logger{
		level:    level,
		hostname: hn,
		appname:  "kerneld",
		w:        w,
		syslog:   syslog,
	}
}

// NewStderr is the common case: a plain-format logger at INFO writing to
// os.Stderr.
func NewStderr() *Logger { return New(os.Stderr, INFO, false) }

func (l *Logger) SetAppname(name string) { l.mu.Lock(); l.appname = name; l.mu.Unlock() }

func (l *Logger) log(lvl Level, msg string, fields []Pair) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl < l.level || l.level == OFF {
		return
	}

	if l.syslog {
		l.writeSyslog(lvl, msg, fields)
		return
	}
	l.writePlain(lvl, msg, fields)
}

func (l *Logger) writePlain(lvl Level, msg string, fields []Pair) {
	fmt.Fprintf(l.w, "%s %-8s %s", time.Now().UTC().Format(time.RFC3339Nano), lvl.String(), msg)
	for _, f := range fields {
		fmt.Fprintf(l.w, " %s=%v", f.Key, f.Val)
	}
	fmt.Fprintln(l.w)
}

func (l *Logger) writeSyslog(lvl Level, msg string, fields []Pair) {
	m := rfc5424.Message{
		Priority:  syslogPriority(lvl),
		Timestamp: time.Now().UTC(),
		Hostname:  l.hostname,
		AppName:   l.appname,
		Message:   []byte(msg),
	}
	if len(fields) > 0 {
		m.StructuredData = []rfc5424.StructuredData{
			{
				ID:         "fields@32473",
				Parameters: pairsToParams(fields),
			},
		}
	}
	b, err := m.MarshalBinary()
	if err != nil {
		l.writePlain(lvl, msg, fields)
		return
	}
	l.w.Write(b)
}

func pairsToParams(fields []Pair) []rfc5424.SDParam {
	out := make([]rfc5424.SDParam, 0, len(fields))
	for _, f := range fields {
		out = append(out, rfc5424.SDParam{
			Name:  f.Key,
			Value: fmt.Sprintf("%v", f.Val),
		})
	}
	return out
}

func syslogPriority(lvl Level) rfc5424.Priority {
	switch lvl {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	case CRITICAL:
		return rfc5424.User | rfc5424.Crit
	case FATAL:
		return rfc5424.User | rfc5424.Emergency
	default:
		return rfc5424.User | rfc5424.Info
	}
}

func (l *Logger) Debug(msg string, fields ...Pair)    { l.log(DEBUG, msg, fields) }
func (l *Logger) Info(msg string, fields ...Pair)     { l.log(INFO, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Pair)     { l.log(WARN, msg, fields) }
func (l *Logger) Error(msg string, fields ...Pair)    { l.log(ERROR, msg, fields) }
func (l *Logger) Critical(msg string, fields ...Pair) { l.log(CRITICAL, msg, fields) }
func (l *Logger) Fatal(msg string, fields ...Pair) {
	l.log(FATAL, msg, fields)
	os.Exit(1)
}
