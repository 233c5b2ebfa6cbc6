package logger

import (
	"strings"

	"github.com/rs/zerolog"
)

type hclogWriter struct{}

// HCLogWriter re-levels lines written by an hclog.Logger into the package
// logger. Lines look like "<time> [LEVEL] name: message: k=v k2=\"v 2\"".
var HCLogWriter = hclogWriter{}

// Write writes to the log
func (hclogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	idx := strings.IndexByte(msg, ' ')
	if idx != -1 && !strings.HasPrefix(msg, "[") {
		msg = msg[idx+1:]
	}
	level := zerolog.DebugLevel
	idx = strings.IndexByte(msg, ']')
	if idx != -1 && len(msg) > 1 && msg[0] == '[' {
		switch msg[1] {
		case 'W':
			level = zerolog.WarnLevel
		case 'E':
			level = zerolog.ErrorLevel
		case 'D':
			level = zerolog.DebugLevel
		case 'T':
			level = zerolog.TraceLevel
		case 'I':
			level = zerolog.InfoLevel
		}
		msg = strings.TrimLeft(msg[idx+1:], " ")
	}

	args := parseFields(msg)
	doLog(4, log.WithLevel(level), args)
	return len(p), nil
}

// parseFields splits "message: k=v k2=\"v 2\"" into key/value args followed
// by the message, which is the shape doLog expects.
func parseFields(msg string) []interface{} {
	idx := strings.LastIndex(msg, ": ")
	if idx == -1 || !strings.Contains(msg[idx+2:], "=") {
		return []interface{}{escapeVerbs(msg)}
	}
	fields := strings.TrimSpace(msg[idx+2:])
	msg = strings.TrimSpace(msg[:idx])

	var args []interface{}
	for len(fields) > 0 && len(args) < 14 {
		eq := strings.IndexByte(fields, '=')
		if eq == -1 {
			args = append(args, fields, "")
			break
		}
		name := strings.TrimSpace(fields[:eq])
		fields = strings.TrimSpace(fields[eq+1:])
		var value string
		if strings.HasPrefix(fields, "\"") {
			fields = fields[1:]
			end := strings.IndexByte(fields, '"')
			if end == -1 {
				value, fields = fields, ""
			} else {
				value, fields = fields[:end], strings.TrimSpace(fields[end+1:])
			}
		} else {
			end := strings.IndexByte(fields, ' ')
			if end == -1 {
				value, fields = fields, ""
			} else {
				value, fields = fields[:end], strings.TrimSpace(fields[end+1:])
			}
		}
		args = append(args, name, value)
	}
	return append(args, escapeVerbs(msg))
}

func escapeVerbs(msg string) string {
	return strings.ReplaceAll(msg, "%", "%%")
}
