package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetJsonWriter(&buf)
	SetLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		SetConsoleWriter()
		SetLevel(zerolog.InfoLevel)
	})
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	return m
}

func TestInfoFieldsAndMessage(t *testing.T) {
	buf := capture(t)
	Info("loaded", 3, "path", "/data", "ingest finished")

	m := decode(t, buf)
	require.Equal(t, "INFO", m["severity"])
	require.Equal(t, "ingest finished", m["message"])
	require.Equal(t, float64(3), m["loaded"])
	require.Equal(t, "/data", m["path"])
	require.Contains(t, m, "caller")
}

func TestErrorLeadingErr(t *testing.T) {
	buf := capture(t)
	Error(errors.New("boom"), "kv unavailable")

	m := decode(t, buf)
	require.Equal(t, "ERROR", m["severity"])
	require.Equal(t, "boom", m["error"])
	require.Equal(t, "kv unavailable", m["message"])
}

func TestFormatMessage(t *testing.T) {
	buf := capture(t)
	Warn("starting %s on %d", "hgncd", 5000)

	m := decode(t, buf)
	require.Equal(t, "WARN", m["severity"])
	require.Equal(t, "starting hgncd on 5000", m["message"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"debug":  zerolog.DebugLevel,
		"verb":   zerolog.TraceLevel,
		"notice": zerolog.InfoLevel,
		"WARN":   zerolog.WarnLevel,
		"silent": zerolog.Disabled,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestHCLogWriter(t *testing.T) {
	buf := capture(t)
	line := "2026-10-18T10:00:00.000Z [ERROR] http: accept failed: addr=127.0.0.1:5000 reason=\"too many files\"\n"
	n, err := HCLogWriter.Write([]byte(line))
	require.NoError(t, err)
	require.Equal(t, len(line), n)

	m := decode(t, buf)
	require.Equal(t, "ERROR", m["severity"])
	require.Equal(t, "http: accept failed", m["message"])
	require.Equal(t, "127.0.0.1:5000", m["addr"])
	require.Equal(t, "too many files", m["reason"])
}

func TestHCLogWriterPlain(t *testing.T) {
	buf := capture(t)
	_, err := HCLogWriter.Write([]byte("2026-10-18T10:00:00.000Z [WARN]  100% of pool in use\n"))
	require.NoError(t, err)

	m := decode(t, buf)
	require.Equal(t, "WARN", m["severity"])
	require.Equal(t, "100% of pool in use", m["message"])
}
