package app

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moontrade/hgncd/codec"
	"github.com/moontrade/hgncd/ingest"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadFileConfig(t *testing.T) {
	debug, err := readFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, debug)

	debug, err = readFileConfig(writeFile(t, "debug: false\n"))
	require.NoError(t, err)
	assert.False(t, debug)

	debug, err = readFileConfig(writeFile(t, "debug: true\n"))
	require.NoError(t, err)
	assert.True(t, debug)

	debug, err = readFileConfig(writeFile(t, "other: 1\n"))
	require.NoError(t, err)
	assert.True(t, debug)

	debug, err = readFileConfig(writeFile(t, "debug: [unterminated\n"))
	require.Error(t, err)
	assert.True(t, debug)
}

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestRedisAddrFromEnv(t *testing.T) {
	_, err := redisAddrFromEnv(env(nil))
	require.ErrorIs(t, err, ErrNoRedisAddr)

	addr, err := redisAddrFromEnv(env(map[string]string{"REDIS_IP": "10.0.0.7"}))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7:6379", addr)

	addr, err = redisAddrFromEnv(env(map[string]string{"REDIS_IP": "redis", "REDIS_PORT": "6380"}))
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", addr)

	addr, err = redisAddrFromEnv(env(map[string]string{"REDIS_IP": "::1"}))
	require.NoError(t, err)
	assert.Equal(t, "[::1]:6379", addr)

	_, err = redisAddrFromEnv(env(map[string]string{"REDIS_IP": "redis", "REDIS_PORT": "http"}))
	require.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	var conf Config
	conf.def()
	var out bytes.Buffer
	err := parseFlags(&conf, []string{
		"-a", "127.0.0.1:8080",
		"-c", "/etc/hgncd.yaml",
		"-l", "warn",
		"--log-json",
		"--codec", "zstd",
		"--upstream", "http://localhost/set.json",
		"--upstream-timeout", "5s",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", conf.Addr)
	assert.Equal(t, "/etc/hgncd.yaml", conf.ConfigPath)
	assert.Equal(t, "warn", conf.LogLevel)
	assert.True(t, conf.LogJSON)
	assert.Equal(t, codec.ZSTD, conf.Codec)
	assert.Equal(t, "http://localhost/set.json", conf.UpstreamURL)
	assert.Equal(t, 5*time.Second, conf.UpstreamTimeout)
	assert.Empty(t, out.String())
}

func TestParseFlagsDefaults(t *testing.T) {
	var conf Config
	conf.def()
	require.NoError(t, parseFlags(&conf, nil, &bytes.Buffer{}))
	assert.Equal(t, "0.0.0.0:5000", conf.Addr)
	assert.Equal(t, DefaultConfigPath, conf.ConfigPath)
	assert.Equal(t, codec.None, conf.Codec)
	assert.Equal(t, ingest.DefaultURL, conf.UpstreamURL)
	assert.Equal(t, ingest.DefaultTimeout, conf.UpstreamTimeout)
}

func TestParseFlagsErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"codec":   {"--codec", "gzip"},
		"timeout": {"--upstream-timeout", "0s"},
		"arg":     {"extra"},
		"unknown": {"--nope"},
	} {
		t.Run(name, func(t *testing.T) {
			var conf Config
			conf.def()
			require.Error(t, parseFlags(&conf, args, &bytes.Buffer{}))
		})
	}
}

func TestParseFlagsHelpVersion(t *testing.T) {
	conf := Config{Version: "1.2.3", GitSHA: "abc123"}
	conf.def()

	var out bytes.Buffer
	require.ErrorIs(t, parseFlags(&conf, []string{"-h"}, &out), flag.ErrHelp)
	assert.Contains(t, out.String(), "hgncd version: 1.2.3 (abc123)")
	assert.Contains(t, out.String(), "--embedded-kv")

	out.Reset()
	require.ErrorIs(t, parseFlags(&conf, []string{"-v"}, &out), errVersion)
	assert.Equal(t, "hgncd version 1.2.3 (abc123)\n", out.String())
}

func TestConfInit(t *testing.T) {
	conf := Config{}
	conf.Flag.Args = []string{"-c", writeFile(t, "debug: false\n")}
	require.NoError(t, confInit(&conf, env(map[string]string{"REDIS_IP": "kv", "REDIS_PORT": "7000"})))
	assert.False(t, conf.Debug)
	assert.Equal(t, "kv:7000", conf.RedisAddr)

	conf = Config{}
	conf.Flag.Args = []string{"-c", filepath.Join(t.TempDir(), "none.yaml")}
	require.ErrorIs(t, confInit(&conf, env(nil)), ErrNoRedisAddr)

	conf = Config{}
	conf.Flag.Args = []string{"-c", filepath.Join(t.TempDir(), "none.yaml"), "--embedded-kv", "127.0.0.1:0"}
	require.NoError(t, confInit(&conf, env(nil)))
	assert.True(t, conf.Debug)
	assert.Empty(t, conf.RedisAddr)
}
