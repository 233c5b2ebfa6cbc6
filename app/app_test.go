package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunEmbedded(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, scenarioBody)
	}))
	defer up.Close()

	var conf Config
	conf.LogOutput = &bytes.Buffer{}
	conf.Flag.Args = []string{
		"-a", "127.0.0.1:0",
		"-c", filepath.Join(t.TempDir(), "none.yaml"),
		"-l", "silent",
		"--embedded-kv", "127.0.0.1:0",
		"--codec", "snappy",
		"--upstream", up.URL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addrC := make(chan string, 1)
	errC := make(chan error, 1)
	go func() {
		errC <- Run(ctx, conf, func(addr string) { addrC <- addr })
	}()

	var base string
	select {
	case addr := <-addrC:
		base = "http://" + addr
	case err := <-errC:
		t.Fatalf("run: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	call := func(method, path string) (int, string) {
		req, err := http.NewRequest(method, base+path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := call(http.MethodGet, "/genes")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, msgNoData, body)

	code, _ = call(http.MethodPost, "/data")
	require.Equal(t, http.StatusOK, code)

	code, body = call(http.MethodGet, "/genes")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `["HGNC:1","HGNC:2"]`, body)

	code, _ = call(http.MethodPost, "/image")
	require.Equal(t, http.StatusOK, code)
	code, body = call(http.MethodGet, "/image")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "\x89PNG", body[:4])

	code, _ = call(http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, code)

	code, body = call(http.MethodDelete, "/data")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Data deleted, there are 0 keys in the db\n", body)

	cancel()
	select {
	case err := <-errC:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
