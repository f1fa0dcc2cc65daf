package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/apiscaffold/internal/config"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServeCmd_Run(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	dbPath := filepath.Join(dir, "data", "app.db")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"APP_VERSION=1.2.3\nDATABASE_TYPE=sql\nDATABASE_URL=sqlite://"+dbPath+"\n"), 0o600))
	for _, key := range []string{config.EnvAppVersion, config.EnvDatabaseType, config.EnvDatabaseURL, config.EnvAppPort} {
		t.Setenv(key, "")
	}

	addr := freeAddr(t)
	out := &bytes.Buffer{}
	cmd := &ServeCmd{EnvFile: envFile, Listen: addr, WaitTimeout: 5 * time.Second, out: out}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cmd.Run(ctx, &Globals{Version: "dev"})
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get(fmt.Sprintf("http://%s/health", addr))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sql", body["database"])
	assert.Equal(t, "sqlite", body["backend"])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	assert.Contains(t, out.String(), "apiscaffold 1.2.3")
	assert.Contains(t, out.String(), "listening on http://"+addr)
}

func TestServeCmd_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_TYPE=cassandra\n"), 0o600))
	t.Setenv(config.EnvDatabaseType, "")

	err := (&ServeCmd{EnvFile: envFile}).Run(context.Background(), &Globals{})
	require.ErrorIs(t, err, config.ErrInvalidSettings)
}

func TestServe_ReturnsServeError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	srv := configureHTTPServer(ln.Addr().String(), http.NotFoundHandler())
	err = serve(context.Background(), srv, ln, zerolog.Nop())
	require.Error(t, err)
}

type teapot struct{}

func (teapot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestInstrument(t *testing.T) {
	require.Equal(t, http.Handler(teapot{}), instrument(teapot{}, false))

	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	h := instrument(teapot{}, true)
	require.NotEqual(t, http.Handler(teapot{}), h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	require.Len(t, recorder.Ended(), 1)
}
