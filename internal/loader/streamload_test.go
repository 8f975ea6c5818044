package loader_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/frame"
	"tenantetl/internal/loader"
)

func chunkFrame() *frame.Frame {
	f := frame.New([]string{"id", "name"})
	_ = f.AppendRow([]any{int64(1), "alice"})
	return f
}

func cfgFor(t *testing.T, srv *httptest.Server) loader.StreamLoadConfig {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return loader.StreamLoadConfig{
		FEHost:     u.Hostname(),
		FEHTTPPort: port,
		Database:   "t_demo",
		Table:      "orders",
		User:       "demo",
		Password:   "pw",
	}
}

func TestSubmitReturnsSuccessOnFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NotEmpty(t, r.Header.Get("label"))
		_ = json.NewEncoder(w).Encode(loader.LoadResult{Status: "Success", NumberLoadedRows: 1})
	}))
	defer srv.Close()

	c := loader.NewStreamLoadClient(5 * time.Second)
	result, err := c.Submit(t.Context(), cfgFor(t, srv), chunkFrame(), "t-demo", 0, "2026-08-03", 3)
	require.NoError(t, err)
	require.True(t, result.Success())
	require.EqualValues(t, 1, result.NumberLoadedRows)
}

func TestSubmitRetriesOn500ThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(loader.LoadResult{Status: "Success", NumberLoadedRows: 1})
	}))
	defer srv.Close()

	c := loader.NewStreamLoadClient(5 * time.Second)
	c.SetSleepForTest(func(time.Duration) {})
	result, err := c.Submit(t.Context(), cfgFor(t, srv), chunkFrame(), "t-demo", 0, "2026-08-03", 5)
	require.NoError(t, err)
	require.True(t, result.Success())
	require.Equal(t, 3, attempts)
}

func TestSubmitTreatsLabelAlreadyExistsAsIdempotentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loader.LoadResult{Status: "Fail", Message: "Label Already Exists"})
	}))
	defer srv.Close()

	c := loader.NewStreamLoadClient(5 * time.Second)
	_, err := c.Submit(t.Context(), cfgFor(t, srv), chunkFrame(), "t-demo", 0, "2026-08-03", 1)
	require.NoError(t, err)
}

func TestSubmitTreatsLabelAlreadyExistsStatusAsIdempotentSuccessEvenWithUnrelatedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loader.LoadResult{Status: "Label Already Exists", Message: "duplicate request rejected"})
	}))
	defer srv.Close()

	c := loader.NewStreamLoadClient(5 * time.Second)
	_, err := c.Submit(t.Context(), cfgFor(t, srv), chunkFrame(), "t-demo", 0, "2026-08-03", 1)
	require.NoError(t, err)
}

func TestSubmitExhaustsRetriesAndReturnsClassifiedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer srv.Close()

	c := loader.NewStreamLoadClient(5 * time.Second)
	c.SetSleepForTest(func(time.Duration) {})
	_, err := c.Submit(t.Context(), cfgFor(t, srv), chunkFrame(), "t-demo", 0, "2026-08-03", 2)
	require.Error(t, err)
}
