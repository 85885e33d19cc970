package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func ipServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchIP(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("first provider wins", func(t *testing.T) {
		srv := ipServer(t, "203.0.113.7\n", http.StatusOK)

		f := NewFetcher([]string{srv.URL}, logger)
		ip, err := f.FetchIP(ctx)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.7", ip)
	})

	t.Run("fails over to next provider", func(t *testing.T) {
		bad := ipServer(t, "oops", http.StatusInternalServerError)
		good := ipServer(t, "198.51.100.23", http.StatusOK)

		f := NewFetcher([]string{bad.URL, good.URL}, logger)
		ip, err := f.FetchIP(ctx)
		require.NoError(t, err)
		assert.Equal(t, "198.51.100.23", ip)
	})

	t.Run("rejects non-IP body", func(t *testing.T) {
		srv := ipServer(t, "<html>blocked</html>", http.StatusOK)

		f := NewFetcher([]string{srv.URL}, logger)
		_, err := f.FetchIP(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid IP address")
	})

	t.Run("all providers fail", func(t *testing.T) {
		first := ipServer(t, "", http.StatusServiceUnavailable)
		second := ipServer(t, "not an ip", http.StatusOK)

		f := NewFetcher([]string{first.URL, second.URL}, logger)
		_, err := f.FetchIP(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all providers failed")
	})

	t.Run("accepts IPv6", func(t *testing.T) {
		srv := ipServer(t, "2001:db8::1", http.StatusOK)

		f := NewFetcher([]string{srv.URL}, logger)
		ip, err := f.FetchIP(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2001:db8::1", ip)
	})

	t.Run("canceled context", func(t *testing.T) {
		srv := ipServer(t, "203.0.113.7", http.StatusOK)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		f := NewFetcher([]string{srv.URL}, logger)
		_, err := f.FetchIP(canceled)
		require.Error(t, err)
	})
}
