package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chartly/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debug(msg string, args ...any)                   {}
func (l *nopLogger) Info(msg string, args ...any)                    {}
func (l *nopLogger) Warn(msg string, args ...any)                    {}
func (l *nopLogger) Error(msg string, args ...any)                   {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}

func TestUpstreamAnalyzer_Analyze(t *testing.T) {
	t.Run("forwards the request and decodes the result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/analyze", r.URL.Path)
			assert.Equal(t, "user_1", r.Header.Get("X-User-ID"))

			var req Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "BTCUSD", req.Symbol)

			json.NewEncoder(w).Encode(Result{Symbol: req.Symbol, Verdict: "bullish", Score: 72})
		}))
		defer srv.Close()

		analyzer := NewUpstreamAnalyzer(srv.URL, newNopLogger())
		result, err := analyzer.Analyze(context.Background(), "user_1", Request{Symbol: "BTCUSD", Timeframe: "4h"})
		require.NoError(t, err)
		assert.Equal(t, "bullish", result.Verdict)
		assert.Equal(t, 72, result.Score)
	})

	t.Run("upstream error status surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "engine overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		analyzer := NewUpstreamAnalyzer(srv.URL, newNopLogger())
		_, err := analyzer.Analyze(context.Background(), "user_1", Request{Symbol: "BTCUSD", Timeframe: "4h"})
		assert.Error(t, err)
	})

	t.Run("unreachable upstream surfaces", func(t *testing.T) {
		analyzer := NewUpstreamAnalyzer("http://127.0.0.1:1", newNopLogger())
		_, err := analyzer.Analyze(context.Background(), "user_1", Request{Symbol: "BTCUSD", Timeframe: "4h"})
		assert.Error(t, err)
	})
}
