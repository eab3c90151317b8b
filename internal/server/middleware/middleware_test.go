package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/internal/contexts"
	"github.com/strandhq/strand/internal/tracing"
)

func TestWithLoggingTracing_HeaderPreserved(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(WithLoggingTracing(tracing.Config{}))

	var capturedTraceID string

	router.GET("/test", func(c *gin.Context) {
		traceID, ok := tracing.GetTraceID(c.Request.Context())
		require.True(t, ok)

		capturedTraceID = traceID

		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("ST-Trace-Id", "st-existing-trace")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "st-existing-trace", capturedTraceID)
}

func TestWithLoggingTracing_GeneratesTraceAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(WithLoggingTracing(tracing.Config{}))

	var (
		capturedTraceID   string
		capturedRequestID string
		capturedOperation string
	)

	router.GET("/accounts/:id", func(c *gin.Context) {
		ctx := c.Request.Context()

		capturedTraceID, _ = tracing.GetTraceID(ctx)
		capturedRequestID, _ = tracing.GetRequestID(ctx)
		capturedOperation, _ = tracing.GetOperationName(ctx)

		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(capturedTraceID, "st-"))
	require.True(t, strings.HasPrefix(capturedRequestID, "req-"))
	require.Equal(t, "GET /accounts/:id", capturedOperation)

	// The request ID is echoed back so callers can correlate logs.
	require.Equal(t, capturedRequestID, w.Header().Get("ST-Request-Id"))
}

func TestWithLoggingTracing_CustomHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := tracing.Config{
		TraceHeader:   "X-Trace-Id",
		RequestHeader: "X-Request-Id",
	}

	router := gin.New()
	router.Use(WithLoggingTracing(config))

	var capturedTraceID string

	router.GET("/test", func(c *gin.Context) {
		capturedTraceID, _ = tracing.GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Trace-Id", "custom-trace")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, "custom-trace", capturedTraceID)
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestWithCarrier_FreshPerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(WithCarrier())

	router.GET("/test", func(c *gin.Context) {
		_, ok := contexts.GetAccount(c.Request.Context())
		require.False(t, ok)

		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Recovery())

	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":{"type":"Internal Server Error","message":"internal server error"}}`, w.Body.String())
}

func TestExtractBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name    string
		header  string
		token   string
		wantErr bool
	}{
		{name: "valid bearer", header: "Bearer tok-123", token: "tok-123"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic tok-123", wantErr: true},
		{name: "empty token", header: "Bearer ", wantErr: true},
	}

	for _, tc := range testCases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}

		token, err := extractBearerToken(c)
		if tc.wantErr {
			require.Error(t, err, tc.name)
		} else {
			require.NoError(t, err, tc.name)
			require.Equal(t, tc.token, token, tc.name)
		}
	}
}
