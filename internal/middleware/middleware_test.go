package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecoveryReturnsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := perform(r, http.MethodGet, "/boom", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["message"] != "internal server error" {
		t.Errorf("message = %v", body["message"])
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic recovered")) {
		t.Error("panic was not logged")
	}
	if !bytes.Contains(buf.Bytes(), []byte("kaboom")) {
		t.Error("panic value missing from log")
	}
}

func TestRecoveryPassesThroughNormalRequests(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(nil))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	if w := perform(r, http.MethodGet, "/ok", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", w.Code)
	}
}

func TestRequestIDGeneratedAndExposed(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{32}$`)

	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/", nil)

	header := w.Header().Get("X-Request-ID")
	if !hexPattern.MatchString(header) {
		t.Errorf("X-Request-ID = %q; want 32 hex chars", header)
	}
	if seen != header {
		t.Errorf("context id %q != header id %q", seen, header)
	}
}

func TestRequestIDIgnoresUpstream(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", map[string]string{"X-Request-ID": "spoofed-id"})

	if got := w.Header().Get("X-Request-ID"); got == "spoofed-id" {
		t.Error("upstream request id must not be trusted")
	}
}

func TestRequestIDUniquePerRequest(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	a := perform(r, http.MethodGet, "/", nil).Header().Get("X-Request-ID")
	b := perform(r, http.MethodGet, "/", nil).Header().Get("X-Request-ID")
	if a == b {
		t.Errorf("two requests share the id %q", a)
	}
}

func TestCORSWildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://example.com"})

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q; want *", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q; want Origin", got)
	}
}

func TestCORSAllowlist(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"http://allowed.example"}

	r := gin.New()
	r.Use(CORSWithConfig(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed := perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://allowed.example"})
	if got := allowed.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.example" {
		t.Errorf("allowed origin not echoed: %q", got)
	}

	denied := perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://evil.example"})
	if got := denied.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("denied origin received CORS header %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/", map[string]string{"Origin": "http://example.com"})

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d; want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight missing Access-Control-Allow-Methods")
	}
}

func TestCORSNoOriginHeader(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", nil)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("same-origin request received CORS header %q", got)
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success logs info", http.StatusOK, "level=INFO"},
		{"client error logs warn", http.StatusBadRequest, "level=WARN"},
		{"server error logs error", http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))

			r := gin.New()
			r.Use(Logger(log))
			status := tt.status
			r.GET("/probe", func(c *gin.Context) { c.Status(status) })

			perform(r, http.MethodGet, "/probe?a=1", nil)

			out := buf.String()
			if !bytes.Contains([]byte(out), []byte(tt.wantLevel)) {
				t.Errorf("log %q missing %q", out, tt.wantLevel)
			}
			for _, want := range []string{"method=GET", "path=/probe", "query=a=1"} {
				if !bytes.Contains([]byte(out), []byte(want)) {
					t.Errorf("log %q missing %q", out, want)
				}
			}
		})
	}
}
