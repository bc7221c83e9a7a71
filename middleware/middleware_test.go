package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"guessr/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth map[string]uint

func (f fakeAuth) Authenticate(_ context.Context, token string) (uint, error) {
	if token == "down" {
		return 0, errors.New("dial tcp 127.0.0.1:6379: connection refused")
	}
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: bad token", services.ErrUnauthenticated)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	ok := func(c *gin.Context) {
		id, _ := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	}
	r.GET("/thing", ok)
	r.POST("/thing", ok)
	return r
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFIssuesCookie(t *testing.T) {
	r := newRouter(CSRF(false))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))

	c := cookieNamed(rec, CSRFCookie)
	if c == nil || c.Value == "" {
		t.Fatal("expected csrftoken cookie")
	}
	if c.HttpOnly {
		t.Fatal("expected csrftoken cookie readable by scripts")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "existing"})
	r.ServeHTTP(rec, req)
	if cookieNamed(rec, CSRFCookie) != nil {
		t.Fatal("expected existing token to be kept")
	}
}

func TestCSRFChecksSessionRequests(t *testing.T) {
	r := newRouter(CSRF(false))

	tests := []struct {
		name    string
		cookie  string
		header  string
		session bool
		want    int
	}{
		{"no session", "", "", false, http.StatusOK},
		{"matching header", "tok", "tok", true, http.StatusOK},
		{"missing header", "tok", "", true, http.StatusForbidden},
		{"wrong header", "tok", "other", true, http.StatusForbidden},
		{"missing cookie", "", "tok", true, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/thing", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: tt.cookie})
			}
			if tt.session {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s"})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusForbidden && !strings.Contains(rec.Body.String(), csrfFailed) {
				t.Fatalf("expected CSRF detail, got %s", rec.Body.String())
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(fakeAuth{"good": 7}))

	tests := []struct {
		name  string
		setup func(*http.Request)
		want  int
		body  string
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized, "Authentication credentials were not provided."},
		{"bad cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "bad"}) }, http.StatusUnauthorized, "Invalid or expired session."},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"}) }, http.StatusOK, `"user_id":7`},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK, `"user_id":7`},
		{"revocation store down", func(r *http.Request) { r.Header.Set("Authorization", "Bearer down") }, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/thing", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("expected body containing %q, got %s", tt.body, rec.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodOptions, "/thing", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", CSRFHeader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to pass through, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for unknown origin, got %q", got)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(RequestLogger(zerolog.New(&buf)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))
	id := rec.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("expected a request id header")
	}
	out := buf.String()
	if !strings.Contains(out, id) || !strings.Contains(out, `"status":200`) {
		t.Fatalf("expected log line with id and status, got %s", out)
	}

	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set(RequestIDHeader, "given")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "given" {
		t.Fatalf("expected request id to be kept, got %q", got)
	}
}
