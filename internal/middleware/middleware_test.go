package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/college-connect/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

type stubAuth map[string]string

func (s stubAuth) Authenticate(_ context.Context, token string) (string, error) {
	if token == "boom" {
		return "", errors.New("identity backend down")
	}
	if uid, ok := s[token]; ok {
		return uid, nil
	}
	return "", &service.Error{Kind: service.ErrUnauthorized, Msg: "Invalid token"}
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", Auth(stubAuth{"good": "u1"}), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "No token provided"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "No token provided"},
		{"invalid", "Bearer bad", http.StatusUnauthorized, "Invalid token"},
		{"backend failure", "Bearer boom", http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.body, errorBody(t, w))
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
	assert.Equal(t, 2, rl.Len())

	rl.cleanup(time.Now().Add(time.Hour))
	assert.Zero(t, rl.Len())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://app.test"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type recordedHTTP struct {
	route  string
	status int
}

type observerFunc func(route, method string, status int, d time.Duration)

func (f observerFunc) ObserveHTTP(route, method string, status int, d time.Duration) {
	f(route, method, status, d)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	var got []recordedHTTP
	r := gin.New()
	r.Use(Metrics(observerFunc(func(route, _ string, status int, _ time.Duration) {
		got = append(got, recordedHTTP{route, status})
	})))
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/abc", nil))
	require.Len(t, got, 1)
	assert.Equal(t, recordedHTTP{"/posts/:id", 200}, got[0])
}

func TestCollegeEmail(t *testing.T) {
	require.NoError(t, RegisterValidators([]string{".edu", "@test.com"}))

	type form struct {
		Email string `json:"email" binding:"required,college_email"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var f form
		if err := c.ShouldBindJSON(&f); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	for email, code := range map[string]int{
		"a@uni.edu":   http.StatusOK,
		"b@TEST.com":  http.StatusOK,
		"c@gmail.com": http.StatusBadRequest,
		"edu":         http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, email)
	}
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }
