package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/api/handler"
	"github.com/d60-Lab/college-connect/internal/identity"
	"github.com/d60-Lab/college-connect/internal/metrics"
	"github.com/d60-Lab/college-connect/internal/middleware"
	"github.com/d60-Lab/college-connect/internal/repository"
	"github.com/d60-Lab/college-connect/internal/service"
	"github.com/d60-Lab/college-connect/internal/storage"
)

type server struct {
	t     *testing.T
	r     http.Handler
	svc   *service.Services
	clock *testclock.Clock
}

func newServer(t *testing.T) *server {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Server:       config.ServerConfig{Mode: "test", CORSOrigins: []string{"*"}},
		JWT:          config.JWTConfig{Secret: "secret", Expire: time.Hour},
		Blob:         config.BlobConfig{MaxUploadBytes: 1 << 20},
		Verification: config.VerificationConfig{ReviewDelay: 3 * time.Second, SweepInterval: time.Second},
		Messaging:    config.MessagingConfig{PollInterval: 3 * time.Second, NotifyOnMessage: true},
		Signup:       config.SignupConfig{AllowedEmailSuffixes: []string{".edu", "@test.com"}},
	}
	require.NoError(t, middleware.RegisterValidators(cfg.Signup.AllowedEmailSuffixes))

	clk := testclock.NewClock(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	repos := repository.NewRepositories(repository.NewRedisStore(client, "http"))
	blobs := storage.NewService(storage.NewLocalBackend(t.TempDir()), storage.Options{
		PublicBaseURL:  "http://api.test",
		MaxUploadBytes: cfg.Blob.MaxUploadBytes,
		Now:            clk.Now,
	})
	require.NoError(t, blobs.EnsureBuckets(context.Background()))

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	gw := identity.NewGateway(repos.Accounts, identity.Options{
		Secret: []byte(cfg.JWT.Secret), TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost, Clock: clk,
	})
	svc := service.NewServices(cfg, service.Deps{Repos: repos, Gateway: gw, Uploader: blobs, Metrics: collector, Clock: clk})
	h := handler.NewHandler(svc, blobs, handler.Options{Version: "test", AllowedEmailSuffixes: cfg.Signup.AllowedEmailSuffixes, Now: clk.Now})

	r := Setup(cfg, Deps{Handler: h, Auth: svc.Auth, Metrics: collector, Gatherer: reg})
	return &server{t: t, r: r, svc: svc, clock: clk}
}

func (s *server) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return s.send(req, token)
}

func (s *server) multipart(path, token string, fields map[string]string, fileField, fileName, content string) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(s.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.send(req, token)
}

func (s *server) send(req *http.Request, token string) (int, map[string]any) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// signUp 返回 token 与内部用户 ID
func (s *server) signUp(email, name string) (string, string) {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": "secret1", "fullName": name})
	require.Equal(s.t, http.StatusOK, code, body)
	code, body = s.do(http.MethodPost, "/auth/signin", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(s.t, http.StatusOK, code, body)
	user := body["user"].(map[string]any)
	return body["accessToken"].(string), user["id"].(string)
}

func (s *server) verify(token, college string) {
	s.t.Helper()
	code, body := s.multipart("/verification/submit", token, map[string]string{
		"fullName": "Student", "dob": "2004-01-01", "collegeName": college, "collegePlace": "Town",
	}, "idCard", "card.jpg", "card-bytes")
	require.Equal(s.t, http.StatusOK, code, body)
	s.clock.Advance(3 * time.Second)
	_, err := s.svc.Verification.Sweep(context.Background())
	require.NoError(s.t, err)
}

func TestHealthAndUnauthenticated(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = s.do(http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No token provided", body["error"])

	code, _ = s.do(http.MethodGet, "/posts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSignupValidation(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": "a@gmail.com", "password": "secret1", "fullName": "A"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please use a valid college email address", body["error"])

	code, _ = s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": "a@uni.edu"})
	assert.Equal(t, http.StatusBadRequest, code)

	s.signUp("a@uni.edu", "A")
	code, _ = s.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": "a@uni.edu", "password": "secret1", "fullName": "A"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/auth/signin", "", map[string]string{"email": "a@uni.edu", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestVerificationGatesPosting(t *testing.T) {
	s := newServer(t)
	token, _ := s.signUp("jane@uni.edu", "Jane")

	code, body := s.multipart("/posts", token, map[string]string{"content": "hello"}, "", "", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Only verified users can post", body["error"])

	code, body = s.do(http.MethodGet, "/verification/status", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["verification"])

	code, _ = s.multipart("/verification/submit", token, map[string]string{"fullName": "Jane"}, "", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	s.verify(token, "College X")

	code, body = s.do(http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	profile := body["profile"].(map[string]any)
	assert.Equal(t, true, profile["verified"])
	assert.Equal(t, "approved", profile["verificationStatus"])

	code, body = s.multipart("/posts", token, map[string]string{"content": "hello", "isCollegeCommunityOnly": "true"}, "image", "p.png", "png")
	require.Equal(t, http.StatusOK, code, body)
	post := body["post"].(map[string]any)
	assert.Equal(t, true, post["isCollegeCommunityOnly"])

	image := post["image"].(string)
	require.True(t, strings.HasPrefix(image, "http://api.test/media/post-images/"))
	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(image, "http://api.test"), nil)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	code, _ = s.do(http.MethodGet, "/media/college-ids/anything", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLikeCommentNotify(t *testing.T) {
	s := newServer(t)
	author, _ := s.signUp("author@uni.edu", "Author")
	fan, _ := s.signUp("fan@uni.edu", "Fan")
	s.verify(author, "College X")

	_, body := s.multipart("/posts", author, map[string]string{"content": "post"}, "", "", "")
	postID := body["post"].(map[string]any)["id"].(string)

	code, body := s.do(http.MethodPost, "/posts/"+postID+"/like", fan, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["post"].(map[string]any)["likes"])

	code, _ = s.do(http.MethodPost, "/posts/missing/like", fan, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/posts/"+postID+"/comment", fan, map[string]string{"content": "nice"})
	require.Equal(t, http.StatusOK, code)
	code, body = s.do(http.MethodGet, "/posts/"+postID+"/comments", fan, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["comments"], 1)

	// 认证通过、点赞、评论各一条
	code, body = s.do(http.MethodGet, "/notifications/unread-count", author, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["count"])

	_, body = s.do(http.MethodGet, "/notifications", author, nil)
	notes := body["notifications"].([]any)
	require.Len(t, notes, 3)
	id := notes[0].(map[string]any)["id"].(string)
	for i := 0; i < 2; i++ {
		code, body = s.do(http.MethodPost, "/notifications/"+id+"/read", author, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["notification"].(map[string]any)["read"])
	}
	code, _ = s.do(http.MethodPost, "/notifications/"+id+"/read", fan, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(http.MethodPost, "/notifications/read-all", author, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["updated"])
}

func TestMessagingFlow(t *testing.T) {
	s := newServer(t)
	alice, aliceID := s.signUp("alice@uni.edu", "Alice")
	bob, bobID := s.signUp("bob@uni.edu", "Bob")
	eve, _ := s.signUp("eve@uni.edu", "Eve")

	code, body := s.do(http.MethodPost, "/messages/start", alice, map[string]string{"recipientId": bobID})
	require.Equal(t, http.StatusOK, code, body)
	convID := body["conversationId"].(string)

	code, _ = s.do(http.MethodPost, "/messages/"+convID, alice, map[string]string{"content": "hi", "recipientId": bobID})
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/messages/"+convID, bob, nil)
	require.Equal(t, http.StatusOK, code)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	m := msgs[0].(map[string]any)
	assert.Equal(t, "hi", m["content"])
	assert.Equal(t, aliceID, m["senderId"])
	assert.EqualValues(t, 3000, body["pollIntervalMs"])

	code, _ = s.do(http.MethodGet, "/messages/"+convID, eve, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(http.MethodGet, "/messages/conversations", bob, nil)
	require.Equal(t, http.StatusOK, code)
	conv := body["conversations"].([]any)[0].(map[string]any)
	assert.Equal(t, true, conv["unread"])
	assert.Equal(t, "hi", conv["lastMessage"])

	code, body = s.do(http.MethodPost, "/messages/"+convID+"/read", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["conversation"].(map[string]any)["unread"])

	since := s.clock.Now().Format(time.RFC3339Nano)
	s.clock.Advance(time.Second)
	code, _ = s.do(http.MethodPost, "/messages/"+convID, bob, map[string]string{"content": "yo", "recipientId": aliceID})
	require.Equal(t, http.StatusOK, code)
	_, body = s.do(http.MethodGet, fmt.Sprintf("/messages/%s?since=%s", convID, since), alice, nil)
	assert.Len(t, body["messages"], 1)

	code, _ = s.do(http.MethodGet, "/messages/"+convID+"?since=yesterday", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUsersSearchAndLookup(t *testing.T) {
	s := newServer(t)
	me, _ := s.signUp("me@uni.edu", "John Me")
	_, otherID := s.signUp("j@uni.edu", "Johnny Other")

	code, body := s.do(http.MethodGet, "/users/search?q=john", me, nil)
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	u := users[0].(map[string]any)
	assert.Equal(t, otherID, u["id"])
	assert.NotContains(t, u, "email")

	code, _ = s.do(http.MethodGet, "/users/search?q=", me, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(http.MethodGet, "/users/"+u["userId"].(string), me, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Johnny Other", body["profile"].(map[string]any)["fullName"])

	code, body = s.do(http.MethodGet, "/users/"+otherID+"/posts", me, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["posts"])

	code, _ = s.do(http.MethodGet, "/users/nobody", me, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.do(http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `college_connect_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
