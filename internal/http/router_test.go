package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campus-connect/internal/domain"
	"campus-connect/internal/email"
	"campus-connect/internal/repository"
	"campus-connect/internal/service"
)

type captureSender struct {
	mu   sync.Mutex
	sent []email.OTPMessage
}

func (c *captureSender) SendOTP(_ context.Context, msg email.OTPMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatalf("expected an email to be sent")
	}
	return c.sent[len(c.sent)-1].Code
}

type testServer struct {
	router *gin.Engine
	users  *repository.MemoryUserRepository
	sender *captureSender
	dir    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	ts := &testServer{
		users:  repository.NewMemoryUserRepository(),
		sender: &captureSender{},
		dir:    t.TempDir(),
	}
	posts := repository.NewMemoryPostRepository()
	events := repository.NewMemoryEventRepository()
	groups := repository.NewMemoryGroupRepository()

	auth := service.NewAuthService(logger, ts.users,
		repository.NewMemoryCodeRepository(), repository.NewMemorySessionRepository(),
		ts.sender, service.NewOTPRateLimiter(10*time.Minute, 100),
		service.NewJWTService("test-secret", time.Hour, service.NewMemoryAccessTokenStore()),
		service.AuthConfig{AllowedDomains: []string{"campus.edu"}})

	profileSvc := service.NewProfileService(logger, ts.users, posts, events, groups, service.ProfileConfig{
		UploadDir:     ts.dir,
		UploadURLPath: "/uploads/profile_pictures",
	})
	postSvc := service.NewPostService(logger, posts, ts.users)
	eventSvc := service.NewEventService(logger, events)
	groupSvc := service.NewGroupService(logger, groups)

	ts.router = NewRouter(logger, RouterConfig{
		UploadDir:     ts.dir,
		UploadURLPath: "/uploads/profile_pictures",
	}, auth, Handlers{
		Auth:   NewAuthHandler(logger, auth, profileSvc),
		Events: NewEventHandler(logger, eventSvc),
		Groups: NewGroupHandler(logger, groupSvc),
		Posts:  NewPostHandler(logger, postSvc),
		Users:  NewUserHandler(logger, profileSvc, postSvc, eventSvc, groupSvc),
	})
	return ts
}

// seedUser crea una cuenta verificada con password "password123".
func (ts *testServer) seedUser(t *testing.T, addr string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	u := domain.User{
		ID:           uuid.NewString(),
		Email:        addr,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Major:        "Biology",
		YearOfStudy:  "Senior",
		Role:         domain.RoleStudent,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.ComposeFullName()
	if err := ts.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// login devuelve el token de sesion opaco.
func (ts *testServer) login(t *testing.T, addr string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/auth/login-password", map[string]string{"email": addr, "password": "password123"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var data sessionPayload
	decodeData(t, w, &data)
	return data.SessionToken
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v (%s)", err, w.Body.String())
	}
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", w.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) testEnvelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Success || env.Error != code {
		t.Fatalf("expected error %s, got %+v", code, env)
	}
	return env
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK || !decodeEnvelope(t, w).Success {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	expectError(t, ts.do(t, http.MethodGet, "/api/nothing", nil, ""), http.StatusNotFound, codeNotFound)
	expectError(t, ts.do(t, http.MethodPatch, "/api/events", nil, ""), http.StatusMethodNotAllowed, codeMethodNotAllowed)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	expectError(t, ts.do(t, http.MethodGet, "/auth/profile", nil, ""), http.StatusUnauthorized, codeUnauthorized)
	expectError(t, ts.do(t, http.MethodGet, "/auth/profile", nil, "bogus"), http.StatusUnauthorized, codeInvalidSession)
	expectError(t, ts.do(t, http.MethodPost, "/api/posts", map[string]string{"title": "x"}, ""), http.StatusUnauthorized, codeUnauthorized)
}
