package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-connect/internal/domain"
)

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestAuth_OTPLoginSucceedsOnThirdAttempt(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")

	w := ts.do(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "alice@campus.edu", "purpose": "authentication"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("send otp: %d %s", w.Code, w.Body.String())
	}
	code := ts.sender.lastCode(t)

	for i, remaining := range []int{2, 1} {
		w = ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@campus.edu", "otp": wrongCode(code)}, "")
		env := expectError(t, w, http.StatusBadRequest, "INVALID_CODE")
		var details struct {
			Remaining int `json:"remaining_attempts"`
		}
		if err := json.Unmarshal(env.Details, &details); err != nil || details.Remaining != remaining {
			t.Fatalf("attempt %d: expected %d remaining, got %s", i+1, remaining, env.Details)
		}
	}

	w = ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@campus.edu", "otp": code}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected login on third attempt, got %d %s", w.Code, w.Body.String())
	}
	var data sessionPayload
	decodeData(t, w, &data)
	if data.SessionToken == "" || data.AccessToken == nil {
		t.Fatalf("expected session and access token, got %+v", data)
	}
}

func TestAuth_ExhaustedCodeRejectsCorrectValue(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")

	ts.do(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "alice@campus.edu", "purpose": "authentication"}, "")
	code := ts.sender.lastCode(t)
	for i := 0; i < 3; i++ {
		ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@campus.edu", "otp": wrongCode(code)}, "")
	}
	w := ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@campus.edu", "otp": code}, "")
	expectError(t, w, http.StatusTooManyRequests, "ATTEMPTS_EXCEEDED")
}

func TestAuth_SignupThenVerify(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":         "New.Student@campus.edu",
		"password":      "supersecret",
		"first_name":    "New",
		"last_name":     "Student",
		"major":         "History",
		"year_of_study": "Freshman",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}
	code := ts.sender.lastCode(t)

	w = ts.do(t, http.MethodPost, "/auth/login-password", map[string]string{"email": "new.student@campus.edu", "password": "supersecret"}, "")
	expectError(t, w, http.StatusUnauthorized, "ACCOUNT_NOT_VERIFIED")

	w = ts.do(t, http.MethodPost, "/auth/verify-otp", map[string]string{"email": "new.student@campus.edu", "otp": code, "purpose": "signup"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}
	var data sessionPayload
	decodeData(t, w, &data)
	if !data.User.IsVerified || data.User.FullName != "New Student" {
		t.Fatalf("unexpected user: %+v", data.User)
	}

	w = ts.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"email": "new.student@campus.edu", "password": "supersecret", "first_name": "N", "last_name": "S",
		"major": "History", "year_of_study": "Freshman",
	}, "")
	expectError(t, w, http.StatusConflict, "EMAIL_TAKEN")
}

func TestAuth_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "not-an-email", "purpose": "signup"}, "")
	env := expectError(t, w, http.StatusBadRequest, codeValidation)
	var details struct {
		Errors []fieldError `json:"validation_errors"`
	}
	if err := json.Unmarshal(env.Details, &details); err != nil || len(details.Errors) != 1 || details.Errors[0].Field != "email" {
		t.Fatalf("unexpected validation details: %s", env.Details)
	}

	w = ts.do(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "a@campus.edu", "purpose": "login"}, "")
	expectError(t, w, http.StatusBadRequest, codeValidation)

	w = ts.do(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "a@gmail.com", "purpose": "signup"}, "")
	expectError(t, w, http.StatusBadRequest, "EMAIL_DOMAIN_NOT_ALLOWED")

	w = ts.do(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "ghost@campus.edu", "purpose": "authentication"}, "")
	expectError(t, w, http.StatusNotFound, "ACCOUNT_NOT_FOUND")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	expectError(t, rec, http.StatusBadRequest, codeBadRequest)
}

func TestAuth_PasswordLoginDoesNotRevealAccounts(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")

	unknown := ts.do(t, http.MethodPost, "/auth/login-password", map[string]string{"email": "ghost@campus.edu", "password": "password123"}, "")
	wrong := ts.do(t, http.MethodPost, "/auth/login-password", map[string]string{"email": "alice@campus.edu", "password": "nope-nope"}, "")

	a := expectError(t, unknown, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	b := expectError(t, wrong, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	if a.Message != b.Message {
		t.Fatalf("messages differ: %q vs %q", a.Message, b.Message)
	}
}

func TestAuth_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")
	token := ts.login(t, "alice@campus.edu")

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodPost, "/auth/verify-session", map[string]string{"sessionToken": token}, "")
		if w.Code != http.StatusOK {
			t.Fatalf("verify #%d: %d %s", i+1, w.Code, w.Body.String())
		}
	}
	if w := ts.do(t, http.MethodPost, "/auth/verify-session", nil, token); w.Code != http.StatusOK {
		t.Fatalf("verify with bearer: %d %s", w.Code, w.Body.String())
	}

	if w := ts.do(t, http.MethodPost, "/auth/logout", map[string]string{"sessionToken": token}, ""); w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}
	w := ts.do(t, http.MethodPost, "/auth/verify-session", map[string]string{"sessionToken": token}, "")
	expectError(t, w, http.StatusUnauthorized, codeInvalidSession)
	w = ts.do(t, http.MethodPost, "/auth/logout", map[string]string{"sessionToken": token}, "")
	expectError(t, w, http.StatusUnauthorized, codeInvalidSession)
	w = ts.do(t, http.MethodPost, "/auth/logout", nil, "")
	expectError(t, w, http.StatusBadRequest, codeValidation)
}

func TestAuth_AccessTokenRevokedOnLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")
	session := ts.login(t, "alice@campus.edu")

	w := ts.do(t, http.MethodPost, "/auth/token", map[string]string{"sessionToken": session}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	var access struct {
		Token string `json:"access_token"`
	}
	decodeData(t, w, &access)

	if w := ts.do(t, http.MethodPost, "/auth/verify-token", map[string]string{"token": access.Token}, ""); w.Code != http.StatusOK {
		t.Fatalf("verify token: %d %s", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodGet, "/auth/profile", nil, access.Token); w.Code != http.StatusOK {
		t.Fatalf("profile with access token: %d %s", w.Code, w.Body.String())
	}

	if w := ts.do(t, http.MethodPost, "/auth/logout", nil, access.Token); w.Code != http.StatusOK {
		t.Fatalf("logout with access token: %d %s", w.Code, w.Body.String())
	}
	expectError(t, ts.do(t, http.MethodGet, "/auth/profile", nil, access.Token), http.StatusUnauthorized, codeInvalidSession)
	expectError(t, ts.do(t, http.MethodGet, "/auth/profile", nil, session), http.StatusUnauthorized, codeInvalidSession)
}

func TestAuth_ResetPasswordClosesSessions(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")
	session := ts.login(t, "alice@campus.edu")

	ts.do(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "alice@campus.edu", "purpose": "password_reset"}, "")
	code := ts.sender.lastCode(t)

	w := ts.do(t, http.MethodPost, "/auth/verify-otp", map[string]string{"email": "alice@campus.edu", "otp": code, "purpose": "password_reset"}, "")
	expectError(t, w, http.StatusBadRequest, codeValidation)

	w = ts.do(t, http.MethodPost, "/auth/reset-password", map[string]string{"email": "alice@campus.edu", "otp": code, "newPassword": "brand-new-pass"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}
	expectError(t, ts.do(t, http.MethodGet, "/auth/profile", nil, session), http.StatusUnauthorized, codeInvalidSession)

	w = ts.do(t, http.MethodPost, "/auth/login-password", map[string]string{"email": "alice@campus.edu", "password": "brand-new-pass"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login with new password: %d %s", w.Code, w.Body.String())
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")
	token := ts.login(t, "alice@campus.edu")

	w := ts.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": "wrong-one", "newPassword": "another-pass"}, token)
	expectError(t, w, http.StatusBadRequest, "INCORRECT_PASSWORD")

	w = ts.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": "password123", "newPassword": "another-pass"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("change password: %d %s", w.Code, w.Body.String())
	}
}

func TestAuth_ProfileUpdateAndPicture(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "alice@campus.edu")
	token := ts.login(t, "alice@campus.edu")

	w := ts.do(t, http.MethodPut, "/auth/profile", map[string]string{"first_name": "Alicia", "bio": "hi"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", w.Code, w.Body.String())
	}
	var user domain.User
	decodeData(t, w, &user)
	if user.FullName != "Alicia User" || user.Major != "Biology" {
		t.Fatalf("unexpected profile: %+v", user)
	}

	w = uploadPicture(t, ts, token, "avatar.png")
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	decodeData(t, w, &user)
	if user.ProfilePictureURL == "" {
		t.Fatalf("expected picture url")
	}
	static := ts.do(t, http.MethodGet, user.ProfilePictureURL, nil, "")
	if static.Code != http.StatusOK || static.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("expected stored jpeg to be served, got %d %q", static.Code, static.Header().Get("Content-Type"))
	}

	expectError(t, uploadPicture(t, ts, token, "avatar.gif"), http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE")

	w = ts.do(t, http.MethodDelete, "/auth/profile/picture", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("remove picture: %d %s", w.Code, w.Body.String())
	}
}

func uploadPicture(t *testing.T, ts *testServer, token, filename string) *httptest.ResponseRecorder {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	img.Set(1, 1, color.NRGBA{G: 255, A: 255})
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write(raw.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/auth/profile/picture", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}
