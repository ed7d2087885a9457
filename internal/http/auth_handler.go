package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-connect/internal/domain"
	"campus-connect/internal/service"
)

// AuthHandler agrupa los endpoints /auth.
type AuthHandler struct {
	logger   *zap.Logger
	auth     *service.AuthService
	profiles *service.ProfileService
}

func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, profiles *service.ProfileService) *AuthHandler {
	return &AuthHandler{logger: logger, auth: auth, profiles: profiles}
}

type sessionPayload struct {
	User         domain.User          `json:"user"`
	SessionToken string               `json:"session_token"`
	ExpiresAt    time.Time            `json:"expires_at"`
	AccessToken  *service.AccessToken `json:"access_token,omitempty"`
}

func newSessionPayload(res service.AuthResult) sessionPayload {
	return sessionPayload{
		User:         res.User,
		SessionToken: res.SessionToken,
		ExpiresAt:    res.Session.ExpiresAt,
		AccessToken:  res.AccessToken,
	}
}

func sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}

// Signup maneja POST /auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=8,max=128"`
		FirstName   string `json:"first_name" binding:"required,max=100"`
		LastName    string `json:"last_name" binding:"required,max=100"`
		Phone       string `json:"phone" binding:"max=20"`
		Major       string `json:"major" binding:"required,max=100"`
		YearOfStudy string `json:"year_of_study" binding:"required,max=20"`
		Role        string `json:"user_role" binding:"omitempty,oneof=student teacher management"`
		Bio         string `json:"bio" binding:"max=500"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, issue, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Major:       req.Major,
		YearOfStudy: req.YearOfStudy,
		Role:        req.Role,
		Bio:         req.Bio,
	})
	if err != nil {
		respondServiceError(c, h.logger, "signup", err)
		return
	}
	respondOK(c, http.StatusCreated, "Account created. Verification code sent to email", gin.H{
		"user":           user,
		"expires_at":     issue.ExpiresAt,
		"expiry_minutes": issue.ExpiryMinutes,
	})
}

// SendOTP maneja POST /auth/send-otp.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req struct {
		Email   string `json:"email" binding:"required,email"`
		Purpose string `json:"purpose" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	purpose, ok := domain.ParseCodePurpose(req.Purpose)
	if !ok {
		respondServiceError(c, h.logger, "send otp", service.ErrInvalidPurpose)
		return
	}

	issue, err := h.auth.IssueCode(c.Request.Context(), req.Email, purpose)
	if err != nil {
		respondServiceError(c, h.logger, "send otp", err)
		return
	}
	respondOK(c, http.StatusOK, "Verification code sent", gin.H{
		"email":          issue.Email,
		"purpose":        issue.Purpose,
		"expires_at":     issue.ExpiresAt,
		"expiry_minutes": issue.ExpiryMinutes,
	})
}

// VerifyOTP maneja POST /auth/verify-otp. Para signup verifica la cuenta y abre sesion.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email   string `json:"email" binding:"required,email"`
		OTP     string `json:"otp" binding:"required"`
		Purpose string `json:"purpose" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	purpose, ok := domain.ParseCodePurpose(req.Purpose)
	if !ok {
		respondServiceError(c, h.logger, "verify otp", service.ErrInvalidPurpose)
		return
	}

	var (
		res service.AuthResult
		err error
	)
	switch purpose {
	case domain.PurposeSignup:
		res, err = h.auth.CompleteSignupVerification(c.Request.Context(), req.Email, req.OTP, sessionMeta(c))
	case domain.PurposeAuthentication:
		res, err = h.auth.AuthenticateOTP(c.Request.Context(), req.Email, req.OTP, sessionMeta(c))
	default:
		respondError(c, http.StatusBadRequest, codeValidation,
			"password reset codes are redeemed at /auth/reset-password", nil)
		return
	}
	if err != nil {
		respondServiceError(c, h.logger, "verify otp", err)
		return
	}
	respondOK(c, http.StatusOK, "Code verified", newSessionPayload(res))
}

// LoginOTP maneja POST /auth/login.
func (h *AuthHandler) LoginOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	res, err := h.auth.AuthenticateOTP(c.Request.Context(), req.Email, req.OTP, sessionMeta(c))
	if err != nil {
		respondServiceError(c, h.logger, "login otp", err)
		return
	}
	respondOK(c, http.StatusOK, "Login successful", newSessionPayload(res))
}

// LoginPassword maneja POST /auth/login-password.
func (h *AuthHandler) LoginPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	res, err := h.auth.AuthenticatePassword(c.Request.Context(), req.Email, req.Password, sessionMeta(c))
	if err != nil {
		respondServiceError(c, h.logger, "login password", err)
		return
	}
	respondOK(c, http.StatusOK, "Login successful", newSessionPayload(res))
}

type sessionTokenRequest struct {
	SessionToken string `json:"sessionToken"`
}

// tokenFromRequest toma el Bearer y, si no hay, el sessionToken del body.
func (h *AuthHandler) tokenFromRequest(c *gin.Context) (string, bool) {
	if token := bearerToken(c); token != "" {
		return token, true
	}
	var req sessionTokenRequest
	if !bindOptionalJSON(c, h.logger, &req) {
		return "", false
	}
	if req.SessionToken == "" {
		respondError(c, http.StatusBadRequest, codeValidation, "session token is required", nil)
		return "", false
	}
	return req.SessionToken, true
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := h.tokenFromRequest(c)
	if !ok {
		return
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		respondServiceError(c, h.logger, "logout", err)
		return
	}
	respondOK(c, http.StatusOK, "Logged out", nil)
}

// VerifySession maneja POST /auth/verify-session.
func (h *AuthHandler) VerifySession(c *gin.Context) {
	token, ok := h.tokenFromRequest(c)
	if !ok {
		return
	}
	user, session, err := h.auth.VerifySession(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, h.logger, "verify session", err)
		return
	}
	respondOK(c, http.StatusOK, "Session is valid", gin.H{
		"user":       user.Summary(),
		"expires_at": session.ExpiresAt,
		"last_used":  session.LastUsed,
	})
}

// VerifyToken maneja POST /auth/verify-token para access tokens JWT.
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	user, _, err := h.auth.Authenticate(c.Request.Context(), req.Token)
	if err != nil {
		respondServiceError(c, h.logger, "verify token", err)
		return
	}
	respondOK(c, http.StatusOK, "Token is valid", gin.H{"valid": true, "user": user.Summary()})
}

// RefreshToken maneja POST /auth/token: emite un access token a partir de la sesion.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, ok := h.tokenFromRequest(c)
	if !ok {
		return
	}
	access, err := h.auth.RefreshAccessToken(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, h.logger, "refresh token", err)
		return
	}
	respondOK(c, http.StatusOK, "Access token issued", access)
}

// ResetPassword maneja POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		OTP         string `json:"otp" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondServiceError(c, h.logger, "reset password", err)
		return
	}
	respondOK(c, http.StatusOK, "Password updated. Please sign in again", nil)
}

// ChangePassword maneja POST /auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword" binding:"required,min=8,max=128"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, h.logger, "change password", err)
		return
	}
	respondOK(c, http.StatusOK, "Password changed", nil)
}

// GetProfile maneja GET /auth/profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "get profile", err)
		return
	}
	respondOK(c, http.StatusOK, "Profile retrieved", profile)
}

// UpdateProfile maneja PUT /auth/profile. Los campos ausentes no se modifican.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req struct {
		FirstName   *string `json:"first_name" binding:"omitempty,min=1,max=100"`
		LastName    *string `json:"last_name" binding:"omitempty,min=1,max=100"`
		Bio         *string `json:"bio" binding:"omitempty,max=500"`
		Phone       *string `json:"phone" binding:"omitempty,max=20"`
		Major       *string `json:"major" binding:"omitempty,max=100"`
		YearOfStudy *string `json:"year_of_study" binding:"omitempty,max=20"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), user.ID, service.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		Phone:       req.Phone,
		Major:       req.Major,
		YearOfStudy: req.YearOfStudy,
	})
	if err != nil {
		respondServiceError(c, h.logger, "update profile", err)
		return
	}
	respondOK(c, http.StatusOK, "Profile updated", profile)
}

// UploadPicture maneja POST /auth/profile/picture (multipart, campo "file").
func (h *AuthHandler) UploadPicture(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "file is required", nil)
		return
	}
	f, err := header.Open()
	if err != nil {
		respondServiceError(c, h.logger, "open upload", err)
		return
	}
	defer f.Close()

	profile, err := h.profiles.UploadPicture(c.Request.Context(), user.ID, header.Filename, f)
	if err != nil {
		respondServiceError(c, h.logger, "upload picture", err)
		return
	}
	respondOK(c, http.StatusOK, "Profile picture updated", profile)
}

// RemovePicture maneja DELETE /auth/profile/picture.
func (h *AuthHandler) RemovePicture(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	profile, err := h.profiles.RemovePicture(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "remove picture", err)
		return
	}
	respondOK(c, http.StatusOK, "Profile picture removed", profile)
}
