package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campus-connect/internal/domain"
	"campus-connect/internal/email"
	"campus-connect/internal/repository"
)

var (
	ErrInvalidEmail          = errors.New("invalid email")
	ErrEmailDomainNotAllowed = errors.New("email domain not allowed")
	ErrInvalidPurpose        = errors.New("invalid code purpose")
	ErrInvalidRole           = errors.New("invalid user role")
	ErrRateLimited           = errors.New("rate limited")
	ErrEmailTaken            = errors.New("email already registered")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidCodeFormat     = errors.New("invalid code format")
	ErrCodeNotFound          = errors.New("code not found")
	ErrCodeExpired           = errors.New("code expired")
	ErrAttemptsExceeded      = errors.New("attempts exceeded")
	ErrInvalidCode           = errors.New("invalid code")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAccountNotVerified    = fmt.Errorf("%w: account not verified", ErrInvalidCredentials)
	ErrIncorrectPassword     = errors.New("current password is incorrect")
	ErrWeakPassword          = errors.New("password too short")
	ErrInvalidSession        = errors.New("invalid session")
	ErrSessionExpired        = errors.New("session expired")
)

// InvalidCodeError acompaña a ErrInvalidCode con los intentos que quedan.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code: %d attempts remaining", e.Remaining)
}

func (e *InvalidCodeError) Is(target error) bool {
	return target == ErrInvalidCode
}

const (
	minPasswordLength = 8
	sessionTokenBytes = 32
)

// AuthConfig agrupa los parametros del flujo de autenticacion.
type AuthConfig struct {
	AllowedDomains []string
	CodeLength     int
	CodeTTL        time.Duration
	MaxAttempts    int
	SessionTTL     time.Duration
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.CodeLength <= 0 {
		c.CodeLength = defaultCodeLength
	}
	if c.CodeTTL <= 0 {
		c.CodeTTL = 10 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * 24 * time.Hour
	}
	domains := make([]string, 0, len(c.AllowedDomains))
	for _, d := range c.AllowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	c.AllowedDomains = domains
	return c
}

// AuthService coordina emision y verificacion de codigos, login y sesiones.
type AuthService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	codes    repository.CodeRepository
	sessions repository.SessionRepository
	sender   email.Sender
	limiter  OTPRateLimiter
	tokens   *JWTService
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	codes repository.CodeRepository,
	sessions repository.SessionRepository,
	sender email.Sender,
	limiter OTPRateLimiter,
	tokens *JWTService,
	cfg AuthConfig,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = email.NewDisabledSender("email sender not configured")
	}
	cfg = cfg.withDefaults()
	if limiter == nil {
		limiter = NewOTPRateLimiter(cfg.CodeTTL, 3)
	}
	return &AuthService{
		logger:   logger,
		users:    users,
		codes:    codes,
		sessions: sessions,
		sender:   sender,
		limiter:  limiter,
		tokens:   tokens,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SessionMeta son los datos del cliente que se guardan junto a la sesion.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

type CodeIssue struct {
	UserID        string             `json:"user_id"`
	Email         string             `json:"email"`
	Purpose       domain.CodePurpose `json:"purpose"`
	ExpiresAt     time.Time          `json:"expires_at"`
	ExpiryMinutes int                `json:"expiry_minutes"`
}

type AuthResult struct {
	User         domain.User
	Session      domain.Session
	SessionToken string
	AccessToken  *AccessToken
}

type SignupInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Major       string
	YearOfStudy string
	Role        string
	Bio         string
}

// AllowedDomains expone la lista efectiva de dominios admitidos.
func (s *AuthService) AllowedDomains() []string {
	return append([]string(nil), s.cfg.AllowedDomains...)
}

func (s *AuthService) IssueCode(ctx context.Context, emailAddr string, purpose domain.CodePurpose) (CodeIssue, error) {
	if _, ok := domain.ParseCodePurpose(string(purpose)); !ok {
		return CodeIssue{}, ErrInvalidPurpose
	}
	emailAddr, err := s.checkEmail(emailAddr)
	if err != nil {
		return CodeIssue{}, err
	}
	if !s.limiter.Allow(ctx, emailAddr) {
		return CodeIssue{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		if purpose == domain.PurposeSignup && user.IsVerified {
			return CodeIssue{}, ErrEmailTaken
		}
	case repository.IsNotFound(err):
		if purpose != domain.PurposeSignup {
			return CodeIssue{}, ErrAccountNotFound
		}
		user, err = s.createAccount(ctx, domain.User{Email: emailAddr, Role: domain.RoleStudent})
		if err != nil {
			return CodeIssue{}, err
		}
	default:
		return CodeIssue{}, fmt.Errorf("lookup account: %w", err)
	}

	return s.issueFor(ctx, user, purpose)
}

// Signup registra una cuenta con perfil y password y envia el codigo de verificacion.
// Una cuenta existente sin verificar se refresca en lugar de rechazarse.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (domain.User, CodeIssue, error) {
	emailAddr, err := s.checkEmail(in.Email)
	if err != nil {
		return domain.User{}, CodeIssue{}, err
	}
	role := domain.RoleStudent
	if strings.TrimSpace(in.Role) != "" {
		r, ok := domain.ParseUserRole(in.Role)
		if !ok {
			return domain.User{}, CodeIssue{}, ErrInvalidRole
		}
		role = r
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return domain.User{}, CodeIssue{}, err
	}
	if !s.limiter.Allow(ctx, emailAddr) {
		return domain.User{}, CodeIssue{}, ErrRateLimited
	}

	profile := domain.User{
		Email:        emailAddr,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Major:        strings.TrimSpace(in.Major),
		YearOfStudy:  strings.TrimSpace(in.YearOfStudy),
		Bio:          strings.TrimSpace(in.Bio),
		Role:         role,
	}
	profile.ComposeFullName()

	existing, err := s.users.GetByEmail(ctx, emailAddr)
	var user domain.User
	switch {
	case err == nil:
		if existing.IsVerified {
			return domain.User{}, CodeIssue{}, ErrEmailTaken
		}
		profile.ID = existing.ID
		profile.ProfilePictureURL = existing.ProfilePictureURL
		profile.ProfilePictureFilename = existing.ProfilePictureFilename
		profile.CreatedAt = existing.CreatedAt
		profile.UpdatedAt = s.now().UTC()
		if err := s.users.Update(ctx, profile); err != nil {
			return domain.User{}, CodeIssue{}, fmt.Errorf("refresh unverified account: %w", err)
		}
		profile.IsActive = existing.IsActive
		user = profile
	case repository.IsNotFound(err):
		user, err = s.createAccount(ctx, profile)
		if err != nil {
			return domain.User{}, CodeIssue{}, err
		}
	default:
		return domain.User{}, CodeIssue{}, fmt.Errorf("lookup account: %w", err)
	}

	issue, err := s.issueFor(ctx, user, domain.PurposeSignup)
	if err != nil {
		return domain.User{}, CodeIssue{}, err
	}
	s.logger.Info("account registered", zap.String("user_id", user.ID))
	return user, issue, nil
}

// VerifyCode consume el codigo mas reciente de (cuenta, proposito). Cada intento sobre un
// codigo vivo cuenta una vez, antes de comparar.
func (s *AuthService) VerifyCode(ctx context.Context, emailAddr, code string, purpose domain.CodePurpose) (domain.User, error) {
	if _, ok := domain.ParseCodePurpose(string(purpose)); !ok {
		return domain.User{}, ErrInvalidPurpose
	}
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	code = strings.TrimSpace(code)
	if !isValidOTPCode(code, s.cfg.CodeLength) {
		return domain.User{}, ErrInvalidCodeFormat
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.User{}, ErrCodeNotFound
		}
		return domain.User{}, fmt.Errorf("lookup account: %w", err)
	}

	otp, err := s.codes.LatestUnused(ctx, user.ID, purpose)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.User{}, ErrCodeNotFound
		}
		return domain.User{}, fmt.Errorf("load code: %w", err)
	}

	now := s.now().UTC()
	if otp.Expired(now) {
		if err := s.codes.MarkUsed(ctx, otp.ID, now); err != nil && !errors.Is(err, repository.ErrCodeSpent) {
			return domain.User{}, fmt.Errorf("consume expired code: %w", err)
		}
		return domain.User{}, ErrCodeExpired
	}
	if otp.Exhausted() {
		return domain.User{}, ErrAttemptsExceeded
	}

	// El incremento condicional es el que decide: la copia leida arriba puede estar vieja.
	attempts, err := s.codes.IncrementAttempts(ctx, otp.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCodeSpent) {
			return domain.User{}, ErrAttemptsExceeded
		}
		return domain.User{}, fmt.Errorf("count attempt: %w", err)
	}
	if !verifyOTP(code, otp.CodeHash) {
		remaining := otp.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return domain.User{}, &InvalidCodeError{Remaining: remaining}
	}

	if err := s.codes.MarkUsed(ctx, otp.ID, now); err != nil {
		if errors.Is(err, repository.ErrCodeSpent) {
			return domain.User{}, ErrCodeNotFound
		}
		return domain.User{}, fmt.Errorf("consume code: %w", err)
	}
	if purpose == domain.PurposeSignup && !user.IsVerified {
		if err := s.users.MarkVerified(ctx, user.ID, now); err != nil {
			return domain.User{}, fmt.Errorf("mark verified: %w", err)
		}
		user.IsVerified = true
		user.UpdatedAt = now
	}
	return user, nil
}

// AuthenticatePassword devuelve el mismo error para cuenta inexistente y password incorrecto.
func (s *AuthService) AuthenticatePassword(ctx context.Context, emailAddr, password string, meta SessionMeta) (AuthResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup account: %w", err)
	}
	if user.PasswordHash == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return AuthResult{}, ErrAccountNotVerified
	}
	return s.login(ctx, user, meta)
}

func (s *AuthService) AuthenticateOTP(ctx context.Context, emailAddr, code string, meta SessionMeta) (AuthResult, error) {
	user, err := s.VerifyCode(ctx, emailAddr, code, domain.PurposeAuthentication)
	if err != nil {
		return AuthResult{}, err
	}
	return s.login(ctx, user, meta)
}

// CompleteSignupVerification verifica el codigo de alta y abre la primera sesion.
func (s *AuthService) CompleteSignupVerification(ctx context.Context, emailAddr, code string, meta SessionMeta) (AuthResult, error) {
	user, err := s.VerifyCode(ctx, emailAddr, code, domain.PurposeSignup)
	if err != nil {
		return AuthResult{}, err
	}
	return s.login(ctx, user, meta)
}

func (s *AuthService) VerifySession(ctx context.Context, token string) (domain.User, domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, domain.Session{}, ErrInvalidSession
	}
	session, err := s.sessions.GetActiveByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.User{}, domain.Session{}, ErrInvalidSession
		}
		return domain.User{}, domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	now := s.now().UTC()
	if session.Expired(now) {
		if err := s.closeSession(ctx, session.ID); err != nil && !repository.IsNotFound(err) {
			return domain.User{}, domain.Session{}, fmt.Errorf("deactivate expired session: %w", err)
		}
		return domain.User{}, domain.Session{}, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.User{}, domain.Session{}, ErrInvalidSession
		}
		return domain.User{}, domain.Session{}, fmt.Errorf("load account: %w", err)
	}
	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("touch session: %w", err)
	}
	session.LastUsed = now
	return user, session, nil
}

// Authenticate resuelve un bearer token: access token JWT o token de sesion opaco.
// Devuelve la cuenta y el id de la sesion a la que pertenece.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (domain.User, string, error) {
	bearer = strings.TrimSpace(bearer)
	if looksLikeJWT(bearer) && s.tokens.Enabled() {
		claims, err := s.tokens.ParseAccessToken(ctx, bearer)
		if err != nil {
			if errors.Is(err, ErrJWTExpired) {
				return domain.User{}, "", ErrSessionExpired
			}
			if errors.Is(err, ErrJWTInvalid) || errors.Is(err, ErrJWTRevoked) {
				return domain.User{}, "", ErrInvalidSession
			}
			return domain.User{}, "", fmt.Errorf("parse access token: %w", err)
		}
		user, err := s.users.GetByID(ctx, claims.UserID)
		if err != nil {
			if repository.IsNotFound(err) {
				return domain.User{}, "", ErrInvalidSession
			}
			return domain.User{}, "", fmt.Errorf("load account: %w", err)
		}
		return user, claims.SessionID, nil
	}
	user, session, err := s.VerifySession(ctx, bearer)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, session.ID, nil
}

// RefreshAccessToken emite un access token nuevo a partir de un token de sesion valido.
func (s *AuthService) RefreshAccessToken(ctx context.Context, sessionToken string) (AccessToken, error) {
	if !s.tokens.Enabled() {
		return AccessToken{}, ErrJWTDisabled
	}
	user, session, err := s.VerifySession(ctx, sessionToken)
	if err != nil {
		return AccessToken{}, err
	}
	return s.tokens.IssueAccessToken(ctx, user, session.ID)
}

// Logout cierra la sesion del token (de sesion o JWT) y revoca sus access tokens.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidSession
	}
	if looksLikeJWT(token) && s.tokens.Enabled() {
		_, sessionID, err := s.Authenticate(ctx, token)
		if err != nil {
			return err
		}
		return s.LogoutSession(ctx, sessionID)
	}
	session, err := s.sessions.GetActiveByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidSession
		}
		return fmt.Errorf("load session: %w", err)
	}
	return s.LogoutSession(ctx, session.ID)
}

func (s *AuthService) LogoutSession(ctx context.Context, sessionID string) error {
	if err := s.closeSession(ctx, sessionID); err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidSession
		}
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// ResetPassword consume un codigo password_reset, cambia el hash y cierra todas las sesiones.
func (s *AuthService) ResetPassword(ctx context.Context, emailAddr, code, newPassword string) error {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user, err := s.VerifyCode(ctx, emailAddr, code, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, s.now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return s.closeAllSessions(ctx, user.ID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("load account: %w", err)
	}
	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
			return ErrIncorrectPassword
		}
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, s.now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

type PurgeReport struct {
	Codes    int64 `json:"codes"`
	Sessions int64 `json:"sessions"`
}

// PurgeExpired borra codigos consumidos o vencidos y sesiones cerradas o vencidas.
func (s *AuthService) PurgeExpired(ctx context.Context) (PurgeReport, error) {
	now := s.now().UTC()
	codes, err := s.codes.DeleteExpired(ctx, now)
	if err != nil {
		return PurgeReport{}, fmt.Errorf("purge codes: %w", err)
	}
	sessions, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return PurgeReport{Codes: codes}, fmt.Errorf("purge sessions: %w", err)
	}
	s.logger.Info("expired credentials purged", zap.Int64("codes", codes), zap.Int64("sessions", sessions))
	return PurgeReport{Codes: codes, Sessions: sessions}, nil
}

func (s *AuthService) issueFor(ctx context.Context, user domain.User, purpose domain.CodePurpose) (CodeIssue, error) {
	code, hash, err := generateOTP(s.cfg.CodeLength)
	if err != nil {
		return CodeIssue{}, fmt.Errorf("generate code: %w", err)
	}
	now := s.now().UTC()
	if err := s.codes.InvalidateActive(ctx, user.ID, purpose, now); err != nil {
		return CodeIssue{}, fmt.Errorf("supersede codes: %w", err)
	}
	otp := domain.OneTimeCode{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		CodeHash:    hash,
		Purpose:     purpose,
		ExpiresAt:   now.Add(s.cfg.CodeTTL),
		MaxAttempts: s.cfg.MaxAttempts,
		CreatedAt:   now,
	}
	if err := s.codes.Create(ctx, otp); err != nil {
		return CodeIssue{}, fmt.Errorf("store code: %w", err)
	}

	msg := email.OTPMessage{
		To:        user.Email,
		Name:      user.FullName,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: otp.ExpiresAt,
	}
	if err := s.sender.SendOTP(ctx, msg); err != nil {
		s.logger.Warn("send otp failed", zap.Error(err), zap.String("email", user.Email), zap.String("purpose", purpose.String()))
	}

	return CodeIssue{
		UserID:        user.ID,
		Email:         user.Email,
		Purpose:       purpose,
		ExpiresAt:     otp.ExpiresAt,
		ExpiryMinutes: int(s.cfg.CodeTTL / time.Minute),
	}, nil
}

func (s *AuthService) login(ctx context.Context, user domain.User, meta SessionMeta) (AuthResult, error) {
	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return AuthResult{}, fmt.Errorf("record login: %w", err)
	}
	user.LastLogin = &now

	token, err := newSessionToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session token: %w", err)
	}
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		IsActive:  true,
		UserAgent: truncate(meta.UserAgent, 500),
		IPAddress: truncate(meta.IPAddress, 45),
		CreatedAt: now,
		LastUsed:  now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, fmt.Errorf("store session: %w", err)
	}

	result := AuthResult{User: user, Session: session, SessionToken: token}
	if s.tokens.Enabled() {
		access, err := s.tokens.IssueAccessToken(ctx, user, session.ID)
		if err != nil {
			s.logger.Warn("issue access token failed", zap.Error(err), zap.String("user_id", user.ID))
		} else {
			result.AccessToken = &access
		}
	}
	s.logger.Info("session created", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return result, nil
}

func (s *AuthService) closeSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Deactivate(ctx, sessionID); err != nil {
		return err
	}
	if err := s.tokens.RevokeSessions(ctx, sessionID); err != nil {
		s.logger.Warn("revoke access tokens failed", zap.Error(err), zap.String("session_id", sessionID))
	}
	return nil
}

func (s *AuthService) closeAllSessions(ctx context.Context, userID string) error {
	ids, err := s.sessions.DeactivateAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("deactivate sessions: %w", err)
	}
	if err := s.tokens.RevokeSessions(ctx, ids...); err != nil {
		s.logger.Warn("revoke access tokens failed", zap.Error(err), zap.String("user_id", userID))
	}
	return nil
}

func (s *AuthService) createAccount(ctx context.Context, user domain.User) (domain.User, error) {
	now := s.now().UTC()
	user.ID = uuid.NewString()
	user.IsActive = true
	user.IsVerified = false
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create account: %w", err)
	}
	return user, nil
}

func (s *AuthService) checkEmail(emailAddr string) (string, error) {
	emailAddr = normalizeEmail(emailAddr)
	local, host, ok := strings.Cut(emailAddr, "@")
	if !ok || local == "" || host == "" || strings.Contains(host, "@") {
		return "", ErrInvalidEmail
	}
	if len(s.cfg.AllowedDomains) == 0 {
		return emailAddr, nil
	}
	for _, d := range s.cfg.AllowedDomains {
		if host == d {
			return emailAddr, nil
		}
	}
	return "", ErrEmailDomainNotAllowed
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// truncate corta a lo sumo n bytes sin partir un caracter UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
