package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"campus-connect/internal/domain"
)

// JWTService emite access tokens ligados a una sesion y los valida.
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
	store     AccessTokenStore
	now       func() time.Time
}

type AccessToken struct {
	Token     string    `json:"access_token"`
	ExpiresIn int64     `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid  = errors.New("jwt invalid")
	ErrJWTExpired  = errors.New("jwt expired")
	ErrJWTRevoked  = errors.New("jwt revoked")
	ErrJWTDisabled = errors.New("jwt disabled")
)

const tokenTypeAccess = "access"

func NewJWTService(secret string, accessTTL time.Duration, store AccessTokenStore) *JWTService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if store == nil {
		store = NewMemoryAccessTokenStore()
	}
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    "campus-connect",
		store:     store,
		now:       time.Now,
	}
}

// Enabled es falso cuando no hay secreto configurado; en ese caso solo hay tokens de sesion.
func (s *JWTService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *JWTService) IssueAccessToken(ctx context.Context, user domain.User, sessionID string) (AccessToken, error) {
	if !s.Enabled() {
		return AccessToken{}, ErrJWTDisabled
	}
	if strings.TrimSpace(sessionID) == "" {
		return AccessToken{}, ErrJWTInvalid
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.accessTTL)
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		SessionID: sessionID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	if err := s.store.Store(ctx, sessionID, user.ID, s.accessTTL); err != nil {
		return AccessToken{}, err
	}
	return AccessToken{
		Token:     signed,
		ExpiresIn: int64(s.accessTTL.Seconds()),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *JWTService) ParseAccessToken(ctx context.Context, accessToken string) (Claims, error) {
	if !s.Enabled() {
		return Claims{}, ErrJWTDisabled
	}
	if strings.TrimSpace(accessToken) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess || !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	ok, err := s.store.Exists(ctx, claims.SessionID)
	if err != nil {
		return Claims{}, err
	}
	if !ok {
		return Claims{}, ErrJWTRevoked
	}
	return claims, nil
}

// RevokeSessions invalida los access tokens emitidos para esas sesiones.
func (s *JWTService) RevokeSessions(ctx context.Context, sessionIDs ...string) error {
	if s == nil || len(sessionIDs) == 0 {
		return nil
	}
	return s.store.Revoke(ctx, sessionIDs...)
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.SessionID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}

// looksLikeJWT distingue un access token de un token de sesion opaco (base64url sin puntos).
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}
