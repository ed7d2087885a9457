package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campus-connect/internal/domain"
)

func testUser() domain.User {
	return domain.User{ID: "u1", Email: "alice@campus.edu", Role: domain.RoleStudent}
}

func TestJWTService_IssueAndParse(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, NewMemoryAccessTokenStore())

	tok, err := svc.IssueAccessToken(ctx, testUser(), "s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.Token == "" || tok.ExpiresIn != 900 {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if !looksLikeJWT(tok.Token) {
		t.Fatalf("expected three-part token")
	}

	claims, err := svc.ParseAccessToken(ctx, tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.SessionID != "s1" || claims.Email != "alice@campus.edu" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_RevokedSession(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, NewMemoryAccessTokenStore())

	tok, err := svc.IssueAccessToken(ctx, testUser(), "s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.RevokeSessions(ctx, "s1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.ParseAccessToken(ctx, tok.Token); !errors.Is(err, ErrJWTRevoked) {
		t.Fatalf("expected ErrJWTRevoked, got %v", err)
	}
}

func TestJWTService_Expired(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", time.Minute, NewMemoryAccessTokenStore())
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	tok, err := svc.IssueAccessToken(ctx, testUser(), "s1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	svc.now = time.Now
	if _, err := svc.ParseAccessToken(ctx, tok.Token); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTService_Disabled(t *testing.T) {
	svc := NewJWTService("", time.Minute, nil)
	if svc.Enabled() {
		t.Fatalf("expected disabled service")
	}
	if _, err := svc.IssueAccessToken(context.Background(), testUser(), "s1"); !errors.Is(err, ErrJWTDisabled) {
		t.Fatalf("expected ErrJWTDisabled, got %v", err)
	}
}

func TestJWTService_RejectsWrongIssuerAndAlgorithm(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccessTokenStore()
	_ = store.Store(ctx, "s1", "u1", time.Minute)
	svc := NewJWTService("secret", time.Minute, store)
	now := time.Now().UTC()

	claims := Claims{
		UserID:    "u1",
		SessionID: "s1",
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "other-issuer",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(ctx, signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for wrong issuer, got %v", err)
	}

	claims.Issuer = "campus-connect"
	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.ParseAccessToken(ctx, signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for HS512, got %v", err)
	}
}

func TestLooksLikeJWT(t *testing.T) {
	if looksLikeJWT("abcDEF_-123") {
		t.Fatalf("opaque token detected as jwt")
	}
	if !looksLikeJWT("a.b.c") {
		t.Fatalf("expected jwt shape")
	}
}
