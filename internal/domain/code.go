package domain

import (
	"strings"
	"time"
)

// CodePurpose acota un codigo de un solo uso a un flujo concreto.
type CodePurpose string

const (
	PurposeSignup         CodePurpose = "signup"
	PurposeAuthentication CodePurpose = "authentication"
	PurposePasswordReset  CodePurpose = "password_reset"
)

// ParseCodePurpose acepta solo los propositos conocidos.
func ParseCodePurpose(s string) (CodePurpose, bool) {
	switch CodePurpose(strings.ToLower(strings.TrimSpace(s))) {
	case PurposeSignup:
		return PurposeSignup, true
	case PurposeAuthentication:
		return PurposeAuthentication, true
	case PurposePasswordReset:
		return PurposePasswordReset, true
	}
	return "", false
}

func (p CodePurpose) String() string { return string(p) }

// OneTimeCode guarda solo el hash del codigo enviado por email.
type OneTimeCode struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	CodeHash    string      `json:"-"`
	Purpose     CodePurpose `json:"purpose"`
	ExpiresAt   time.Time   `json:"expires_at"`
	IsUsed      bool        `json:"is_used"`
	Attempts    int         `json:"attempts"`
	MaxAttempts int         `json:"max_attempts"`
	CreatedAt   time.Time   `json:"created_at"`
	UsedAt      *time.Time  `json:"used_at,omitempty"`
}

func (c OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (c OneTimeCode) Exhausted() bool {
	return c.Attempts >= c.MaxAttempts
}

// Valid: no expirado, no usado y con intentos disponibles.
func (c OneTimeCode) Valid(now time.Time) bool {
	return !c.Expired(now) && !c.IsUsed && !c.Exhausted()
}
