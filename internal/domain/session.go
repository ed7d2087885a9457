package domain

import "time"

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
	UserAgent string    `json:"-"`
	IPAddress string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// Expired reporta si la sesion paso su fecha de expiracion.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Valid implementa la regla: activa y no expirada.
func (s Session) Valid(now time.Time) bool {
	return s.IsActive && !s.Expired(now)
}
