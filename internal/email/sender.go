package email

import (
	"context"
	"errors"
	"time"

	"campus-connect/internal/domain"
)

// OTPMessage es lo necesario para notificar un codigo de un solo uso.
type OTPMessage struct {
	To        string
	Name      string
	Code      string
	Purpose   domain.CodePurpose
	ExpiresAt time.Time
}

// Sender define la interfaz para envio de codigos por correo.
type Sender interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender devuelve un Sender que siempre falla; se usa cuando SMTP no esta configurado.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendOTP(_ context.Context, _ OTPMessage) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
