package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/gomail.v2"

	"campus-connect/internal/domain"
)

type recordingDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return d.err
}

func TestRenderOTPPerPurpose(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		purpose domain.CodePurpose
		subject string
		action  string
	}{
		{domain.PurposeSignup, "Your CampusConnect Verification Code", "account verification"},
		{domain.PurposeAuthentication, "Your CampusConnect Sign-in Code", "sign-in"},
		{domain.PurposePasswordReset, "Your CampusConnect Password Reset Code", "password reset"},
	}
	for _, tc := range cases {
		t.Run(string(tc.purpose), func(t *testing.T) {
			r, err := RenderOTP(OTPMessage{
				To:        "ana@campus.edu",
				Name:      "Ana",
				Code:      "123456",
				Purpose:   tc.purpose,
				ExpiresAt: now.Add(10 * time.Minute),
			}, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Subject != tc.subject {
				t.Fatalf("subject = %q, want %q", r.Subject, tc.subject)
			}
			for _, body := range []string{r.HTML, r.Text} {
				if !strings.Contains(body, "123456") {
					t.Fatalf("body missing code: %s", body)
				}
				if !strings.Contains(body, tc.action) {
					t.Fatalf("body missing action %q", tc.action)
				}
				if !strings.Contains(body, "10 minutes") {
					t.Fatalf("body missing expiry window")
				}
			}
		})
	}
}

func TestRenderOTPEscapesName(t *testing.T) {
	now := time.Now()
	r, err := RenderOTP(OTPMessage{
		Name:      "<script>",
		Code:      "000111",
		Purpose:   domain.PurposeSignup,
		ExpiresAt: now.Add(time.Minute),
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(r.HTML, "<script>") {
		t.Fatalf("html body not escaped")
	}
}

func TestRenderOTPUnknownPurpose(t *testing.T) {
	if _, err := RenderOTP(OTPMessage{Purpose: "bogus"}, time.Now()); err == nil {
		t.Fatalf("expected error for unknown purpose")
	}
}

func TestSMTPSenderBuildsMultipartMessage(t *testing.T) {
	d := &recordingDialer{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &SMTPSender{dialer: d, from: "no-reply@campus.edu", fromName: "CampusConnect", now: func() time.Time { return now }}

	err := s.SendOTP(context.Background(), OTPMessage{
		To:        "ana@campus.edu",
		Code:      "654321",
		Purpose:   domain.PurposeAuthentication,
		ExpiresAt: now.Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(d.messages))
	}
	m := d.messages[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "ana@campus.edu" {
		t.Fatalf("unexpected To header: %v", got)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Your CampusConnect Sign-in Code" {
		t.Fatalf("unexpected Subject header: %v", got)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "text/plain") || !strings.Contains(raw, "text/html") {
		t.Fatalf("expected plain and html parts")
	}
}

func TestSMTPSenderWrapsDialError(t *testing.T) {
	dialErr := errors.New("connection refused")
	s := &SMTPSender{dialer: &recordingDialer{err: dialErr}, from: "no-reply@campus.edu", now: time.Now}

	err := s.SendOTP(context.Background(), OTPMessage{
		To:        "ana@campus.edu",
		Code:      "654321",
		Purpose:   domain.PurposeSignup,
		ExpiresAt: time.Now().Add(time.Minute),
	})
	if !errors.Is(err, dialErr) {
		t.Fatalf("expected wrapped dial error, got %v", err)
	}
}

func TestSMTPSenderRequiresRecipient(t *testing.T) {
	s := &SMTPSender{dialer: &recordingDialer{}, from: "no-reply@campus.edu", now: time.Now}
	if err := s.SendOTP(context.Background(), OTPMessage{Purpose: domain.PurposeSignup}); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestNewSMTPSenderValidatesConfig(t *testing.T) {
	if _, err := NewSMTPSender("", 587, "", "", "a@b.c", "", false); err == nil {
		t.Fatalf("expected error without host")
	}
	if _, err := NewSMTPSender("smtp.campus.edu", 587, "", "", "", "", false); err == nil {
		t.Fatalf("expected error without from")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendOTP(context.Background(), OTPMessage{})
	if err == nil || err.Error() != "smtp not configured" {
		t.Fatalf("unexpected error: %v", err)
	}
}
