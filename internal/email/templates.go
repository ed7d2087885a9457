package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"campus-connect/internal/domain"
)

// Rendered es el contenido final de un correo: asunto, HTML y alternativa en texto plano.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type templateData struct {
	Name          string
	Code          string
	Action        string
	Title         string
	ExpiryMinutes int
	ExpiresAt     string
}

var purposeLabels = map[domain.CodePurpose]struct{ action, title string }{
	domain.PurposeSignup:         {action: "account verification", title: "Verification"},
	domain.PurposeAuthentication: {action: "sign-in", title: "Sign-in"},
	domain.PurposePasswordReset:  {action: "password reset", title: "Password Reset"},
}

var htmlOTP = htmltemplate.Must(htmltemplate.New("otp_html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Your CampusConnect {{.Title}} Code</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #4f46e5;">CampusConnect</h1>
  <h2>Your {{.Title}} Code</h2>
  {{if .Name}}<p>Hi {{.Name}},</p>{{end}}
  <p>You have requested a {{.Action}} code for your CampusConnect account. Please use the following code to complete your {{.Action}}:</p>
  <div style="font-size: 32px; font-weight: bold; letter-spacing: 8px; text-align: center; background: #f3f4f6; padding: 16px; border-radius: 8px;">{{.Code}}</div>
  <p>This code expires in {{.ExpiryMinutes}} minutes ({{.ExpiresAt}} UTC).</p>
  <p>Never share this code with anyone. CampusConnect staff will never ask for it.</p>
  <p>If you did not request this code, you can ignore this email.</p>
</body>
</html>
`))

var textOTP = texttemplate.Must(texttemplate.New("otp_text").Parse(`CampusConnect - Your {{.Title}} Code
{{if .Name}}
Hi {{.Name}},
{{end}}
You have requested a {{.Action}} code for your CampusConnect account.

Your {{.Action}} code is: {{.Code}}

This code expires in {{.ExpiryMinutes}} minutes ({{.ExpiresAt}} UTC).
Never share this code with anyone.

If you did not request this code, you can ignore this email.
`))

// RenderOTP arma el correo para el proposito dado. now se usa para calcular los minutos restantes.
func RenderOTP(msg OTPMessage, now time.Time) (Rendered, error) {
	label, ok := purposeLabels[msg.Purpose]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown code purpose %q", msg.Purpose)
	}
	minutes := int(msg.ExpiresAt.Sub(now).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	data := templateData{
		Name:          strings.TrimSpace(msg.Name),
		Code:          msg.Code,
		Action:        label.action,
		Title:         label.title,
		ExpiryMinutes: minutes,
		ExpiresAt:     msg.ExpiresAt.UTC().Format("2006-01-02 15:04"),
	}

	var html, text bytes.Buffer
	if err := htmlOTP.Execute(&html, data); err != nil {
		return Rendered{}, fmt.Errorf("render html: %w", err)
	}
	if err := textOTP.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("render text: %w", err)
	}
	return Rendered{
		Subject: fmt.Sprintf("Your CampusConnect %s Code", label.title),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
