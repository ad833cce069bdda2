// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// # Transactional Templates

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #2b2b2b;">
  <h2>Welcome to Domora, {{.Name}}!</h2>
  <p>Please confirm your email address to activate your account.</p>
  <p>
    <a href="{{.Link}}" style="display:inline-block;padding:12px 24px;background:#2f6fed;color:#ffffff;text-decoration:none;border-radius:6px;">
      Verify my email
    </a>
  </p>
  <p>This link expires in {{.ExpiryMinutes}} minutes. If you did not create an account, you can safely ignore this email.</p>
  <p>— The Domora Team</p>
</body>
</html>`))

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #2b2b2b;">
  <h2>Password reset requested</h2>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset the password for your Domora account.</p>
  <p>
    <a href="{{.Link}}" style="display:inline-block;padding:12px 24px;background:#2f6fed;color:#ffffff;text-decoration:none;border-radius:6px;">
      Reset my password
    </a>
  </p>
  <p>This link expires in {{.ExpiryMinutes}} minutes. If you did not request a reset, no action is needed and your password remains unchanged.</p>
  <p>— The Domora Team</p>
</body>
</html>`))

type templateData struct {
	Name          string
	Link          string
	ExpiryMinutes int
}

/*
EnqueueVerification renders and enqueues the email-verification message.

Parameters:
  - to: Recipient email address
  - name: Recipient display name
  - link: Fully-qualified verification URL (embeds the one-time token)
  - expiryMinutes: Link lifetime shown to the user
*/
func (mailer *Mailer) EnqueueVerification(to, name, link string, expiryMinutes int) error {
	body, err := renderTemplate(verificationTemplate, templateData{
		Name:          name,
		Link:          link,
		ExpiryMinutes: expiryMinutes,
	})
	if err != nil {
		return err
	}

	return mailer.Enqueue(Message{
		To:       to,
		ToName:   name,
		Subject:  "Verify your Domora account",
		HTMLBody: body,
	})
}

/*
EnqueuePasswordReset renders and enqueues the password-reset message.
*/
func (mailer *Mailer) EnqueuePasswordReset(to, name, link string, expiryMinutes int) error {
	body, err := renderTemplate(passwordResetTemplate, templateData{
		Name:          name,
		Link:          link,
		ExpiryMinutes: expiryMinutes,
	})
	if err != nil {
		return err
	}

	return mailer.Enqueue(Message{
		To:       to,
		ToName:   name,
		Subject:  "Reset your Domora password",
		HTMLBody: body,
	})
}

// renderTemplate executes a template into a string body.
func renderTemplate(tmpl *template.Template, data templateData) (string, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, data); err != nil {
		return "", fmt.Errorf("mailer_template_render_failed: %w", err)
	}
	return buffer.String(), nil
}
