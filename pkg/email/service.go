package email

import (
	"fmt"

	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Service handles email sending
type Service struct {
	fromEmail   string
	fromName    string
	baseURL     string
	sendGridKey string
	useSendGrid bool
	log         logger.Logger
}

// NewService creates a new email service.
// Without a SendGrid key, emails are only logged (development mode).
func NewService(fromEmail, fromName, baseURL, sendGridAPIKey string, log logger.Logger) *Service {
	useSendGrid := sendGridAPIKey != ""
	if useSendGrid {
		log.Info("email service initialized with SendGrid")
	} else {
		log.Warn("email service in console-only mode, set SENDGRID_API_KEY to send emails")
	}

	return &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		baseURL:     baseURL,
		sendGridKey: sendGridAPIKey,
		useSendGrid: useSendGrid,
		log:         log,
	}
}

// VerificationURL is the link a new user follows to confirm their address
func (s *Service) VerificationURL(token string) string {
	return fmt.Sprintf("%s/verify-email/%s", s.baseURL, token)
}

// ResetURL is the link a user follows to choose a new password
func (s *Service) ResetURL(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", s.baseURL, token)
}

// SendVerificationEmail sends an email verification link
func (s *Service) SendVerificationEmail(toEmail, toName, token string) error {
	verificationURL := s.VerificationURL(token)

	subject := "Confirme seu e-mail no ObraMap"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Bem-vindo ao ObraMap!</h2>
			<p>Olá %s,</p>
			<p>Confirme seu endereço de e-mail clicando no botão abaixo:</p>
			<p><a href="%s" style="background-color: #1d4ed8; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Confirmar e-mail</a></p>
			<p>Ou copie e cole este link no navegador:</p>
			<p><a href="%s">%s</a></p>
			<p><strong>O link expira em 24 horas.</strong></p>
			<p>Se você não criou uma conta, ignore esta mensagem.</p>
		</body>
		</html>
	`, toName, verificationURL, verificationURL, verificationURL)

	plainText := fmt.Sprintf(`
Olá %s,

Bem-vindo ao ObraMap! Confirme seu endereço de e-mail pelo link abaixo:

%s

O link expira em 24 horas.

Se você não criou uma conta, ignore esta mensagem.
	`, toName, verificationURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}
	return s.logEmailToConsole(toEmail, toName, subject, verificationURL)
}

// SendPasswordResetEmail sends a password reset link
func (s *Service) SendPasswordResetEmail(toEmail, toName, token string) error {
	resetURL := s.ResetURL(token)

	subject := "Redefinição de senha do ObraMap"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Redefinição de senha</h2>
			<p>Olá %s,</p>
			<p>Recebemos um pedido para redefinir a senha da sua conta.</p>
			<p><a href="%s" style="background-color: #1d4ed8; color: white; padding: 14px 20px; text-decoration: none; border-radius: 4px; display: inline-block;">Redefinir senha</a></p>
			<p>Ou copie e cole este link no navegador:</p>
			<p><a href="%s">%s</a></p>
			<p><strong>O link expira em 1 hora.</strong></p>
			<p>Se você não pediu a redefinição, ignore esta mensagem. Sua senha continua a mesma.</p>
		</body>
		</html>
	`, toName, resetURL, resetURL, resetURL)

	plainText := fmt.Sprintf(`
Olá %s,

Recebemos um pedido para redefinir a senha da sua conta. Use o link abaixo:

%s

O link expira em 1 hora.

Se você não pediu a redefinição, ignore esta mensagem.
	`, toName, resetURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}
	return s.logEmailToConsole(toEmail, toName, subject, resetURL)
}

// SendWelcomeEmail sends a welcome email after verification
func (s *Service) SendWelcomeEmail(toEmail, toName string) error {
	subject := "Sua conta no ObraMap está ativa"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Tudo pronto!</h2>
			<p>Olá %s,</p>
			<p>Seu e-mail foi confirmado. Entre no ObraMap para começar a mapear suas obras.</p>
			<p><a href="%s/login">Entrar</a></p>
		</body>
		</html>
	`, toName, s.baseURL)

	plainText := fmt.Sprintf(`
Olá %s,

Seu e-mail foi confirmado. Entre no ObraMap para começar a mapear suas obras:
%s/login
	`, toName, s.baseURL)

	if s.useSendGrid {
		return s.sendViaSendGrid(toEmail, toName, subject, body, plainText)
	}
	return s.logEmailToConsole(toEmail, toName, subject, s.baseURL+"/login")
}

// sendViaSendGrid sends email using SendGrid API
func (s *Service) sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	client := sendgrid.NewSendClient(s.sendGridKey)
	response, err := client.Send(message)
	if err != nil {
		s.log.Error("sendgrid error", "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		s.log.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	s.log.Info("email sent", "to", toEmail, "status", response.StatusCode)
	return nil
}

// logEmailToConsole logs email details (development mode)
func (s *Service) logEmailToConsole(toEmail, toName, subject, actionURL string) error {
	s.log.Info("email not sent (development mode)",
		"subject", subject,
		"to", fmt.Sprintf("%s <%s>", toName, toEmail),
		"from", fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		"action_url", actionURL,
	)
	return nil
}
