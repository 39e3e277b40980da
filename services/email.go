package services

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/smtp"
	"path/filepath"
	"strings"

	"github.com/juho05/paw-id/config"
)

// EmailMessage selects one of the token mails. The value doubles as the
// template name under emails/messages/.
type EmailMessage string

const (
	EmailVerify        EmailMessage = "verifyEmail"
	EmailPasswordReset EmailMessage = "resetPassword"
	EmailChangeConfirm EmailMessage = "changeEmail"
)

var emailSubjects = map[EmailMessage]string{
	EmailVerify:        "Verify your email address",
	EmailPasswordReset: "Reset your password",
	EmailChangeConfirm: "Confirm your new email address",
}

type EmailService interface {
	SendEmail(address string, message EmailMessage, data emailTemplateData) error
}

type emailService struct {
	auth      smtp.Auth
	templates map[EmailMessage]*template.Template
}

type emailTemplateData struct {
	Name    string
	Code    string
	BaseURL string
}

func newEmailTemplateData(name string) emailTemplateData {
	return emailTemplateData{
		Name:    name,
		BaseURL: config.BaseURL(),
	}
}

func NewEmailService(emailFS fs.FS) (EmailService, error) {
	emailAuth := smtp.PlainAuth("", config.EmailUsername(), config.EmailPassword(), strings.Split(config.EmailHost(), ":")[0])
	e := &emailService{
		auth:      emailAuth,
		templates: make(map[EmailMessage]*template.Template),
	}
	err := e.loadTemplates(emailFS)
	if err != nil {
		return nil, err
	}
	for message := range emailSubjects {
		if _, ok := e.templates[message]; !ok {
			return nil, fmt.Errorf("missing email template for %s", message)
		}
	}
	return e, nil
}

func (e *emailService) loadTemplates(emailFS fs.FS) error {
	messages, err := fs.Glob(emailFS, "messages/*.tmpl.html")
	if err != nil {
		return fmt.Errorf("find email templates: %w", err)
	}

	for _, msg := range messages {
		name := strings.TrimSuffix(filepath.Base(msg), ".tmpl.html")

		t, err := template.New(name).ParseFS(emailFS, "base.tmpl.html")
		if err != nil {
			return fmt.Errorf("parse base.tmpl.html: %w", err)
		}

		t, err = t.ParseFS(emailFS, msg)
		if err != nil {
			return fmt.Errorf("parse %s: %w", msg, err)
		}

		e.templates[EmailMessage(name)] = t
	}

	return nil
}

func (e *emailService) SendEmail(address string, message EmailMessage, data emailTemplateData) error {
	subject, ok := emailSubjects[message]
	if !ok {
		return fmt.Errorf("unknown email message '%s'", message)
	}
	t, ok := e.templates[message]
	if !ok {
		return fmt.Errorf("email template '%s' does not exist", message)
	}

	buffer := bytes.Buffer{}
	err := t.ExecuteTemplate(&buffer, "base", data)
	if err != nil {
		return fmt.Errorf("execute email template '%s': %w", message, err)
	}

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte("Subject: " + subject + "\n" + mime + "\n" + buffer.String())
	err = smtp.SendMail(config.EmailHost(), e.auth, config.EmailUsername(), []string{address}, msg)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
