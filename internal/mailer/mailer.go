// Package mailer sends transactional mail over SMTP.  Today the only mail
// the platform sends is the password-reset OTP.
package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Mailer holds the SMTP settings used to dispatch mail.
type Mailer struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Sender     string
	SenderName string
}

// New returns a Mailer for the given SMTP settings.
func New(host string, port int, username, password, sender, senderName string) *Mailer {
	return &Mailer{
		Host:       host,
		Port:       port,
		Username:   username,
		Password:   password,
		Sender:     sender,
		SenderName: senderName,
	}
}

// SendOTP mails the reset code to the address.  Failures are wrapped with
// context and surfaced to the caller; the OTP row is already written by
// then, so the client may simply retry the send.
func (m *Mailer) SendOTP(to, otp string) error {
	if m == nil || m.Host == "" {
		return fmt.Errorf("smtp is not configured")
	}
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.Sender, m.SenderName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your OTP for Password Reset")
	msg.SetBody("text/plain", "Your OTP is: "+otp)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
