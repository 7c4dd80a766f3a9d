package mailer

import "github.com/tixhive/auth-api/pkg/logger"

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendRecoveryCode(toEmail, toName, code string) error {
	logger.Info("[DEV MAIL] Recovery code",
		"to", toEmail,
		"name", toName,
		"code", code,
	)
	return nil
}
