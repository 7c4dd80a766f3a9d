package sms

import (
	"context"

	"github.com/tixhive/auth-api/pkg/logger"
)

// DevSender logs messages instead of sending them.
type DevSender struct{}

func NewDevSender() *DevSender {
	return &DevSender{}
}

func (d *DevSender) Send(ctx context.Context, phoneNumber, body string) error {
	logger.InfoContext(ctx, "[DEV SMS]",
		"to", phoneNumber,
		"body", body,
	)
	return nil
}
