package sms

import "context"

// Sender delivers a one-time code to a phone. A delivery failure must abort
// the initiating flow; no session may be left open that the user cannot
// redeem.
type Sender interface {
	Send(ctx context.Context, phoneNumber, body string) error
}
