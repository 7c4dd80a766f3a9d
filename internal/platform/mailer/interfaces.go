package mailer

// Service delivers account emails. Email is a secondary channel: recovery
// codes go out by SMS always, and by email additionally when the account has
// one on file.
type Service interface {
	SendRecoveryCode(toEmail, toName, code string) error
}
