// Package ledger is the RPC client for the external wallet ledger service.
// The transport is NATS request/reply with JSON payloads. All transport and
// remote-status failures surface as a single opaque *Error kind; callers do
// not inspect ledger-specific codes.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Request subjects understood by the ledger service.
const (
	subjectCheckAccount     = "ledger.v1.account.check"
	subjectGenerateImplicit = "ledger.v1.account.generate_implicit"
	subjectCreateAccount    = "ledger.v1.account.create"
	subjectAccountKeys      = "ledger.v1.account.keys"
	subjectAccountBalance   = "ledger.v1.account.balance"
	subjectVerifySignature  = "ledger.v1.signature.verify"
	subjectAESEncrypt       = "ledger.v1.aes.encrypt"
)

// TxStatus is the ledger's report on a submitted transaction.
type TxStatus string

const (
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

// Error wraps every failure leaving this package. One kind, on purpose.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("ledger %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// ImplicitAccount is freshly generated ledger-side key material.
type ImplicitAccount struct {
	AccountID string `json:"account_id"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
}

type CreateAccountResult struct {
	Status TxStatus `json:"status"`
	TxHash string   `json:"tx_hash"`
}

type AccountKey struct {
	PublicKey string `json:"public_key"`
}

// Client is the contract the core depends on. Implementations must serialize
// calls: one in-flight RPC per client handle.
type Client interface {
	CheckAvailableAccountID(ctx context.Context, accountID string) (bool, error)
	GenerateImplicitAccount(ctx context.Context) (*ImplicitAccount, error)
	CreateAccount(ctx context.Context, accountID, publicKey, deposit string) (*CreateAccountResult, error)
	GetAccountKeys(ctx context.Context, accountID string) ([]AccountKey, error)
	GetAccountBalance(ctx context.Context, accountID string) (string, error)
	VerifySignature(ctx context.Context, message, publicKey, signature string) (bool, error)
	AESEncrypt(ctx context.Context, secret, data string) (string, error)
}

// NATSClient talks to the ledger over NATS request/reply. The mutex enforces
// the single-in-flight-call invariant: acquire, perform exactly one RPC,
// release.
type NATSClient struct {
	mu      sync.Mutex
	conn    *nats.Conn
	timeout time.Duration
}

func NewNATSClient(conn *nats.Conn, timeout time.Duration) *NATSClient {
	return &NATSClient{conn: conn, timeout: timeout}
}

func (c *NATSClient) request(ctx context.Context, op, subject string, req, resp interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := json.Marshal(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return &Error{Op: op, Err: err}
	}

	var envelope struct {
		Error  string          `json:"error,omitempty"`
		Result json.RawMessage `json:"result,omitempty"`
	}
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return &Error{Op: op, Err: err}
	}
	if envelope.Error != "" {
		return &Error{Op: op, Err: fmt.Errorf("remote: %s", envelope.Error)}
	}
	if resp != nil {
		if err := json.Unmarshal(envelope.Result, resp); err != nil {
			return &Error{Op: op, Err: err}
		}
	}
	return nil
}

func (c *NATSClient) CheckAvailableAccountID(ctx context.Context, accountID string) (bool, error) {
	var resp struct {
		IsAvailable bool `json:"is_available"`
	}
	req := map[string]string{"account_id": accountID}
	if err := c.request(ctx, "check_available_account_id", subjectCheckAccount, req, &resp); err != nil {
		return false, err
	}
	return resp.IsAvailable, nil
}

func (c *NATSClient) GenerateImplicitAccount(ctx context.Context) (*ImplicitAccount, error) {
	var resp ImplicitAccount
	if err := c.request(ctx, "generate_implicit_account", subjectGenerateImplicit, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *NATSClient) CreateAccount(ctx context.Context, accountID, publicKey, deposit string) (*CreateAccountResult, error) {
	var resp CreateAccountResult
	req := map[string]string{
		"account_id":     accountID,
		"public_key":     publicKey,
		"deposit_amount": deposit,
	}
	if err := c.request(ctx, "create_account", subjectCreateAccount, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *NATSClient) GetAccountKeys(ctx context.Context, accountID string) ([]AccountKey, error) {
	var resp struct {
		Data []AccountKey `json:"data"`
	}
	req := map[string]string{"account_id": accountID}
	if err := c.request(ctx, "get_account_keys", subjectAccountKeys, req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *NATSClient) GetAccountBalance(ctx context.Context, accountID string) (string, error) {
	var resp struct {
		Available string `json:"available"`
	}
	req := map[string]string{"account_id": accountID}
	if err := c.request(ctx, "get_account_balance", subjectAccountBalance, req, &resp); err != nil {
		return "", err
	}
	return resp.Available, nil
}

func (c *NATSClient) VerifySignature(ctx context.Context, message, publicKey, signature string) (bool, error) {
	var resp struct {
		IsVerified bool `json:"is_verified"`
	}
	req := map[string]string{
		"message":   message,
		"pub_key":   publicKey,
		"signature": signature,
	}
	if err := c.request(ctx, "verify_signature", subjectVerifySignature, req, &resp); err != nil {
		return false, err
	}
	return resp.IsVerified, nil
}

func (c *NATSClient) AESEncrypt(ctx context.Context, secret, data string) (string, error) {
	var resp struct {
		Cipher string `json:"cipher"`
	}
	req := map[string]string{"secret": secret, "data": data}
	if err := c.request(ctx, "aes_encrypt_data", subjectAESEncrypt, req, &resp); err != nil {
		return "", err
	}
	return resp.Cipher, nil
}
