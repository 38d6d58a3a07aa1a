// Package daraja is a client for the Safaricom Daraja STK push API: OAuth
// token fetch with caching, payment initiation, and the callback payload
// types the webhook handler decodes. The initiating call returns only a
// CheckoutRequestID; the actual payment outcome arrives later on the
// configured callback URL.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable covers network failures, auth failures and timeouts talking
// to the gateway. Callers treat it as retryable.
var ErrUnavailable = errors.New("daraja gateway unavailable")

// Config holds Daraja API connection details.
type Config struct {
	AuthURL         string
	STKPushURL      string
	ConsumerKey     string
	ConsumerSecret  string
	Shortcode       string
	Passkey         string
	CallbackURL     string
	TransactionType string
	Timeout         time.Duration
}

// Client is a Daraja API client. It caches the OAuth access token until
// shortly before expiry and is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a new Daraja client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TransactionType == "" {
		cfg.TransactionType = "CustomerPayBillOnline"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken returns a cached token or fetches a fresh one. Tokens are
// refreshed a minute before their reported expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("auth request returned %d (%s): %w", resp.StatusCode, strings.TrimSpace(string(body)), ErrUnavailable)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w: %v", ErrUnavailable, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("auth response missing access_token: %w", ErrUnavailable)
	}

	expiresIn := 3599
	if n, err := parseExpiry(tok.ExpiresIn); err == nil {
		expiresIn = n
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	return c.token, nil
}

func parseExpiry(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// password builds the Base64 shortcode+passkey+timestamp credential the STK
// push endpoint requires.
func password(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

// ValidPhone reports whether the payer phone is in the 254XXXXXXXXX form
// Daraja accepts.
func ValidPhone(phone string) bool {
	if len(phone) != 12 || !strings.HasPrefix(phone, "254") {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ErrorMessage        string `json:"errorMessage"`
}

// InitiateSTKPush sends a payment prompt to the payer's phone and returns the
// provider-issued CheckoutRequestID used to match the later callback. The
// amount is rounded to whole shillings as the API requires.
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount float64, accountRef, description string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102150405")
	payload := stkPushRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   c.cfg.TransactionType,
		Amount:            int(amount + 0.5),
		PartyA:            phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal STK push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.STKPushURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build STK push request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("STK push request failed: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out stkPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode STK push response: %w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := out.ErrorMessage
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("STK push returned %d (%s): %w", resp.StatusCode, msg, ErrUnavailable)
	}
	if out.ResponseCode != "0" {
		return "", fmt.Errorf("STK push rejected (%s): %w", out.ResponseDescription, ErrUnavailable)
	}
	if out.CheckoutRequestID == "" {
		return "", fmt.Errorf("STK push response missing CheckoutRequestID: %w", ErrUnavailable)
	}
	return out.CheckoutRequestID, nil
}

// Callback result codes Daraja reports for non-successful payments.
const (
	ResultSuccess         = "0"
	ResultInsufficient    = "1"
	ResultCancelledByUser = "1032"
	ResultTimeout         = "1037"
)

// CallbackPayload is the JSON body Daraja POSTs to the callback URL.
type CallbackPayload struct {
	Body struct {
		STKCallback struct {
			MerchantRequestID string            `json:"MerchantRequestID"`
			CheckoutRequestID string            `json:"CheckoutRequestID"`
			ResultCode        json.Number       `json:"ResultCode"`
			ResultDesc        string            `json:"ResultDesc"`
			CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// CallbackMetadata holds the name/value items a successful callback carries.
type CallbackMetadata struct {
	Item []struct {
		Name  string      `json:"Name"`
		Value interface{} `json:"Value"`
	} `json:"Item"`
}

// CheckoutRequestID extracts the correlation token.
func (p *CallbackPayload) CheckoutRequestID() string {
	return p.Body.STKCallback.CheckoutRequestID
}

// ResultCode returns the result code as a string ("0" is success).
func (p *CallbackPayload) ResultCode() string {
	return p.Body.STKCallback.ResultCode.String()
}

// ResultDesc returns the provider's human-readable result description.
func (p *CallbackPayload) ResultDesc() string {
	return p.Body.STKCallback.ResultDesc
}

// Success reports whether the payment went through.
func (p *CallbackPayload) Success() bool {
	return p.ResultCode() == ResultSuccess
}

// ReceiptNumber extracts the MpesaReceiptNumber from the metadata, empty if
// absent.
func (p *CallbackPayload) ReceiptNumber() string {
	meta := p.Body.STKCallback.CallbackMetadata
	if meta == nil {
		return ""
	}
	for _, item := range meta.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Ack is the fixed acknowledgement body returned to Daraja for every
// callback delivery, regardless of internal processing outcome. Erroring at
// the provider risks the endpoint being blacklisted and retried forever.
type Ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Accepted is the acknowledgement every callback delivery receives.
func Accepted() Ack {
	return Ack{ResultCode: 0, ResultDesc: "Accepted"}
}
