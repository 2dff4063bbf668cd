package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Provider API hosts. Overridable in tests.
var (
	FlutterwaveBaseURL = "https://api.flutterwave.com/v3"
	PaystackBaseURL    = "https://api.paystack.co"
)

const clientTimeout = 10 * time.Second

// VerifiedTransaction is the provider-confirmed view of a charge, reduced to
// what reconciliation needs.
type VerifiedTransaction struct {
	Reference string
	Amount    float64
	Currency  string
	Status    string
}

// ChargeLink is a provider-hosted checkout for one installment.
type ChargeLink struct {
	Provider    Provider `json:"provider"`
	Reference   string   `json:"reference"`
	CheckoutURL string   `json:"checkout_url"`
}

// Client talks to the provider REST APIs. All calls carry a bounded timeout
// so a slow provider cannot hold a webhook worker indefinitely.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: clientTimeout}}
}

func (c *Client) do(ctx context.Context, method, url, secretKey string, body, out interface{}) error {
	var buf *bytes.Buffer
	if body != nil {
		buf = new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, buf)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("provider returned %s", resp.Status)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decoding provider response")
}

// VerifyFlutterwaveTransaction re-fetches a charge by its Flutterwave
// transaction id. Webhook payloads are never trusted on their own.
func (c *Client) VerifyFlutterwaveTransaction(ctx context.Context, secretKey string, txID int64) (VerifiedTransaction, error) {
	var out struct {
		Status string `json:"status"`
		Data   struct {
			TxRef    string  `json:"tx_ref"`
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
			Status   string  `json:"status"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/transactions/%d/verify", FlutterwaveBaseURL, txID)
	if err := c.do(ctx, http.MethodGet, url, secretKey, nil, &out); err != nil {
		return VerifiedTransaction{}, err
	}
	return VerifiedTransaction{
		Reference: out.Data.TxRef,
		Amount:    out.Data.Amount,
		Currency:  out.Data.Currency,
		Status:    out.Data.Status,
	}, nil
}

// VerifyPaystackTransaction re-fetches a charge by reference. Paystack
// amounts are reported in kobo.
func (c *Client) VerifyPaystackTransaction(ctx context.Context, secretKey, reference string) (VerifiedTransaction, error) {
	var out struct {
		Status bool `json:"status"`
		Data   struct {
			Reference string  `json:"reference"`
			Amount    float64 `json:"amount"`
			Currency  string  `json:"currency"`
			Status    string  `json:"status"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/transaction/verify/%s", PaystackBaseURL, reference)
	if err := c.do(ctx, http.MethodGet, url, secretKey, nil, &out); err != nil {
		return VerifiedTransaction{}, err
	}
	return VerifiedTransaction{
		Reference: out.Data.Reference,
		Amount:    out.Data.Amount / 100,
		Currency:  out.Data.Currency,
		Status:    out.Data.Status,
	}, nil
}

// CreateFlutterwaveCharge opens a hosted checkout and returns its link.
func (c *Client) CreateFlutterwaveCharge(
	ctx context.Context, conf Config, reference string, amount float64, email, name string,
) (ChargeLink, error) {
	body := map[string]interface{}{
		"tx_ref":       reference,
		"amount":       amount,
		"currency":     conf.Currency,
		"redirect_url": conf.CallbackURL,
		"customer": map[string]string{
			"email": email,
			"name":  name,
		},
	}
	var out struct {
		Status string `json:"status"`
		Data   struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	url := FlutterwaveBaseURL + "/payments"
	if err := c.do(ctx, http.MethodPost, url, conf.FlutterwaveSecretKey, body, &out); err != nil {
		return ChargeLink{}, err
	}
	return ChargeLink{Provider: ProviderFlutterwave, Reference: reference, CheckoutURL: out.Data.Link}, nil
}

// CreatePaystackCharge opens a hosted checkout and returns its link.
// Paystack expects the amount in kobo.
func (c *Client) CreatePaystackCharge(
	ctx context.Context, conf Config, reference string, amount float64, email string,
) (ChargeLink, error) {
	body := map[string]interface{}{
		"reference":    reference,
		"amount":       int64(amount * 100),
		"currency":     conf.Currency,
		"email":        email,
		"callback_url": conf.CallbackURL,
	}
	var out struct {
		Status bool `json:"status"`
		Data   struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"data"`
	}
	url := PaystackBaseURL + "/transaction/initialize"
	if err := c.do(ctx, http.MethodPost, url, conf.PaystackSecretKey, body, &out); err != nil {
		return ChargeLink{}, err
	}
	return ChargeLink{Provider: ProviderPaystack, Reference: reference, CheckoutURL: out.Data.AuthorizationURL}, nil
}
