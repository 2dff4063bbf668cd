package gateway

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

// Supported payment providers
type Provider string

const (
	ProviderFlutterwave Provider = "flutterwave"
	ProviderPaystack    Provider = "paystack"
)

var Providers = []Provider{ProviderFlutterwave, ProviderPaystack}

func (p Provider) IsValid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

var (
	ErrBadSignature    = errors.New("webhook signature verification failed")
	ErrConfigNotFound  = core.NewNotFoundError("gateway configuration")
	ErrProviderUnknown = errors.New("unknown payment provider")
)

// Config is the school's single gateway configuration document. Secret keys
// never leave the backend; webhook verification compares against them as
// stored, with no normalization.
type Config struct {
	ID                   string   `json:"id" bson:"_id,omitempty"`
	ActiveProvider       Provider `json:"active_provider" bson:"active_provider"`
	Currency             string   `json:"currency" bson:"currency"`
	CallbackURL          string   `json:"callback_url" bson:"callback_url"`
	FlutterwavePublicKey string   `json:"flutterwave_public_key" bson:"flutterwave_public_key"`
	FlutterwaveSecretKey string   `json:"-" bson:"flutterwave_secret_key"`
	FlutterwaveHash      string   `json:"-" bson:"flutterwave_hash"` // value expected in verif-hash
	PaystackPublicKey    string   `json:"paystack_public_key" bson:"paystack_public_key"`
	PaystackSecretKey    string   `json:"-" bson:"paystack_secret_key"`
}

const DefaultCurrency = "NGN"

type ConfigRepository interface {
	GetConfig(ctx context.Context) (Config, error)
	SaveConfig(ctx context.Context, conf Config) (Config, error)
}

// UpdateConfig contains information needed to change gateway settings.
// Empty key fields leave the stored keys untouched.
type UpdateConfig struct {
	ActiveProvider       Provider `json:"active_provider" validate:"required,provider"`
	Currency             string   `json:"currency"`
	CallbackURL          string   `json:"callback_url" validate:"omitempty,url"`
	FlutterwavePublicKey string   `json:"flutterwave_public_key"`
	FlutterwaveSecretKey string   `json:"flutterwave_secret_key"`
	FlutterwaveHash      string   `json:"flutterwave_hash"`
	PaystackPublicKey    string   `json:"paystack_public_key"`
	PaystackSecretKey    string   `json:"paystack_secret_key"`
}

func (uc *UpdateConfig) Validate(validate *validator.Validate) error {
	uc.Currency = core.CleanString(uc.Currency)
	uc.CallbackURL = core.CleanString(uc.CallbackURL)
	return validate.Struct(uc)
}
