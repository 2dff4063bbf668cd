package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/payment"
	"github.com/kelasi/backend/core/student"
)

// Ledger is the slice of the payment service the reconciler drives.
type Ledger interface {
	RecordInstallment(ctx context.Context, ni payment.NewInstallment) (payment.Payment, error)
	ApproveByReference(ctx context.Context, ref string) (payment.Payment, error)
}

type Service struct {
	repo     ConfigRepository
	ledger   Ledger
	students student.Repository
	client   *Client
	log      core.Logger
}

func NewService(repo ConfigRepository, ledger Ledger, students student.Repository, client *Client, log core.Logger) *Service {
	if client == nil {
		client = NewClient()
	}
	return &Service{repo: repo, ledger: ledger, students: students, client: client, log: log}
}

func (svc *Service) Config(ctx context.Context) (Config, error) {
	return svc.repo.GetConfig(ctx)
}

// UpdateConfig applies new gateway settings, creating the singleton document
// on first use. Empty key fields keep their stored values.
func (svc *Service) UpdateConfig(ctx context.Context, uc UpdateConfig) (Config, error) {
	conf, err := svc.repo.GetConfig(ctx)
	if err != nil && err != ErrConfigNotFound {
		return Config{}, err
	}

	conf.ActiveProvider = uc.ActiveProvider
	if uc.Currency != "" {
		conf.Currency = uc.Currency
	}
	if conf.Currency == "" {
		conf.Currency = DefaultCurrency
	}
	if uc.CallbackURL != "" {
		conf.CallbackURL = uc.CallbackURL
	}
	if uc.FlutterwavePublicKey != "" {
		conf.FlutterwavePublicKey = uc.FlutterwavePublicKey
	}
	if uc.FlutterwaveSecretKey != "" {
		conf.FlutterwaveSecretKey = uc.FlutterwaveSecretKey
	}
	if uc.FlutterwaveHash != "" {
		conf.FlutterwaveHash = uc.FlutterwaveHash
	}
	if uc.PaystackPublicKey != "" {
		conf.PaystackPublicKey = uc.PaystackPublicKey
	}
	if uc.PaystackSecretKey != "" {
		conf.PaystackSecretKey = uc.PaystackSecretKey
	}
	return svc.repo.SaveConfig(ctx, conf)
}

// InitiateCharge contains information needed to open a hosted checkout for
// an installment.
type InitiateCharge struct {
	StudentID   string          `json:"student_id" validate:"required"`
	FeeType     payment.FeeType `json:"fee_type" validate:"required,feetype"`
	Description string          `json:"description"`
	Session     string          `json:"session" validate:"required,session"`
	Term        core.Term       `json:"term" validate:"required,term"`
	TotalAmount float64         `json:"total_amount" validate:"required,gt=0"`
	Amount      float64         `json:"amount" validate:"required,gt=0"`
}

func (ic *InitiateCharge) Validate(validate *validator.Validate) error {
	ic.StudentID = core.CleanString(ic.StudentID)
	ic.Session = core.CleanString(ic.Session)
	return validate.Struct(ic)
}

// Initiate records an unapproved installment under a fresh reference and
// returns the provider checkout link. The installment stays unapproved until
// the provider's webhook settles it.
func (svc *Service) Initiate(ctx context.Context, ic InitiateCharge) (ChargeLink, error) {
	conf, err := svc.repo.GetConfig(ctx)
	if err != nil {
		return ChargeLink{}, err
	}
	std, err := svc.students.GetStudentByID(ctx, ic.StudentID)
	if err != nil {
		return ChargeLink{}, err
	}

	ref := newReference()
	var (
		method payment.Method
		link   ChargeLink
	)
	switch conf.ActiveProvider {
	case ProviderFlutterwave:
		method = payment.MethodFlutterwave
		link, err = svc.client.CreateFlutterwaveCharge(ctx, conf, ref, ic.Amount, std.ParentInfo.Email, std.FullName())
	case ProviderPaystack:
		method = payment.MethodPaystack
		link, err = svc.client.CreatePaystackCharge(ctx, conf, ref, ic.Amount, std.ParentInfo.Email)
	default:
		return ChargeLink{}, ErrProviderUnknown
	}
	if err != nil {
		return ChargeLink{}, err
	}

	_, err = svc.ledger.RecordInstallment(ctx, payment.NewInstallment{
		StudentID:   ic.StudentID,
		FeeType:     ic.FeeType,
		Description: ic.Description,
		Session:     ic.Session,
		Term:        ic.Term,
		TotalAmount: ic.TotalAmount,
		Amount:      ic.Amount,
		Method:      method,
		Reference:   ref,
	})
	if err != nil {
		return ChargeLink{}, errors.Wrap(err, "recording installment")
	}
	return link, nil
}

// HandleFlutterwaveEvent processes a Flutterwave webhook delivery.
// The verif-hash header must equal the stored secret hash exactly, compared
// in constant time; any mismatch, including a missing stored hash, returns
// ErrBadSignature. Non-settlement events and unmatched references settle
// silently so the provider stops redelivering.
func (svc *Service) HandleFlutterwaveEvent(ctx context.Context, body []byte, signature string) error {
	conf, err := svc.repo.GetConfig(ctx)
	if err != nil {
		return err
	}
	if conf.FlutterwaveHash == "" ||
		subtle.ConstantTimeCompare([]byte(signature), []byte(conf.FlutterwaveHash)) != 1 {
		return ErrBadSignature
	}

	var evt struct {
		Event string `json:"event"`
		Data  struct {
			ID     int64  `json:"id"`
			TxRef  string `json:"tx_ref"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &evt); err != nil {
		svc.info("flutterwave webhook: undecodable payload dropped")
		return nil
	}
	if evt.Event != "charge.completed" || evt.Data.Status != "successful" {
		svc.info(fmt.Sprintf("flutterwave webhook: ignoring event %q status %q", evt.Event, evt.Data.Status))
		return nil
	}

	tx, err := svc.client.VerifyFlutterwaveTransaction(ctx, conf.FlutterwaveSecretKey, evt.Data.ID)
	if err != nil {
		return errors.Wrap(err, "verifying flutterwave transaction")
	}
	if tx.Status != "successful" {
		svc.info(fmt.Sprintf("flutterwave webhook: verification returned status %q for %s", tx.Status, tx.Reference))
		return nil
	}
	return svc.settle(ctx, tx.Reference)
}

// HandlePaystackEvent processes a Paystack webhook delivery.
// The x-paystack-signature header must equal the lowercase hex HMAC-SHA512
// of the raw body keyed with the stored secret key.
func (svc *Service) HandlePaystackEvent(ctx context.Context, body []byte, signature string) error {
	conf, err := svc.repo.GetConfig(ctx)
	if err != nil {
		return err
	}
	if conf.PaystackSecretKey == "" || !validPaystackSignature(conf.PaystackSecretKey, body, signature) {
		return ErrBadSignature
	}

	var evt struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &evt); err != nil {
		svc.info("paystack webhook: undecodable payload dropped")
		return nil
	}
	if evt.Event != "charge.success" {
		svc.info(fmt.Sprintf("paystack webhook: ignoring event %q", evt.Event))
		return nil
	}

	tx, err := svc.client.VerifyPaystackTransaction(ctx, conf.PaystackSecretKey, evt.Data.Reference)
	if err != nil {
		return errors.Wrap(err, "verifying paystack transaction")
	}
	if tx.Status != "success" {
		svc.info(fmt.Sprintf("paystack webhook: verification returned status %q for %s", tx.Status, tx.Reference))
		return nil
	}
	return svc.settle(ctx, tx.Reference)
}

// settle approves the installment owning the reference. A reference no
// installment carries is logged and dropped; a provider retry of an already
// approved charge is absorbed by ApproveByReference's idempotency.
func (svc *Service) settle(ctx context.Context, ref string) error {
	_, err := svc.ledger.ApproveByReference(ctx, ref)
	switch errors.Cause(err) {
	case nil:
		return nil
	case payment.ErrNotFound, payment.ErrInstallmentNotFound:
		svc.info(fmt.Sprintf("webhook: no installment matches reference %q", ref))
		return nil
	default:
		return err
	}
}

func (svc *Service) info(msg string) {
	if svc.log != nil {
		svc.log.Info(msg)
	}
}

func validPaystackSignature(secretKey string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

func newReference() string { return "KLS-" + uuid.New().String() }
