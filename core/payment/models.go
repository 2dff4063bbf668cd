package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kelasi/backend/core"
)

// Fee types
type FeeType string

const (
	FeeTuition   FeeType = "tuition"
	FeeAdmission FeeType = "admission"
	FeeExam      FeeType = "exam"
	FeeParty     FeeType = "party"
	FeeOther     FeeType = "other"
)

var FeeTypes = []FeeType{FeeTuition, FeeAdmission, FeeExam, FeeParty, FeeOther}

// Payment methods
type Method string

const (
	MethodBankTransfer Method = "bank-transfer"
	MethodPOS          Method = "pos"
	MethodCash         Method = "cash"
	MethodFlutterwave  Method = "flutterwave"
	MethodPaystack     Method = "paystack"
)

var Methods = []Method{MethodBankTransfer, MethodPOS, MethodCash, MethodFlutterwave, MethodPaystack}

// IsOnline reports whether the method settles through a payment gateway.
func (m Method) IsOnline() bool {
	return m == MethodFlutterwave || m == MethodPaystack
}

// Payment statuses; derived from the installment list, never set directly.
type Status string

const (
	StatusPending     Status = "pending"
	StatusPartPayment Status = "part-payment"
	StatusPaid        Status = "paid"
)

// Installment is one recorded payment attempt within a Payment.
// It is created unapproved and transitions to approved exactly once,
// either by an admin or by a verified gateway callback.
type Installment struct {
	ID         string     `json:"id" bson:"id"`
	Amount     float64    `json:"amount" bson:"amount"`
	Date       time.Time  `json:"date" bson:"date"` // UTC
	Method     Method     `json:"method" bson:"method"`
	Reference  string     `json:"reference,omitempty" bson:"reference,omitempty"` // gateway transaction reference
	ProofURL   string     `json:"proof_of_payment_url,omitempty" bson:"proof_of_payment_url,omitempty"`
	Approved   bool       `json:"approved" bson:"approved"`
	ApprovedBy string     `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" bson:"approved_at,omitempty"` // UTC
}

// Payment is the authoritative record of what a student owes and has paid
// for a given (student, fee type, session, term).
type Payment struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	StudentID    string        `json:"student_id" bson:"student_id"`
	FeeType      FeeType       `json:"fee_type" bson:"fee_type"`
	Description  string        `json:"description,omitempty" bson:"description,omitempty"`
	Session      string        `json:"session" bson:"session"` // e.g. "2024/2025"
	Term         core.Term     `json:"term" bson:"term"`
	TotalAmount  float64       `json:"total_amount" bson:"total_amount"`
	Installments []Installment `json:"installments" bson:"installments"`
	Balance      float64       `json:"balance" bson:"balance"`
	Status       Status        `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"` // UTC
}

// Recompute derives Balance and Status from the installment list.
// Every recorded installment counts, approved or not; ApprovedTotal exposes
// the approved-only figure for reporting.
// Recompute must run before every persistence of a Payment.
func (p *Payment) Recompute() {
	paid := p.RecordedTotal()
	p.Balance = p.TotalAmount - paid

	switch {
	case paid == 0:
		p.Status = StatusPending
	case paid < p.TotalAmount:
		p.Status = StatusPartPayment
	default:
		p.Status = StatusPaid
	}
}

// RecordedTotal sums every installment regardless of approval.
func (p *Payment) RecordedTotal() float64 {
	var sum float64
	for _, inst := range p.Installments {
		sum += inst.Amount
	}
	return sum
}

// ApprovedTotal sums approved installments only.
func (p *Payment) ApprovedTotal() float64 {
	var sum float64
	for _, inst := range p.Installments {
		if inst.Approved {
			sum += inst.Amount
		}
	}
	return sum
}

// FindInstallment returns a pointer into p.Installments; nil when absent.
func (p *Payment) FindInstallment(id string) *Installment {
	for i := range p.Installments {
		if p.Installments[i].ID == id {
			return &p.Installments[i]
		}
	}
	return nil
}

// FindInstallmentByReference returns a pointer into p.Installments; nil when absent.
func (p *Payment) FindInstallmentByReference(ref string) *Installment {
	if ref == "" {
		return nil
	}
	for i := range p.Installments {
		if p.Installments[i].Reference == ref {
			return &p.Installments[i]
		}
	}
	return nil
}

func newInstallmentID() string { return uuid.New().String() }

// NewInstallment contains information needed to record an installment,
// creating the owning Payment if it does not exist yet.
type NewInstallment struct {
	StudentID   string    `json:"student_id" validate:"required"`
	FeeType     FeeType   `json:"fee_type" validate:"required,feetype"`
	Description string    `json:"description"`
	Session     string    `json:"session" validate:"required,session"`
	Term        core.Term `json:"term" validate:"required,term"`
	TotalAmount float64   `json:"total_amount" validate:"required,gt=0"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	Method      Method    `json:"method" validate:"required,paymethod"`
	Reference   string    `json:"reference"`
	ProofURL    string    `json:"proof_of_payment_url"`
}

func (ni *NewInstallment) Validate(validate *validator.Validate) error {
	ni.StudentID = core.CleanString(ni.StudentID)
	ni.Session = core.CleanString(ni.Session)
	ni.Reference = core.CleanString(ni.Reference)
	ni.ProofURL = core.CleanString(ni.ProofURL)
	return validate.Struct(ni)
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	StudentID string    `query:"student_id"`
	Session   string    `query:"session"`
	Term      core.Term `query:"term"`
	Status    Status    `query:"status"`
	FeeType   FeeType   `query:"fee_type"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Session == "" && qf.Term == "" && qf.Status == "" && qf.FeeType == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Session = core.CleanString(qf.Session)
}
