package payment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/school"
	"github.com/kelasi/backend/core/student"
)

var (
	// errors
	ErrNotFound              = core.NewNotFoundError("payment")
	ErrInstallmentNotFound   = core.NewNotFoundError("installment")
	ErrInstallmentApproved   = errors.New("this installment is already approved")
	ErrInstallmentUnapproved = errors.New("approved installment not found")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		GetPaymentByID(ctx context.Context, id string) (Payment, error)
		// GetPaymentByKey fetches the unique Payment for the obligation key.
		GetPaymentByKey(ctx context.Context, studentID string, ft FeeType, session string, term core.Term) (Payment, error)
		// GetPaymentByReference fetches the unique Payment owning an
		// installment whose gateway reference matches.
		GetPaymentByReference(ctx context.Context, ref string) (Payment, error)
		// SavePayment replaces the stored document. Callers must have run
		// Recompute; the Service is the only caller.
		SavePayment(ctx context.Context, pmt Payment) (Payment, error)
		// SaveApproval persists an installment approval. Implementations
		// must make the unapproved->approved transition conditional so a
		// concurrent approval of the same installment loses with
		// ErrInstallmentApproved instead of silently overwriting.
		SaveApproval(ctx context.Context, pmt Payment, installmentID string) (Payment, error)
		FilterPayments(ctx context.Context, filter QueryFilter) ([]Payment, error)
	}

	Service struct {
		repo     Repository
		students student.Repository
		schools  school.Repository
		mailSvc  core.EmailService
		log      core.Logger
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	students student.Repository,
	schools school.Repository,
	mailSvc core.EmailService,
	log core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		students: students,
		schools:  schools,
		mailSvc:  mailSvc,
		log:      log,
		conf:     conf,
	}
}

// SystemApprover marks installments approved by a verified gateway callback.
const SystemApprover = "system"

// RecordInstallment appends a new unapproved installment to the Payment for
// (student, fee type, session, term), creating the Payment if none exists.
// The new installment does not change balance or status until approved... it
// does count towards the recorded total (see Recompute).
func (svc *Service) RecordInstallment(ctx context.Context, ni NewInstallment) (Payment, error) {
	if _, err := svc.students.GetStudentByID(ctx, ni.StudentID); err != nil {
		return Payment{}, err
	}

	inst := Installment{
		ID:        newInstallmentID(),
		Amount:    ni.Amount,
		Date:      time.Now().UTC(),
		Method:    ni.Method,
		Reference: ni.Reference,
		ProofURL:  ni.ProofURL,
	}

	pmt, err := svc.repo.GetPaymentByKey(ctx, ni.StudentID, ni.FeeType, ni.Session, ni.Term)
	switch err {
	case nil:
		pmt.Installments = append(pmt.Installments, inst)
		pmt.UpdatedAt = inst.Date
		pmt.Recompute()
		return svc.repo.SavePayment(ctx, pmt)
	case ErrNotFound:
		pmt = Payment{
			StudentID:    ni.StudentID,
			FeeType:      ni.FeeType,
			Description:  ni.Description,
			Session:      ni.Session,
			Term:         ni.Term,
			TotalAmount:  ni.TotalAmount,
			Installments: []Installment{inst},
			CreatedAt:    inst.Date,
			UpdatedAt:    inst.Date,
		}
		pmt.Recompute()
		return svc.repo.CreatePayment(ctx, pmt)
	default:
		return Payment{}, err
	}
}

// Approve marks an installment approved on behalf of approverID.
// Approving an already-approved installment fails with ErrInstallmentApproved
// and never touches the original approver or timestamp.
func (svc *Service) Approve(ctx context.Context, paymentID, installmentID, approverID string) (Payment, error) {
	pmt, err := svc.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	inst := pmt.FindInstallment(installmentID)
	if inst == nil {
		return Payment{}, ErrInstallmentNotFound
	}
	if inst.Approved {
		return Payment{}, ErrInstallmentApproved
	}

	now := time.Now().UTC()
	inst.Approved = true
	inst.ApprovedBy = approverID
	inst.ApprovedAt = &now
	pmt.UpdatedAt = now
	pmt.Recompute()

	pmt, err = svc.repo.SaveApproval(ctx, pmt, installmentID)
	if err != nil {
		return Payment{}, err
	}

	svc.sendReceiptMail(ctx, pmt, *inst)
	return pmt, nil
}

// ApproveByReference approves the installment carrying a verified gateway
// reference. Unlike Approve it is idempotent: an already-approved installment
// is a no-op so providers can redeliver events safely.
func (svc *Service) ApproveByReference(ctx context.Context, ref string) (Payment, error) {
	pmt, err := svc.repo.GetPaymentByReference(ctx, ref)
	if err != nil {
		return Payment{}, err
	}
	inst := pmt.FindInstallmentByReference(ref)
	if inst == nil {
		return Payment{}, ErrInstallmentNotFound
	}
	if inst.Approved {
		return pmt, nil
	}

	now := time.Now().UTC()
	inst.Approved = true
	inst.ApprovedBy = SystemApprover
	inst.ApprovedAt = &now
	pmt.UpdatedAt = now
	pmt.Recompute()

	pmt, err = svc.repo.SaveApproval(ctx, pmt, inst.ID)
	if err == ErrInstallmentApproved {
		// lost the race to a concurrent delivery; same outcome
		return svc.repo.GetPaymentByReference(ctx, ref)
	}
	if err != nil {
		return Payment{}, err
	}

	svc.sendReceiptMail(ctx, pmt, *inst)
	return pmt, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPaymentByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Payment, error) {
	return svc.repo.FilterPayments(ctx, filter)
}

// BalanceSummary is the per-student view across every fee obligation.
type BalanceSummary struct {
	StudentID     string  `json:"student_id"`
	TotalFees     float64 `json:"total_fees"`
	TotalPaid     float64 `json:"total_paid"`
	TotalApproved float64 `json:"total_approved"`
	Balance       float64 `json:"balance"`
}

// StudentBalance sums fees and recorded installments across every Payment of
// a student. TotalPaid counts all recorded installments; TotalApproved only
// approved ones.
func (svc *Service) StudentBalance(ctx context.Context, studentID string) (BalanceSummary, error) {
	if _, err := svc.students.GetStudentByID(ctx, studentID); err != nil {
		return BalanceSummary{}, err
	}
	payments, err := svc.repo.FilterPayments(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return BalanceSummary{}, err
	}
	if len(payments) == 0 {
		return BalanceSummary{}, ErrNotFound
	}

	sum := BalanceSummary{StudentID: studentID}
	for _, pmt := range payments {
		sum.TotalFees += pmt.TotalAmount
		sum.TotalPaid += pmt.RecordedTotal()
		sum.TotalApproved += pmt.ApprovedTotal()
	}
	sum.Balance = sum.TotalFees - sum.TotalPaid
	return sum, nil
}

// FeesSummary aggregates the fee position of a session/term.
type FeesSummary struct {
	TotalFeesExpected float64 `json:"total_fees_expected"`
	TotalPaid         float64 `json:"total_paid"`
	TotalApproved     float64 `json:"total_approved"`
	TotalBalance      float64 `json:"total_balance"`
	FullyPaidCount    int     `json:"fully_paid_count"`
	PartPaymentCount  int     `json:"part_payment_count"`
	PendingCount      int     `json:"pending_count"`
}

func (svc *Service) Summary(ctx context.Context, session string, term core.Term) (FeesSummary, error) {
	payments, err := svc.repo.FilterPayments(ctx, QueryFilter{Session: session, Term: term})
	if err != nil {
		return FeesSummary{}, err
	}

	var sum FeesSummary
	for _, pmt := range payments {
		sum.TotalFeesExpected += pmt.TotalAmount
		sum.TotalPaid += pmt.RecordedTotal()
		sum.TotalApproved += pmt.ApprovedTotal()
		switch pmt.Status {
		case StatusPaid:
			sum.FullyPaidCount++
		case StatusPartPayment:
			sum.PartPaymentCount++
		case StatusPending:
			sum.PendingCount++
		}
	}
	sum.TotalBalance = sum.TotalFeesExpected - sum.TotalPaid
	return sum, nil
}

// ClassSummary is the fee position of one class level.
type ClassSummary struct {
	ClassLevel        string  `json:"class_level"`
	TotalFeesExpected float64 `json:"total_fees_expected"`
	TotalPaid         float64 `json:"total_paid"`
	TotalApproved     float64 `json:"total_approved"`
	Balance           float64 `json:"balance"`
}

func (svc *Service) ClassSummaries(ctx context.Context, session string, term core.Term) ([]ClassSummary, error) {
	payments, err := svc.repo.FilterPayments(ctx, QueryFilter{Session: session, Term: term})
	if err != nil {
		return nil, err
	}

	byClass := make(map[string]*ClassSummary)
	var order []string
	for _, pmt := range payments {
		cls := "unknown"
		if std, err := svc.students.GetStudentByID(ctx, pmt.StudentID); err == nil {
			cls = std.ClassLevel
		}
		sum, ok := byClass[cls]
		if !ok {
			sum = &ClassSummary{ClassLevel: cls}
			byClass[cls] = sum
			order = append(order, cls)
		}
		sum.TotalFeesExpected += pmt.TotalAmount
		sum.TotalPaid += pmt.RecordedTotal()
		sum.TotalApproved += pmt.ApprovedTotal()
		sum.Balance += pmt.Balance
	}

	summaries := make([]ClassSummary, 0, len(order))
	for _, cls := range order {
		summaries = append(summaries, *byClass[cls])
	}
	return summaries, nil
}

// Debtor is a Payment with an outstanding balance, joined with its student.
type Debtor struct {
	Payment         Payment `json:"payment"`
	StudentName     string  `json:"student_name"`
	AdmissionNumber string  `json:"admission_number"`
	ClassLevel      string  `json:"class_level"`
}

func (svc *Service) Debtors(ctx context.Context, session string, term core.Term) ([]Debtor, error) {
	payments, err := svc.repo.FilterPayments(ctx, QueryFilter{Session: session, Term: term})
	if err != nil {
		return nil, err
	}

	var debtors []Debtor
	for _, pmt := range payments {
		if pmt.Balance <= 0 {
			continue
		}
		d := Debtor{Payment: pmt}
		if std, err := svc.students.GetStudentByID(ctx, pmt.StudentID); err == nil {
			d.StudentName = std.FullName()
			d.AdmissionNumber = std.AdmissionNumber
			d.ClassLevel = std.ClassLevel
		}
		debtors = append(debtors, d)
	}
	return debtors, nil
}

// Receipt is the data backing a printed receipt for one approved installment.
type Receipt struct {
	ReceiptID       string    `json:"receipt_id"`
	Date            time.Time `json:"date"`
	StudentName     string    `json:"student_name"`
	AdmissionNumber string    `json:"admission_number"`
	ClassLevel      string    `json:"class_level"`
	FeeType         FeeType   `json:"fee_type"`
	Description     string    `json:"description,omitempty"`
	Session         string    `json:"session"`
	Term            core.Term `json:"term"`
	Method          Method    `json:"method"`
	Reference       string    `json:"reference,omitempty"`
	AmountPaid      float64   `json:"amount_paid"`
	TotalAmount     float64   `json:"total_amount"`
	Balance         float64   `json:"balance"`
	SchoolName      string    `json:"school_name"`
	SchoolAddress   string    `json:"school_address"`
	SchoolMotto     string    `json:"school_motto,omitempty"`
	ApprovedBy      string    `json:"approved_by"`
}

// ReceiptData assembles receipt data for an approved installment.
// Unapproved installments have no receipt.
func (svc *Service) ReceiptData(ctx context.Context, paymentID, installmentID string) (Receipt, error) {
	pmt, err := svc.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return Receipt{}, err
	}
	inst := pmt.FindInstallment(installmentID)
	if inst == nil {
		return Receipt{}, ErrInstallmentNotFound
	}
	if !inst.Approved {
		return Receipt{}, ErrInstallmentUnapproved
	}

	rcpt := Receipt{
		ReceiptID:   inst.ID,
		Date:        *inst.ApprovedAt,
		FeeType:     pmt.FeeType,
		Description: pmt.Description,
		Session:     pmt.Session,
		Term:        pmt.Term,
		Method:      inst.Method,
		Reference:   inst.Reference,
		AmountPaid:  inst.Amount,
		TotalAmount: pmt.TotalAmount,
		Balance:     pmt.Balance,
		ApprovedBy:  inst.ApprovedBy,
	}
	if std, err := svc.students.GetStudentByID(ctx, pmt.StudentID); err == nil {
		rcpt.StudentName = std.FullName()
		rcpt.AdmissionNumber = std.AdmissionNumber
		rcpt.ClassLevel = std.ClassLevel
	}
	if info, err := svc.schools.GetInfo(ctx); err == nil {
		rcpt.SchoolName = info.Name
		rcpt.SchoolAddress = info.Address
		rcpt.SchoolMotto = info.Motto
	}
	return rcpt, nil
}

// sendReceiptMail notifies the student's parent contact of an approved
// installment. Failures are logged, never surfaced: the approval stands.
func (svc *Service) sendReceiptMail(ctx context.Context, pmt Payment, inst Installment) {
	if svc.mailSvc == nil {
		return
	}
	std, err := svc.students.GetStudentByID(ctx, pmt.StudentID)
	if err != nil || std.ParentInfo.Email == "" {
		return
	}

	body := fmt.Sprintf(
		"A payment of %.2f for %s (%s term, %s) on behalf of %s has been confirmed.\n"+
			"Outstanding balance: %.2f",
		inst.Amount, pmt.FeeType, pmt.Term, pmt.Session, std.FullName(), pmt.Balance,
	)
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: std.ParentInfo.GuardianName, Address: std.ParentInfo.Email}},
		Subject:     "Payment confirmed",
		TextContent: body,
	}
	svc.mailSvc.SendMessages(msg)

	if svc.log != nil {
		svc.log.Info(fmt.Sprintf("receipt mail queued for installment %s", inst.ID))
	}
}
