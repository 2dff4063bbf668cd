package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/payment"
	"github.com/kelasi/backend/core/student"
	"github.com/kelasi/backend/storage/database/dummy"
	"github.com/kelasi/backend/tests"
)

func setup(t *testing.T) (*payment.Service, student.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	stdRepo := dummydb.NewStudentRepository(db)
	svc := payment.NewService(
		dummydb.NewPaymentRepository(db),
		stdRepo,
		dummydb.NewSchoolRepository(db),
		nil, /* mailSvc */
		nil, /* log */
		&core.Config{},
	)
	return svc, stdRepo
}

func newInstallment(studentID string, amount float64) payment.NewInstallment {
	return payment.NewInstallment{
		StudentID:   studentID,
		FeeType:     payment.FeeTuition,
		Session:     "2024/2025",
		Term:        core.TermFirst,
		TotalAmount: 50000,
		Amount:      amount,
		Method:      payment.MethodCash,
	}
}

func TestService_RecordInstallment(t *testing.T) {
	ctx := context.Background()
	svc, stdRepo := setup(t)
	std := testutil.CreateStudent(t, stdRepo, "ADM-001", "Ada", "Obi", "JSS1")

	pmt, err := svc.RecordInstallment(ctx, newInstallment(std.ID, 20000))
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	if pmt.ID == "" {
		t.Fatal("expected payment to be created")
	}
	if len(pmt.Installments) != 1 {
		t.Fatalf("len(Installments) = %d, want 1", len(pmt.Installments))
	}
	if pmt.Installments[0].Approved {
		t.Error("new installment must start unapproved")
	}
	if pmt.Balance != 30000 || pmt.Status != payment.StatusPartPayment {
		t.Errorf("Balance = %v, Status = %v; want 30000, part-payment", pmt.Balance, pmt.Status)
	}

	// same obligation key appends, never duplicates the payment
	pmt2, err := svc.RecordInstallment(ctx, newInstallment(std.ID, 30000))
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	if pmt2.ID != pmt.ID {
		t.Errorf("expected same payment, got %q and %q", pmt.ID, pmt2.ID)
	}
	if len(pmt2.Installments) != 2 {
		t.Fatalf("len(Installments) = %d, want 2", len(pmt2.Installments))
	}
	if pmt2.Balance != 0 || pmt2.Status != payment.StatusPaid {
		t.Errorf("Balance = %v, Status = %v; want 0, paid", pmt2.Balance, pmt2.Status)
	}

	// a different term is a separate obligation
	ni := newInstallment(std.ID, 10000)
	ni.Term = core.TermSecond
	pmt3, err := svc.RecordInstallment(ctx, ni)
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	if pmt3.ID == pmt.ID {
		t.Error("expected a new payment for a different term")
	}
}

func TestService_RecordInstallment_unknownStudent(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.RecordInstallment(context.Background(), newInstallment("nope", 100)); err == nil {
		t.Error("expected error for unknown student")
	}
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()
	svc, stdRepo := setup(t)
	std := testutil.CreateStudent(t, stdRepo, "ADM-002", "Ben", "Eze", "JSS2")

	pmt, err := svc.RecordInstallment(ctx, newInstallment(std.ID, 20000))
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	instID := pmt.Installments[0].ID

	sibling := newInstallment(std.ID, 15000)
	sibling.Method = payment.MethodPaystack
	sibling.Reference = "KLS-sibling"
	pmt, err = svc.RecordInstallment(ctx, sibling)
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	siblingID := pmt.Installments[1].ID

	before := time.Now().UTC()
	pmt, err = svc.Approve(ctx, pmt.ID, instID, "bursar-1")
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	inst := pmt.FindInstallment(instID)
	if !inst.Approved || inst.ApprovedBy != "bursar-1" {
		t.Errorf("installment = %+v; want approved by bursar-1", inst)
	}
	if inst.ApprovedAt == nil || inst.ApprovedAt.Before(before) {
		t.Errorf("ApprovedAt = %v, want >= %v", inst.ApprovedAt, before)
	}
	approvedAt := *inst.ApprovedAt

	// a second approval fails and never touches the original record
	if _, err = svc.Approve(ctx, pmt.ID, instID, "bursar-2"); err != payment.ErrInstallmentApproved {
		t.Fatalf("Approve() error = %v, want %v", err, payment.ErrInstallmentApproved)
	}
	pmt, err = svc.GetByID(ctx, pmt.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	inst = pmt.FindInstallment(instID)
	if inst.ApprovedBy != "bursar-1" || !inst.ApprovedAt.Equal(approvedAt) {
		t.Errorf("installment = %+v; original approver/timestamp must survive", inst)
	}

	// the sibling installment is untouched throughout
	sib := pmt.FindInstallment(siblingID)
	if sib.Approved || sib.ApprovedBy != "" || sib.ApprovedAt != nil {
		t.Errorf("sibling installment = %+v; want unapproved", sib)
	}
}

func TestService_Approve_installmentNotFound(t *testing.T) {
	ctx := context.Background()
	svc, stdRepo := setup(t)
	std := testutil.CreateStudent(t, stdRepo, "ADM-003", "Cal", "Ude", "JSS3")

	pmt, err := svc.RecordInstallment(ctx, newInstallment(std.ID, 100))
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	if _, err = svc.Approve(ctx, pmt.ID, "nope", "bursar-1"); err != payment.ErrInstallmentNotFound {
		t.Errorf("Approve() error = %v, want %v", err, payment.ErrInstallmentNotFound)
	}
}

func TestService_ApproveByReference(t *testing.T) {
	ctx := context.Background()
	svc, stdRepo := setup(t)
	std := testutil.CreateStudent(t, stdRepo, "ADM-004", "Dan", "Oku", "SS1")

	ni := newInstallment(std.ID, 20000)
	ni.Method = payment.MethodPaystack
	ni.Reference = "KLS-abc"
	if _, err := svc.RecordInstallment(ctx, ni); err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}

	pmt, err := svc.ApproveByReference(ctx, "KLS-abc")
	if err != nil {
		t.Fatalf("ApproveByReference() failed: %v", err)
	}
	inst := pmt.FindInstallmentByReference("KLS-abc")
	if !inst.Approved || inst.ApprovedBy != payment.SystemApprover {
		t.Errorf("installment = %+v; want approved by %q", inst, payment.SystemApprover)
	}
	approvedAt := *inst.ApprovedAt

	// redelivery is a no-op, not an error
	pmt, err = svc.ApproveByReference(ctx, "KLS-abc")
	if err != nil {
		t.Fatalf("ApproveByReference() redelivery failed: %v", err)
	}
	inst = pmt.FindInstallmentByReference("KLS-abc")
	if !inst.ApprovedAt.Equal(approvedAt) {
		t.Errorf("ApprovedAt = %v, want %v untouched", inst.ApprovedAt, approvedAt)
	}

	if _, err = svc.ApproveByReference(ctx, "nope"); err != payment.ErrNotFound {
		t.Errorf("ApproveByReference() error = %v, want %v", err, payment.ErrNotFound)
	}
}

func TestService_StudentBalance(t *testing.T) {
	ctx := context.Background()
	svc, stdRepo := setup(t)
	std := testutil.CreateStudent(t, stdRepo, "ADM-005", "Efe", "Ibe", "SS2")

	if _, err := svc.StudentBalance(ctx, std.ID); err != payment.ErrNotFound {
		t.Errorf("StudentBalance() error = %v, want %v", err, payment.ErrNotFound)
	}

	pmt, err := svc.RecordInstallment(ctx, newInstallment(std.ID, 20000))
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	ni := newInstallment(std.ID, 5000)
	ni.FeeType = payment.FeeExam
	ni.TotalAmount = 10000
	if _, err = svc.RecordInstallment(ctx, ni); err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	if _, err = svc.Approve(ctx, pmt.ID, pmt.Installments[0].ID, "bursar-1"); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	sum, err := svc.StudentBalance(ctx, std.ID)
	if err != nil {
		t.Fatalf("StudentBalance() failed: %v", err)
	}
	want := payment.BalanceSummary{
		StudentID:     std.ID,
		TotalFees:     60000,
		TotalPaid:     25000,
		TotalApproved: 20000,
		Balance:       35000,
	}
	if sum != want {
		t.Errorf("StudentBalance() = %+v, want %+v", sum, want)
	}
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, stdRepo := setup(t)
	ada := testutil.CreateStudent(t, stdRepo, "ADM-006", "Ada", "Obi", "JSS1")
	ben := testutil.CreateStudent(t, stdRepo, "ADM-007", "Ben", "Eze", "JSS1")

	if _, err := svc.RecordInstallment(ctx, newInstallment(ada.ID, 50000)); err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	if _, err := svc.RecordInstallment(ctx, newInstallment(ben.ID, 10000)); err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}

	sum, err := svc.Summary(ctx, "2024/2025", core.TermFirst)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	want := payment.FeesSummary{
		TotalFeesExpected: 100000,
		TotalPaid:         60000,
		TotalBalance:      40000,
		FullyPaidCount:    1,
		PartPaymentCount:  1,
	}
	if sum != want {
		t.Errorf("Summary() = %+v, want %+v", sum, want)
	}

	debtors, err := svc.Debtors(ctx, "2024/2025", core.TermFirst)
	if err != nil {
		t.Fatalf("Debtors() failed: %v", err)
	}
	if len(debtors) != 1 {
		t.Fatalf("len(Debtors()) = %d, want 1", len(debtors))
	}
	if debtors[0].StudentName != "Ben Eze" || debtors[0].Payment.Balance != 40000 {
		t.Errorf("Debtors()[0] = %+v, want Ben Eze owing 40000", debtors[0])
	}
}

func TestService_ReceiptData(t *testing.T) {
	ctx := context.Background()
	svc, stdRepo := setup(t)
	std := testutil.CreateStudent(t, stdRepo, "ADM-008", "Gia", "Ani", "SS3")

	pmt, err := svc.RecordInstallment(ctx, newInstallment(std.ID, 20000))
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	instID := pmt.Installments[0].ID

	if _, err = svc.ReceiptData(ctx, pmt.ID, instID); err != payment.ErrInstallmentUnapproved {
		t.Fatalf("ReceiptData() error = %v, want %v", err, payment.ErrInstallmentUnapproved)
	}

	if _, err = svc.Approve(ctx, pmt.ID, instID, "bursar-1"); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	rcpt, err := svc.ReceiptData(ctx, pmt.ID, instID)
	if err != nil {
		t.Fatalf("ReceiptData() failed: %v", err)
	}
	if rcpt.StudentName != "Gia Ani" || rcpt.AmountPaid != 20000 || rcpt.Balance != 30000 {
		t.Errorf("ReceiptData() = %+v", rcpt)
	}
	if rcpt.ApprovedBy != "bursar-1" {
		t.Errorf("ApprovedBy = %q, want bursar-1", rcpt.ApprovedBy)
	}
}
