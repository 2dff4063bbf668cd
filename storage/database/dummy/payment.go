package dummydb

import (
	"context"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/payment"
)

type paymentRepository struct {
	db *paymentTable
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payment}
}

func (repo *paymentRepository) query() []payment.Payment {
	payments := make([]payment.Payment, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		payments = append(payments, clone(*p))
	}
	return payments
}

// clone deep-copies the installment list so callers cannot mutate stored
// state through the returned slice.
func clone(pmt payment.Payment) payment.Payment {
	installments := make([]payment.Installment, len(pmt.Installments))
	copy(installments, pmt.Installments)
	pmt.Installments = installments
	return pmt
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pmt.ID = nextID()
	stored := clone(pmt)
	repo.db.table[pmt.ID] = &stored
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(ctx context.Context, id string) (payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pmt, ok := repo.db.table[id]; ok {
		return clone(*pmt), nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) GetPaymentByKey(
	ctx context.Context, studentID string, ft payment.FeeType, session string, term core.Term,
) (payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, pmt := range repo.db.table {
		if pmt.StudentID == studentID && pmt.FeeType == ft && pmt.Session == session && pmt.Term == term {
			return clone(*pmt), nil
		}
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) GetPaymentByReference(ctx context.Context, ref string) (payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, pmt := range repo.db.table {
		if pmt.FindInstallmentByReference(ref) != nil {
			return clone(*pmt), nil
		}
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) SavePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[pmt.ID]; !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	stored := clone(pmt)
	repo.db.table[pmt.ID] = &stored
	return pmt, nil
}

func (repo *paymentRepository) SaveApproval(ctx context.Context, pmt payment.Payment, installmentID string) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[pmt.ID]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	origInst := orig.FindInstallment(installmentID)
	if origInst == nil {
		return payment.Payment{}, payment.ErrInstallmentNotFound
	}
	if origInst.Approved {
		return payment.Payment{}, payment.ErrInstallmentApproved
	}

	newInst := pmt.FindInstallment(installmentID)
	origInst.Approved = true
	origInst.ApprovedBy = newInst.ApprovedBy
	origInst.ApprovedAt = newInst.ApprovedAt
	orig.Balance = pmt.Balance
	orig.Status = pmt.Status
	orig.UpdatedAt = pmt.UpdatedAt
	return clone(*orig), nil
}

func (repo *paymentRepository) FilterPayments(ctx context.Context, filter payment.QueryFilter) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := repo.query()

	if filter.StudentID != "" {
		var filtered []payment.Payment
		for _, p := range payments {
			if p.StudentID == filter.StudentID {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}
	if payments != nil && filter.Session != "" {
		var filtered []payment.Payment
		for _, p := range payments {
			if p.Session == filter.Session {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}
	if payments != nil && filter.Term != "" {
		var filtered []payment.Payment
		for _, p := range payments {
			if p.Term == filter.Term {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}
	if payments != nil && filter.Status != "" {
		var filtered []payment.Payment
		for _, p := range payments {
			if p.Status == filter.Status {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}
	if payments != nil && filter.FeeType != "" {
		var filtered []payment.Payment
		for _, p := range payments {
			if p.FeeType == filter.FeeType {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}

	return payments, nil
}
