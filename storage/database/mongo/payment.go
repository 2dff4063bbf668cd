package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/payment"
)

type paymentRepository struct {
	coll *mongo.Collection
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *mongo.Database) payment.Repository {
	return &paymentRepository{coll: db.Collection(paymentsCollection)}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	pmt.ID = newID()
	if _, err := repo.coll.InsertOne(ctx, pmt); err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(ctx context.Context, id string) (payment.Payment, error) {
	var pmt payment.Payment
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&pmt)
	if err == mongo.ErrNoDocuments {
		return payment.Payment{}, payment.ErrNotFound
	}
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "getting payment")
	}
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByKey(
	ctx context.Context, studentID string, ft payment.FeeType, session string, term core.Term,
) (payment.Payment, error) {
	filter := bson.M{
		"student_id": studentID,
		"fee_type":   ft,
		"session":    session,
		"term":       term,
	}
	var pmt payment.Payment
	err := repo.coll.FindOne(ctx, filter).Decode(&pmt)
	if err == mongo.ErrNoDocuments {
		return payment.Payment{}, payment.ErrNotFound
	}
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "getting payment by key")
	}
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByReference(ctx context.Context, ref string) (payment.Payment, error) {
	var pmt payment.Payment
	err := repo.coll.FindOne(ctx, bson.M{"installments.reference": ref}).Decode(&pmt)
	if err == mongo.ErrNoDocuments {
		return payment.Payment{}, payment.ErrNotFound
	}
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "getting payment by reference")
	}
	return pmt, nil
}

func (repo *paymentRepository) SavePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": pmt.ID}, pmt)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "saving payment")
	}
	if res.MatchedCount == 0 {
		return payment.Payment{}, payment.ErrNotFound
	}
	return pmt, nil
}

// SaveApproval updates the approved installment in place. The filter only
// matches while the installment is still unapproved, so a concurrent
// approval cannot overwrite the first approver.
func (repo *paymentRepository) SaveApproval(ctx context.Context, pmt payment.Payment, installmentID string) (payment.Payment, error) {
	inst := pmt.FindInstallment(installmentID)
	if inst == nil {
		return payment.Payment{}, payment.ErrInstallmentNotFound
	}

	filter := bson.M{
		"_id": pmt.ID,
		"installments": bson.M{
			"$elemMatch": bson.M{"id": installmentID, "approved": false},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"installments.$.approved":    true,
			"installments.$.approved_by": inst.ApprovedBy,
			"installments.$.approved_at": inst.ApprovedAt,
			"balance":                    pmt.Balance,
			"status":                     pmt.Status,
			"updated_at":                 time.Now().UTC(),
		},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "approving installment")
	}
	if res.MatchedCount == 0 {
		// either the payment is gone or the installment is already approved
		current, err := repo.GetPaymentByID(ctx, pmt.ID)
		if err != nil {
			return payment.Payment{}, err
		}
		if cur := current.FindInstallment(installmentID); cur != nil && cur.Approved {
			return payment.Payment{}, payment.ErrInstallmentApproved
		}
		return payment.Payment{}, payment.ErrInstallmentNotFound
	}
	return repo.GetPaymentByID(ctx, pmt.ID)
}

func (repo *paymentRepository) FilterPayments(ctx context.Context, filter payment.QueryFilter) ([]payment.Payment, error) {
	query := bson.M{}
	if filter.StudentID != "" {
		query["student_id"] = filter.StudentID
	}
	if filter.Session != "" {
		query["session"] = filter.Session
	}
	if filter.Term != "" {
		query["term"] = filter.Term
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.FeeType != "" {
		query["fee_type"] = filter.FeeType
	}

	cursor, err := repo.coll.Find(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "filtering payments")
	}
	var payments []payment.Payment
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, errors.Wrap(err, "decoding payments")
	}
	return payments, nil
}
