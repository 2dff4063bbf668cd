package payment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

var (
	feeTypeTag  = "feetype"
	feeTypeText = "invalid fee type"

	payMethodTag  = "paymethod"
	payMethodText = "invalid payment method"

	proofRequiredTag  = "proofrequired"
	proofRequiredText = "a proof of payment is required for offline methods"

	referenceRequiredTag  = "refrequired"
	referenceRequiredText = "a transaction reference is required for online methods"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(feeTypeTag, feeTypeValidation)
	core.RegisterCustomTranslation(validate, translator, feeTypeTag, feeTypeText)

	_ = validate.RegisterValidation(payMethodTag, payMethodValidation)
	core.RegisterCustomTranslation(validate, translator, payMethodTag, payMethodText)

	validate.RegisterStructValidation(newInstallmentStructValidation, NewInstallment{})
	core.RegisterCustomTranslation(validate, translator, proofRequiredTag, proofRequiredText)
	core.RegisterCustomTranslation(validate, translator, referenceRequiredTag, referenceRequiredText)
}

func feeTypeValidation(fl validator.FieldLevel) bool {
	ft := FeeType(fl.Field().String())
	for _, known := range FeeTypes {
		if ft == known {
			return true
		}
	}
	return false
}

func payMethodValidation(fl validator.FieldLevel) bool {
	m := Method(fl.Field().String())
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// newInstallmentStructValidation checks that offline installments carry a
// proof of payment and online ones a gateway reference.
func newInstallmentStructValidation(sl validator.StructLevel) {
	ni, ok := sl.Current().Interface().(NewInstallment)
	if !ok {
		return
	}
	if ni.Method.IsOnline() {
		if ni.Reference == "" {
			sl.ReportError(ni.Reference, "reference", "Reference", referenceRequiredTag, "")
		}
	} else if ni.ProofURL == "" {
		sl.ReportError(ni.ProofURL, "proof_of_payment_url", "ProofURL", proofRequiredTag, "")
	}
}
