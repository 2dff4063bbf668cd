package gateway

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return Provider(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, "provider", "{0} must be one of: flutterwave, paystack")
}
