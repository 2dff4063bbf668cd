package result

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

var (
	scoreTypeTag  = "scoretype"
	scoreTypeText = "{0} must be one of: ca, exam"

	caBoundTag  = "cabound"
	caBoundText = "a continuous assessment score is marked out of 40"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(scoreTypeTag, scoreTypeValidation)
	core.RegisterCustomTranslation(validate, translator, scoreTypeTag, scoreTypeText)

	validate.RegisterStructValidation(newScoreStructValidation, NewScore{})
	core.RegisterCustomTranslation(validate, translator, caBoundTag, caBoundText)
}

func scoreTypeValidation(fl validator.FieldLevel) bool {
	st := ScoreType(fl.Field().String())
	for _, known := range ScoreTypes {
		if st == known {
			return true
		}
	}
	return false
}

// newScoreStructValidation caps continuous assessment scores at MaxCA; the
// field-level bounds only cover the exam range.
func newScoreStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewScore)
	if !ok {
		return
	}
	if ns.Type == ScoreCA && ns.Score > MaxCA {
		sl.ReportError(ns.Score, "score", "Score", caBoundTag, "")
	}
}
