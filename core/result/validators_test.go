package result

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

func newTestValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewScore_Validate(t *testing.T) {
	validate := newTestValidator()

	tests := []struct {
		name    string
		typ     ScoreType
		score   float64
		wantErr bool
	}{
		{name: "ca within range", typ: ScoreCA, score: 35},
		{name: "ca at the cap", typ: ScoreCA, score: 40},
		{name: "ca above the cap", typ: ScoreCA, score: 41, wantErr: true},
		{name: "ca way above the cap", typ: ScoreCA, score: 100, wantErr: true},
		{name: "exam full marks", typ: ScoreExam, score: 100},
		{name: "exam above range", typ: ScoreExam, score: 101, wantErr: true},
		{name: "negative score", typ: ScoreCA, score: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := NewScore{
				StudentID: "std-1",
				Subject:   "Mathematics",
				Session:   "2024/2025",
				Term:      core.TermFirst,
				Type:      tt.typ,
				Score:     tt.score,
			}
			if err := ns.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
