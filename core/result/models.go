package result

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

// Continuous assessment counts 40% of the final score, the exam 60%.
const (
	CAWeight   = 0.4
	ExamWeight = 0.6
)

// MaxCA is the ceiling of the continuous assessment component; exams are
// marked out of 100.
const MaxCA = 40

// Grade bands
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// GradeInfo pairs a grade with its remark and point value.
type GradeInfo struct {
	Grade  Grade  `json:"grade" bson:"grade"`
	Remark string `json:"remark" bson:"remark"`
	Point  int    `json:"point" bson:"point"`
}

// FinalScore combines a CA and an exam score into the weighted total,
// rounded half away from zero to the nearest integer.
func FinalScore(ca, exam float64) int {
	return int(math.Round(ca*CAWeight + exam*ExamWeight))
}

// GradeOf maps a total score to its band. Bands are inclusive at their
// lower bound: 70 and above is an A, 40 the lowest passing-adjacent E.
func GradeOf(total int) GradeInfo {
	switch {
	case total >= 70:
		return GradeInfo{GradeA, "Excellent", 5}
	case total >= 60:
		return GradeInfo{GradeB, "Very Good", 4}
	case total >= 50:
		return GradeInfo{GradeC, "Good", 3}
	case total >= 45:
		return GradeInfo{GradeD, "Pass", 2}
	case total >= 40:
		return GradeInfo{GradeE, "Poor", 1}
	default:
		return GradeInfo{GradeF, "Fail", 0}
	}
}

// Score types
type ScoreType string

const (
	ScoreCA   ScoreType = "ca"
	ScoreExam ScoreType = "exam"
)

var ScoreTypes = []ScoreType{ScoreCA, ScoreExam}

// Result is a student's record for one subject in a session/term. CA and
// exam scores arrive independently; the total and grade are derived once
// both are present and refreshed on every save.
type Result struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	StudentID string     `json:"student_id" bson:"student_id"`
	Subject   string     `json:"subject" bson:"subject"`
	Session   string     `json:"session" bson:"session"`
	Term      core.Term  `json:"term" bson:"term"`
	CA        *float64   `json:"ca_score,omitempty" bson:"ca_score,omitempty"`
	Exam      *float64   `json:"exam_score,omitempty" bson:"exam_score,omitempty"`
	Total     *int       `json:"total,omitempty" bson:"total,omitempty"`
	Grade     *GradeInfo `json:"grade_info,omitempty" bson:"grade_info,omitempty"`
	TeacherID string     `json:"teacher_id,omitempty" bson:"teacher_id,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"` // UTC
}

// Recompute derives Total and Grade from the recorded scores. A result with
// either score missing has no total and no grade.
func (r *Result) Recompute() {
	if r.CA == nil || r.Exam == nil {
		r.Total = nil
		r.Grade = nil
		return
	}
	total := FinalScore(*r.CA, *r.Exam)
	info := GradeOf(total)
	r.Total = &total
	r.Grade = &info
}

// NewScore contains information needed to enter one score.
type NewScore struct {
	StudentID string    `json:"student_id" validate:"required"`
	Subject   string    `json:"subject" validate:"required"`
	Session   string    `json:"session" validate:"required,session"`
	Term      core.Term `json:"term" validate:"required,term"`
	Type      ScoreType `json:"type" validate:"required,scoretype"`
	Score     float64   `json:"score" validate:"gte=0,lte=100"`
}

func (ns *NewScore) Validate(validate *validator.Validate) error {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.Subject = core.CleanString(ns.Subject)
	ns.Session = core.CleanString(ns.Session)
	return validate.Struct(ns)
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	StudentID string    `query:"student_id"`
	Session   string    `query:"session"`
	Term      core.Term `query:"term"`
	Subject   string    `query:"subject"`
}
