package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kelasi/backend/core"
)

type (
	// ParentInfo holds the contact details of a student's parent or guardian.
	ParentInfo struct {
		FatherName   string `json:"father_name,omitempty" bson:"father_name,omitempty"`
		MotherName   string `json:"mother_name,omitempty" bson:"mother_name,omitempty"`
		GuardianName string `json:"guardian_name,omitempty" bson:"guardian_name,omitempty"`
		PhoneNumber  string `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
		Email        string `json:"email,omitempty" bson:"email,omitempty"`
		Address      string `json:"address,omitempty" bson:"address,omitempty"`
	}

	Student struct {
		ID              string     `json:"id" bson:"_id,omitempty"`
		AdmissionNumber string     `json:"admission_number" bson:"admission_number"`
		FirstName       string     `json:"first_name" bson:"first_name"`
		Surname         string     `json:"surname" bson:"surname"`
		MiddleName      string     `json:"middle_name,omitempty" bson:"middle_name,omitempty"`
		DateOfBirth     time.Time  `json:"date_of_birth" bson:"date_of_birth"`
		Gender          string     `json:"gender" bson:"gender"`
		ClassLevel      string     `json:"class_level" bson:"class_level"`
		Section         string     `json:"section,omitempty" bson:"section,omitempty"`
		StateOfOrigin   string     `json:"state_of_origin,omitempty" bson:"state_of_origin,omitempty"`
		Nationality     string     `json:"nationality,omitempty" bson:"nationality,omitempty"`
		ParentInfo      ParentInfo `json:"parent_info" bson:"parent_info"`
		CurrentSession  string     `json:"current_session" bson:"current_session"`
		CurrentTerm     core.Term  `json:"current_term" bson:"current_term"`
		CreatedAt       time.Time  `json:"created_at" bson:"created_at"` // UTC
		UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"` // UTC
	}
)

func (s Student) FullName() string {
	if s.MiddleName != "" {
		return s.FirstName + " " + s.MiddleName + " " + s.Surname
	}
	return s.FirstName + " " + s.Surname
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	AdmissionNumber string    `json:"admission_number" validate:"required"`
	FirstName       string    `json:"first_name" validate:"required"`
	Surname         string    `json:"surname" validate:"required"`
	MiddleName      string    `json:"middle_name"`
	DateOfBirth     time.Time `json:"date_of_birth" validate:"required"`
	Gender          string    `json:"gender" validate:"required,oneof=male female"`
	ClassLevel      string    `json:"class_level" validate:"required"`
	Section         string    `json:"section"`
	StateOfOrigin   string    `json:"state_of_origin"`
	Nationality     string    `json:"nationality"`
	FatherName      string    `json:"father_name"`
	MotherName      string    `json:"mother_name"`
	GuardianName    string    `json:"guardian_name"`
	PhoneNumber     string    `json:"phone_number"`
	Email           string    `json:"email" validate:"omitempty,email"`
	Address         string    `json:"address"`
	CurrentSession  string    `json:"current_session" validate:"required,session"`
	CurrentTerm     core.Term `json:"current_term" validate:"required,term"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.AdmissionNumber = core.CleanString(ns.AdmissionNumber)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.Surname = core.CleanString(ns.Surname)
	ns.MiddleName = core.CleanString(ns.MiddleName)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.ClassLevel = core.CleanString(ns.ClassLevel)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// QueryFilter applies AND operation on available fields.
// Search does a case-insensitive match on one of FirstName, Surname or AdmissionNumber.
type QueryFilter struct {
	Search     string `query:"search"`
	ClassLevel string `query:"class_level"`
	Session    string `query:"session"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.ClassLevel == "" && qf.Session == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassLevel = core.CleanString(qf.ClassLevel)
	qf.Session = core.CleanString(qf.Session)
}
