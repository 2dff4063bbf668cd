package student

import (
	"context"
	"errors"
	"time"

	"github.com/kelasi/backend/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("student")
	ErrAlreadyRegistered = errors.New("student is already registered")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// GetStudentByIdentity looks a student up by the natural key used for
		// duplicate detection on registration.
		GetStudentByIdentity(ctx context.Context, firstName, surname string, dob time.Time) (Student, error)
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Register(ctx context.Context, ns NewStudent) (Student, error) {
	if _, err := svc.repo.GetStudentByIdentity(ctx, ns.FirstName, ns.Surname, ns.DateOfBirth); err == nil {
		return Student{}, ErrAlreadyRegistered
	} else if err != ErrNotFound {
		return Student{}, err
	}

	now := time.Now().UTC()
	std := Student{
		AdmissionNumber: ns.AdmissionNumber,
		FirstName:       ns.FirstName,
		Surname:         ns.Surname,
		MiddleName:      ns.MiddleName,
		DateOfBirth:     ns.DateOfBirth,
		Gender:          ns.Gender,
		ClassLevel:      ns.ClassLevel,
		Section:         ns.Section,
		StateOfOrigin:   ns.StateOfOrigin,
		Nationality:     ns.Nationality,
		ParentInfo: ParentInfo{
			FatherName:   ns.FatherName,
			MotherName:   ns.MotherName,
			GuardianName: ns.GuardianName,
			PhoneNumber:  ns.PhoneNumber,
			Email:        ns.Email,
			Address:      ns.Address,
		},
		CurrentSession: ns.CurrentSession,
		CurrentTerm:    ns.CurrentTerm,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) ByClass(ctx context.Context, classLevel string) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, QueryFilter{ClassLevel: classLevel})
}
