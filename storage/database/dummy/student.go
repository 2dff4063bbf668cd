package dummydb

import (
	"context"
	"strings"
	"time"

	"github.com/kelasi/backend/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, *s)
	}
	return students
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	std.ID = nextID()
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByIdentity(ctx context.Context, firstName, surname string, dob time.Time) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.query() {
		if strings.EqualFold(std.FirstName, firstName) &&
			strings.EqualFold(std.Surname, surname) &&
			std.DateOfBirth.Equal(dob) {
			return std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := repo.query()

	if filter.Search != "" {
		var filtered []student.Student
		search := strings.ToLower(filter.Search)
		for _, s := range students {
			if strings.Contains(strings.ToLower(s.FirstName), search) ||
				strings.Contains(strings.ToLower(s.Surname), search) ||
				strings.Contains(strings.ToLower(s.AdmissionNumber), search) {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}
	if students != nil && filter.ClassLevel != "" {
		var filtered []student.Student
		for _, s := range students {
			if s.ClassLevel == filter.ClassLevel {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}
	if students != nil && filter.Session != "" {
		var filtered []student.Student
		for _, s := range students {
			if s.CurrentSession == filter.Session {
				filtered = append(filtered, s)
			}
		}
		students = filtered
	}

	return students, nil
}
