package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/student"
	"github.com/kelasi/backend/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	admissionNumber, firstName, surname, classLevel string,
) student.Student {
	t.Helper()

	now := time.Now().UTC()
	std := student.Student{
		AdmissionNumber: admissionNumber,
		FirstName:       firstName,
		Surname:         surname,
		DateOfBirth:     time.Date(2010, time.March, 14, 0, 0, 0, 0, time.UTC),
		Gender:          "female",
		ClassLevel:      classLevel,
		ParentInfo: student.ParentInfo{
			GuardianName: firstName + "'s Guardian",
			Email:        admissionNumber + "@parent.test",
		},
		CurrentSession: "2024/2025",
		CurrentTerm:    core.TermFirst,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}
