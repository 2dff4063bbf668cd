package result

import (
	"context"
	"time"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/student"
)

var ErrNotFound = core.NewNotFoundError("result")

type (
	Repository interface {
		CreateResult(ctx context.Context, res Result) (Result, error)
		// GetResultByKey fetches the unique Result for
		// (student, subject, session, term).
		GetResultByKey(ctx context.Context, studentID, subject, session string, term core.Term) (Result, error)
		SaveResult(ctx context.Context, res Result) (Result, error)
		FilterResults(ctx context.Context, filter QueryFilter) ([]Result, error)
	}

	Service struct {
		repo     Repository
		students student.Repository
		log      core.Logger
	}
)

func NewService(repo Repository, students student.Repository, log core.Logger) *Service {
	return &Service{repo: repo, students: students, log: log}
}

// EnterScore records a CA or exam score, creating the Result on first entry.
// Re-entering a score type overwrites the previous value; the total and
// grade are re-derived on every save.
func (svc *Service) EnterScore(ctx context.Context, ns NewScore, teacherID string) (Result, error) {
	if _, err := svc.students.GetStudentByID(ctx, ns.StudentID); err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	res, err := svc.repo.GetResultByKey(ctx, ns.StudentID, ns.Subject, ns.Session, ns.Term)
	switch err {
	case nil:
	case ErrNotFound:
		res = Result{
			StudentID: ns.StudentID,
			Subject:   ns.Subject,
			Session:   ns.Session,
			Term:      ns.Term,
			CreatedAt: now,
		}
	default:
		return Result{}, err
	}

	switch ns.Type {
	case ScoreCA:
		res.CA = &ns.Score
	case ScoreExam:
		res.Exam = &ns.Score
	}
	res.TeacherID = teacherID
	res.UpdatedAt = now
	res.Recompute()

	if res.ID == "" {
		return svc.repo.CreateResult(ctx, res)
	}
	return svc.repo.SaveResult(ctx, res)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Result, error) {
	return svc.repo.FilterResults(ctx, filter)
}

// TermReport is a student's full set of results for a session/term with the
// aggregate figures a report card prints.
type TermReport struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	ClassLevel  string    `json:"class_level"`
	Session     string    `json:"session"`
	Term        core.Term `json:"term"`
	Results     []Result  `json:"results"`
	Average     float64   `json:"average"`
	GradePoints int       `json:"grade_points"`
}

// StudentReport assembles a student's report for one session/term. Subjects
// still missing a score are included without a grade; the average covers
// graded subjects only.
func (svc *Service) StudentReport(ctx context.Context, studentID, session string, term core.Term) (TermReport, error) {
	std, err := svc.students.GetStudentByID(ctx, studentID)
	if err != nil {
		return TermReport{}, err
	}
	results, err := svc.repo.FilterResults(ctx, QueryFilter{StudentID: studentID, Session: session, Term: term})
	if err != nil {
		return TermReport{}, err
	}
	if len(results) == 0 {
		return TermReport{}, ErrNotFound
	}

	report := TermReport{
		StudentID:   studentID,
		StudentName: std.FullName(),
		ClassLevel:  std.ClassLevel,
		Session:     session,
		Term:        term,
		Results:     results,
	}
	var graded int
	var sum float64
	for _, res := range results {
		if res.Total == nil {
			continue
		}
		graded++
		sum += float64(*res.Total)
		report.GradePoints += res.Grade.Point
	}
	if graded > 0 {
		report.Average = sum / float64(graded)
	}
	return report, nil
}
