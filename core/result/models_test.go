package result

import "testing"

func TestFinalScore(t *testing.T) {
	tests := []struct {
		name     string
		ca, exam float64
		want     int
	}{
		{name: "zero scores", want: 0},
		{name: "perfect scores", ca: 100, exam: 100, want: 100},
		{name: "weights applied", ca: 40, exam: 100, want: 76},
		{name: "weights applied low", ca: 20, exam: 50, want: 38},
		{name: "rounds half up", ca: 73.75, exam: 0, want: 30}, // 29.5
		{name: "rounds down", ca: 73, exam: 0, want: 29},       // 29.2
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FinalScore(tt.ca, tt.exam); got != tt.want {
				t.Errorf("FinalScore(%v, %v) = %v, want %v", tt.ca, tt.exam, got, tt.want)
			}
		})
	}
}

func TestGradeOf(t *testing.T) {
	tests := []struct {
		total int
		want  GradeInfo
	}{
		{100, GradeInfo{GradeA, "Excellent", 5}},
		{70, GradeInfo{GradeA, "Excellent", 5}},
		{69, GradeInfo{GradeB, "Very Good", 4}},
		{60, GradeInfo{GradeB, "Very Good", 4}},
		{59, GradeInfo{GradeC, "Good", 3}},
		{50, GradeInfo{GradeC, "Good", 3}},
		{49, GradeInfo{GradeD, "Pass", 2}},
		{45, GradeInfo{GradeD, "Pass", 2}},
		{44, GradeInfo{GradeE, "Poor", 1}},
		{40, GradeInfo{GradeE, "Poor", 1}},
		{39, GradeInfo{GradeF, "Fail", 0}},
		{0, GradeInfo{GradeF, "Fail", 0}},
	}
	for _, tt := range tests {
		if got := GradeOf(tt.total); got != tt.want {
			t.Errorf("GradeOf(%d) = %+v, want %+v", tt.total, got, tt.want)
		}
	}
}

func TestResult_Recompute(t *testing.T) {
	fl := func(v float64) *float64 { return &v }

	t.Run("both scores present", func(t *testing.T) {
		res := Result{CA: fl(40), Exam: fl(100)}
		res.Recompute()
		if res.Total == nil || *res.Total != 76 {
			t.Fatalf("Total = %v, want 76", res.Total)
		}
		if res.Grade == nil || res.Grade.Grade != GradeA {
			t.Errorf("Grade = %+v, want A", res.Grade)
		}
	})

	t.Run("missing exam clears derived fields", func(t *testing.T) {
		total := 76
		grade := GradeOf(total)
		res := Result{CA: fl(40), Total: &total, Grade: &grade}
		res.Recompute()
		if res.Total != nil || res.Grade != nil {
			t.Errorf("Total = %v, Grade = %+v; want both nil", res.Total, res.Grade)
		}
	})

	t.Run("zero scores still grade", func(t *testing.T) {
		res := Result{CA: fl(0), Exam: fl(0)}
		res.Recompute()
		if res.Total == nil || *res.Total != 0 {
			t.Fatalf("Total = %v, want 0", res.Total)
		}
		if res.Grade == nil || res.Grade.Grade != GradeF {
			t.Errorf("Grade = %+v, want F", res.Grade)
		}
	})
}
