package views

import (
	"database/sql"
	"testing"

	"perfection-ops/internal/models"
)

func rec(name string, session int32, attended bool, paid bool) *models.SessionRecord {
	r := &models.SessionRecord{
		StudentID:     "100",
		StudentName:   name,
		ParentNo:      "01012345678",
		SessionNumber: session,
		GroupName:     "cam1",
	}
	if attended {
		r.Attendance = 1
	}
	r.HasPayment = true
	if paid {
		r.Payment = 140
	}
	return r
}

func TestSummarize(t *testing.T) {
	records := []*models.SessionRecord{
		rec("Ahmed Ali", 4, true, true),
		rec("Ahmed Ali", 3, true, true),
		rec("Ahmed Ali", 2, false, false),
		rec("Ahmed Ali", 1, true, true),
	}
	records[0].QuizMark = sql.NullFloat64{Float64: 12, Valid: true}
	records[1].QuizMark = sql.NullFloat64{Float64: 13, Valid: true}

	summaries := Summarize(records, 140)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}

	s := summaries[0]
	if s.Attendance.Attended != 3 || s.Attendance.Total != 4 {
		t.Errorf("attendance = %+v, want 3/4", s.Attendance)
	}
	if s.Attendance.Percentage != 75 {
		t.Errorf("percentage = %d, want 75", s.Attendance.Percentage)
	}
	if s.Payments.Paid != 420 || s.Payments.Total != 560 {
		t.Errorf("payments = %+v, want paid 420 of 560", s.Payments)
	}
	if s.Quizzes.Average != 12.5 || s.Quizzes.Total != 2 {
		t.Errorf("quizzes = %+v, want average 12.5 over 2", s.Quizzes)
	}
}

func TestSummarizeGroupsByNormalizedName(t *testing.T) {
	records := []*models.SessionRecord{
		rec("Ahmed  Ali", 2, true, true),
		rec("AHMED ALI ", 1, true, true),
		rec("Sara Omar", 1, true, true),
	}
	// Identifier churn between exports must not split the student.
	records[1].StudentID = "999"

	summaries := Summarize(records, 140)
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].Attendance.Total != 2 {
		t.Errorf("restyled names not grouped together: %+v", summaries[0])
	}
	if summaries[0].StudentID != "100" {
		t.Errorf("StudentID = %q, want the newest record's id", summaries[0].StudentID)
	}
}

func TestSessionsProjection(t *testing.T) {
	lecture := rec("Ahmed Ali", 3, true, true)
	lecture.LectureName = sql.NullString{String: "Limits", Valid: true}
	lecture.StartTime = sql.NullString{String: "2024-03-15 14:30:00", Valid: true}
	lecture.HasTime = true
	lecture.QuizMark = sql.NullFloat64{Float64: 11, Valid: true}
	lecture.HomeworkStatus = sql.NullInt32{Int32: 2, Valid: true}

	exam := rec("Ahmed Ali", 8, true, false)
	exam.IsGeneralExam = true
	exam.ExamName = sql.NullString{String: "Midterm", Valid: true}
	exam.QuizMark = sql.NullFloat64{Float64: 14, Valid: true}

	vs := Sessions([]*models.SessionRecord{lecture, exam})
	if len(vs) != 2 {
		t.Fatalf("got %d views, want 2", len(vs))
	}

	lv := vs[0]
	if lv.Amount == nil || *lv.Amount != 140 {
		t.Errorf("Amount = %v, want the stored amount 140", lv.Amount)
	}
	if lv.Paid == nil || !*lv.Paid {
		t.Errorf("Paid = %v, want true", lv.Paid)
	}
	if lv.QuizMark == nil || *lv.QuizMark != 11 || lv.QuizTotal != QuizTotal {
		t.Errorf("quiz = %+v/%d, want 11 of %d", lv.QuizMark, lv.QuizTotal, QuizTotal)
	}
	if lv.StartTime != "15/03/2024 14:30:00 م" {
		t.Errorf("StartTime = %q, want display form with Arabic marker", lv.StartTime)
	}
	if lv.HomeworkDone == nil || *lv.HomeworkDone {
		t.Error("homework code 2 should project as not done")
	}

	ev := vs[1]
	if ev.QuizMark != nil {
		t.Error("unreleased exam grade should not be visible")
	}
	if ev.HomeworkDone != nil {
		t.Error("exam view should not carry a homework flag")
	}

	exam.HasExamGrade = true
	vs = Sessions([]*models.SessionRecord{exam})
	if vs[0].QuizMark == nil || *vs[0].QuizMark != 14 {
		t.Error("released exam grade should be visible")
	}
}

func TestSessionsAdminOverrideWins(t *testing.T) {
	r := rec("Ahmed Ali", 2, true, true)
	r.QuizMark = sql.NullFloat64{Float64: 9, Valid: true}
	r.AdminQuizMark = sql.NullFloat64{Float64: 10.5, Valid: true}

	vs := Sessions([]*models.SessionRecord{r})
	if vs[0].QuizMark == nil || *vs[0].QuizMark != 10.5 {
		t.Errorf("QuizMark = %v, want the admin override", vs[0].QuizMark)
	}
}

func TestSessionsVisibilityFlags(t *testing.T) {
	hidden := rec("Ahmed Ali", 2, true, true)
	hidden.HasPayment = false
	hidden.FinishTime = sql.NullString{String: "2024-03-15 16:00:00", Valid: true}
	hidden.HasTime = false

	vs := Sessions([]*models.SessionRecord{hidden})
	if vs[0].Paid != nil || vs[0].Amount != nil {
		t.Errorf("payment fields = (%v, %v), want omitted while hidden", vs[0].Paid, vs[0].Amount)
	}
	if vs[0].FinishTime != "" {
		t.Errorf("FinishTime = %q, want omitted while hidden", vs[0].FinishTime)
	}

	shown := rec("Ahmed Ali", 2, true, true)
	shown.FinishTime = sql.NullString{String: "2024-03-15 16:00:00", Valid: true}
	shown.HasTime = true

	vs = Sessions([]*models.SessionRecord{shown})
	if vs[0].Paid == nil || vs[0].Amount == nil {
		t.Error("payment fields missing despite being visible")
	}
	if vs[0].FinishTime != "15/03/2024 16:00:00 م" {
		t.Errorf("FinishTime = %q, want display form", vs[0].FinishTime)
	}
}

func TestSessionsHomeworkCodes(t *testing.T) {
	tests := []struct {
		name   string
		status sql.NullInt32
		done   bool
	}{
		{"absent means completed", sql.NullInt32{}, true},
		{"completed", sql.NullInt32{Int32: 0, Valid: true}, true},
		{"no homework assigned", sql.NullInt32{Int32: 1, Valid: true}, false},
		{"not completed", sql.NullInt32{Int32: 2, Valid: true}, false},
		{"copied", sql.NullInt32{Int32: 3, Valid: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rec("Ahmed Ali", 1, true, true)
			r.HomeworkStatus = tt.status
			vs := Sessions([]*models.SessionRecord{r})
			if vs[0].HomeworkDone == nil || *vs[0].HomeworkDone != tt.done {
				t.Errorf("HomeworkDone = %v, want %v", vs[0].HomeworkDone, tt.done)
			}
		})
	}
}
