package views

import (
	"math"
	"sort"

	"perfection-ops/internal/models"
	"perfection-ops/internal/sheet"
)

// QuizTotal is the mark every quiz is graded out of.
const QuizTotal = 15

// SessionView is one session record projected for display. Fields the sheet
// never provided are omitted rather than rendered as zero values.
type SessionView struct {
	StudentID     string   `json:"student_id"`
	StudentName   string   `json:"student_name"`
	SessionNumber int32    `json:"session_number"`
	GroupName     string   `json:"group_name"`
	IsGeneralExam bool     `json:"is_general_exam"`
	LectureName   string   `json:"lecture_name,omitempty"`
	ExamName      string   `json:"exam_name,omitempty"`
	Attended      bool     `json:"attended"`
	Paid          *bool    `json:"paid,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	QuizMark      *float64 `json:"quiz_mark,omitempty"`
	QuizTotal     int      `json:"quiz_total,omitempty"`
	StartTime     string   `json:"start_time,omitempty"`
	FinishTime    string   `json:"finish_time,omitempty"`
	HomeworkDone  *bool    `json:"homework_done,omitempty"`
	Pokin         *float64 `json:"pokin,omitempty"`
}

// Sessions projects stored records into display form, filtered by each
// record's own visibility flags. Records arrive newest session first from the
// store and keep that order.
func Sessions(records []*models.SessionRecord) []SessionView {
	out := make([]SessionView, 0, len(records))
	for _, r := range records {
		v := SessionView{
			StudentID:     r.StudentID,
			StudentName:   r.StudentName,
			SessionNumber: r.SessionNumber,
			GroupName:     r.GroupName,
			IsGeneralExam: r.IsGeneralExam,
			LectureName:   r.LectureName.String,
			ExamName:      r.ExamName.String,
			Attended:      r.Attendance == 1,
		}

		if r.HasPayment {
			paid := r.Payment > 0
			amount := r.Payment
			v.Paid = &paid
			v.Amount = &amount
		}
		if mark, ok := effectiveQuiz(r); ok {
			m := mark
			v.QuizMark = &m
			v.QuizTotal = QuizTotal
		}
		if r.HasTime && r.StartTime.Valid {
			v.StartTime = sheet.DisplayTimestamp(r.StartTime.String)
		}
		if r.HasTime && r.FinishTime.Valid && r.FinishTime.String != "" {
			v.FinishTime = sheet.DisplayTimestamp(r.FinishTime.String)
		}
		if !r.IsGeneralExam {
			// The homework code reads "completed" only at zero or absent;
			// every other code is outstanding in some way.
			done := !r.HomeworkStatus.Valid || r.HomeworkStatus.Int32 == 0
			v.HomeworkDone = &done
			if r.Pokin.Valid {
				p := r.Pokin.Float64
				v.Pokin = &p
			}
		}

		out = append(out, v)
	}
	return out
}

// effectiveQuiz picks the mark to display: an admin override wins over the
// sheet mark, and general exam grades stay hidden until released.
func effectiveQuiz(r *models.SessionRecord) (float64, bool) {
	if r.IsGeneralExam && !r.HasExamGrade {
		return 0, false
	}
	if r.AdminQuizMark.Valid {
		return r.AdminQuizMark.Float64, true
	}
	if r.QuizMark.Valid {
		return r.QuizMark.Float64, true
	}
	return 0, false
}

type AttendanceSummary struct {
	Attended   int `json:"attended"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type PaymentSummary struct {
	Paid  float64 `json:"paid"`
	Total float64 `json:"total"`
}

type QuizSummary struct {
	Average float64 `json:"average"`
	Total   int     `json:"total"`
}

// StudentSummary aggregates every record of one student across sessions.
type StudentSummary struct {
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	ParentNo    string            `json:"parent_no"`
	Attendance  AttendanceSummary `json:"attendance"`
	Payments    PaymentSummary    `json:"payments"`
	Quizzes     QuizSummary       `json:"quizzes"`
}

// Summarize groups records per student and rolls them up. Grouping keys on
// the normalized name rather than the sheet identifier, which churns between
// exports; the displayed name and id come from the newest record seen.
func Summarize(records []*models.SessionRecord, rate float64) []StudentSummary {
	type bucket struct {
		summary   StudentSummary
		attended  int
		total     int
		paidSum   float64
		quizSum   float64
		quizCount int
	}

	buckets := make(map[string]*bucket)
	var order []string

	for _, r := range records {
		key := sheet.NormalizeName(r.StudentName)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{summary: StudentSummary{
				StudentID:   r.StudentID,
				StudentName: r.StudentName,
				ParentNo:    r.ParentNo,
			}}
			buckets[key] = b
			order = append(order, key)
		}

		b.total++
		if r.Attendance == 1 {
			b.attended++
		}
		b.paidSum += r.Payment
		if mark, ok := effectiveQuiz(r); ok {
			b.quizSum += mark
			b.quizCount++
		}
	}

	out := make([]StudentSummary, 0, len(buckets))
	for _, key := range order {
		b := buckets[key]
		s := b.summary
		s.Attendance = AttendanceSummary{
			Attended:   b.attended,
			Total:      b.total,
			Percentage: int(math.Round(100 * float64(b.attended) / float64(b.total))),
		}
		// Paid is the raw sum of stored amounts; only the expected total
		// leans on the per-session rate.
		s.Payments = PaymentSummary{
			Paid:  b.paidSum,
			Total: float64(b.total) * rate,
		}
		if b.quizCount > 0 {
			s.Quizzes = QuizSummary{
				Average: math.Round(b.quizSum/float64(b.quizCount)*100) / 100,
				Total:   b.quizCount,
			}
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StudentName < out[j].StudentName })
	return out
}
