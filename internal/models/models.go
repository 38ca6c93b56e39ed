package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SessionRecord is one stored attendance/payment/quiz row for a student in a
// session. The natural key the database enforces is
// (student_name, session_number, parent_no); student_id is instructor-assigned
// and may change between uploads for the same student.
type SessionRecord struct {
	ID             uuid.UUID
	StudentID      string
	StudentName    string
	ParentNo       string
	SessionNumber  int32
	GroupName      string
	IsGeneralExam  bool
	Attendance     int32
	Payment        float64
	QuizMark       sql.NullFloat64
	AdminQuizMark  sql.NullFloat64
	LectureName    sql.NullString
	ExamName       sql.NullString
	FinishTime     sql.NullString
	StartTime      sql.NullString
	HomeworkStatus sql.NullInt32
	Pokin          sql.NullFloat64
	StudentNo      sql.NullString
	HasExamGrade   bool
	HasPayment     bool
	HasTime        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Parent is a parent login account, keyed by normalized phone number.
// Accounts are created lazily the first time a phone number is seen, either
// during reconciliation or at login, and are never deleted.
type Parent struct {
	PhoneNumber        string
	PasswordHash       string
	NeedsPasswordReset bool
	Name               string
	LastLogin          sql.NullTime
	CreatedAt          time.Time
}

type Admin struct {
	Username     string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}
