package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"perfection-ops/internal/models"

	"github.com/google/uuid"
)

// recordSchema is the full session_records column set. The in-memory store
// starts with all of them; tests drop columns to simulate deployments that
// never ran the later migrations.
var recordSchema = []string{
	"student_id", "student_name", "parent_no", "session_number", "group_name",
	"is_general_exam", "attendance", "payment", "quiz_mark", "admin_quiz_mark",
	"lecture_name", "exam_name", "finish_time", "start_time", "homework_status",
	"pokin", "student_no", "has_exam_grade", "has_payment", "has_time",
}

// Memory is an in-memory Store used by tests and local experiments. It
// mirrors the Postgres adapter's behavior: the natural-key uniqueness
// constraint and classified errors for unknown columns and conflicts.
type Memory struct {
	mu      sync.Mutex
	columns map[string]bool
	rows    []map[string]any
	parents map[string]*models.Parent
	admins  map[string]*models.Admin
}

func NewMemory() *Memory {
	m := &Memory{
		columns: make(map[string]bool, len(recordSchema)),
		parents: make(map[string]*models.Parent),
		admins:  make(map[string]*models.Admin),
	}
	for _, col := range recordSchema {
		m.columns[col] = true
	}
	return m
}

// DropColumn removes a column from the simulated schema so inserts that
// reference it fail with KindSchemaMismatch.
func (m *Memory) DropColumn(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.columns, name)
}

func (m *Memory) InsertRecord(ctx context.Context, row map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for col := range row {
		if !m.columns[col] {
			return &Error{
				Kind:   KindSchemaMismatch,
				Column: col,
				Err:    fmt.Errorf("column %q of relation \"session_records\" does not exist", col),
			}
		}
	}

	name := asString(row["student_name"])
	parent := asString(row["parent_no"])
	session := asInt(row["session_number"])
	for _, existing := range m.rows {
		if asString(existing["student_name"]) == name &&
			asString(existing["parent_no"]) == parent &&
			asInt(existing["session_number"]) == session {
			return &Error{
				Kind: KindConflict,
				Err:  fmt.Errorf("duplicate key value violates unique constraint \"session_records_natural_key\""),
			}
		}
	}

	stored := make(map[string]any, len(row)+1)
	for col, val := range row {
		stored[col] = val
	}
	stored["id"] = uuid.New()
	m.rows = append(m.rows, stored)
	return nil
}

func (m *Memory) UpdateRecordByNameParent(ctx context.Context, name, parent string, row map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for _, existing := range m.rows {
		if asString(existing["student_name"]) == name && asString(existing["parent_no"]) == parent {
			applyRow(existing, row)
			affected++
		}
	}
	return affected, nil
}

func (m *Memory) UpdateRecordByStudentSession(ctx context.Context, studentID string, session int, group string, generalExam bool, row map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for _, existing := range m.rows {
		if asString(existing["student_id"]) == studentID &&
			asInt(existing["session_number"]) == session &&
			asString(existing["group_name"]) == group &&
			asBool(existing["is_general_exam"]) == generalExam {
			applyRow(existing, row)
			affected++
		}
	}
	return affected, nil
}

func (m *Memory) FindStudentID(ctx context.Context, name string, session int, group string, generalExam bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.rows {
		if asString(existing["student_name"]) == name &&
			asInt(existing["session_number"]) == session &&
			asString(existing["group_name"]) == group &&
			asBool(existing["is_general_exam"]) == generalExam {
			return asString(existing["student_id"]), nil
		}
	}
	return "", nil
}

func (m *Memory) StudentIDsByParents(ctx context.Context, parents []string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(parents))
	for _, parent := range parents {
		wanted[parent] = true
	}

	ids := make(map[string][]string)
	seen := make(map[string]bool)
	for _, existing := range m.rows {
		parent := asString(existing["parent_no"])
		if !wanted[parent] {
			continue
		}
		studentID := asString(existing["student_id"])
		key := parent + "|" + studentID
		if seen[key] {
			continue
		}
		seen[key] = true
		ids[parent] = append(ids[parent], studentID)
	}
	for parent := range ids {
		sort.Strings(ids[parent])
	}
	return ids, nil
}

func (m *Memory) RecordsByParent(ctx context.Context, parent, studentID string) ([]*models.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []*models.SessionRecord
	for _, existing := range m.rows {
		if asString(existing["parent_no"]) != parent {
			continue
		}
		if studentID != "" && asString(existing["student_id"]) != studentID {
			continue
		}
		records = append(records, toRecord(existing))
	}
	sortRecords(records)
	return records, nil
}

func (m *Memory) AllRecords(ctx context.Context) ([]*models.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]*models.SessionRecord, 0, len(m.rows))
	for _, existing := range m.rows {
		records = append(records, toRecord(existing))
	}
	sortRecords(records)
	return records, nil
}

func (m *Memory) ParentByPhone(ctx context.Context, phone string) (*models.Parent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, ok := m.parents[phone]
	if !ok {
		return nil, nil
	}
	copied := *parent
	return &copied, nil
}

func (m *Memory) CreateParent(ctx context.Context, p *models.Parent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.parents[p.PhoneNumber]; exists {
		return &Error{Kind: KindConflict, Err: fmt.Errorf("parent %s already exists", p.PhoneNumber)}
	}
	copied := *p
	copied.CreatedAt = time.Now()
	m.parents[p.PhoneNumber] = &copied
	return nil
}

func (m *Memory) UpdateParentPassword(ctx context.Context, phone, passwordHash string, needsReset bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if parent, ok := m.parents[phone]; ok {
		parent.PasswordHash = passwordHash
		parent.NeedsPasswordReset = needsReset
	}
	return nil
}

func (m *Memory) TouchParentLogin(ctx context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if parent, ok := m.parents[phone]; ok {
		parent.LastLogin.Time = time.Now()
		parent.LastLogin.Valid = true
	}
	return nil
}

func (m *Memory) AdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	admin, ok := m.admins[username]
	if !ok {
		return nil, nil
	}
	copied := *admin
	return &copied, nil
}

func (m *Memory) CreateAdmin(ctx context.Context, a *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.admins[a.Username]; exists {
		return &Error{Kind: KindConflict, Err: fmt.Errorf("admin %s already exists", a.Username)}
	}
	copied := *a
	copied.CreatedAt = time.Now()
	m.admins[a.Username] = &copied
	return nil
}

func (m *Memory) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if admin, ok := m.admins[username]; ok {
		admin.PasswordHash = passwordHash
	}
	return nil
}

func applyRow(existing, row map[string]any) {
	for col, val := range row {
		existing[col] = val
	}
}

func sortRecords(records []*models.SessionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SessionNumber > records[j].SessionNumber
	})
}

func toRecord(row map[string]any) *models.SessionRecord {
	r := &models.SessionRecord{
		StudentID:     asString(row["student_id"]),
		StudentName:   asString(row["student_name"]),
		ParentNo:      asString(row["parent_no"]),
		SessionNumber: int32(asInt(row["session_number"])),
		GroupName:     asString(row["group_name"]),
		IsGeneralExam: asBool(row["is_general_exam"]),
		Attendance:    int32(asInt(row["attendance"])),
		Payment:       asFloat(row["payment"]),
		HasExamGrade:  asBool(row["has_exam_grade"]),
		HasPayment:    asBool(row["has_payment"]),
		HasTime:       asBool(row["has_time"]),
	}
	if id, ok := row["id"].(uuid.UUID); ok {
		r.ID = id
	}
	if v, ok := row["quiz_mark"]; ok {
		r.QuizMark.Float64, r.QuizMark.Valid = asFloat(v), true
	}
	if v, ok := row["admin_quiz_mark"]; ok {
		r.AdminQuizMark.Float64, r.AdminQuizMark.Valid = asFloat(v), true
	}
	if v, ok := row["lecture_name"]; ok {
		r.LectureName.String, r.LectureName.Valid = asString(v), true
	}
	if v, ok := row["exam_name"]; ok {
		r.ExamName.String, r.ExamName.Valid = asString(v), true
	}
	if v, ok := row["finish_time"]; ok {
		r.FinishTime.String, r.FinishTime.Valid = asString(v), true
	}
	if v, ok := row["start_time"]; ok {
		r.StartTime.String, r.StartTime.Valid = asString(v), true
	}
	if v, ok := row["homework_status"]; ok {
		r.HomeworkStatus.Int32, r.HomeworkStatus.Valid = int32(asInt(v)), true
	}
	if v, ok := row["pokin"]; ok {
		r.Pokin.Float64, r.Pokin.Valid = asFloat(v), true
	}
	if v, ok := row["student_no"]; ok {
		r.StudentNo.String, r.StudentNo.Valid = asString(v), true
	}
	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
