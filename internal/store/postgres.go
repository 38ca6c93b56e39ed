package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"perfection-ops/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres implements Store on a pgx-backed database/sql handle.
type Postgres struct {
	conn *sql.DB
}

func NewPostgres(conn *sql.DB) *Postgres {
	return &Postgres{conn: conn}
}

// classify maps a driver error onto the closed ErrorKind enum. SQLSTATE 23505
// is unique_violation, 42703 is undefined_column.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &Error{Kind: KindConflict, Err: err}
		case "42703":
			return &Error{Kind: KindSchemaMismatch, Column: quotedIdentifier(pgErr.Message), Err: err}
		}
	}

	return &Error{Kind: KindUnknown, Err: err}
}

// quotedIdentifier pulls the first double-quoted token out of a message like
// `column "pokin" of relation "session_records" does not exist`.
func quotedIdentifier(msg string) string {
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func (p *Postgres) InsertRecord(ctx context.Context, row map[string]any) error {
	cols := sortedColumns(row)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO session_records (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	if _, err := p.conn.ExecContext(ctx, query, args...); err != nil {
		return classify(err)
	}
	return nil
}

func (p *Postgres) UpdateRecordByNameParent(ctx context.Context, name, parent string, row map[string]any) (int64, error) {
	set, args := setClause(row, 1)
	query := fmt.Sprintf(
		"UPDATE session_records SET %s, updated_at = CURRENT_TIMESTAMP WHERE student_name = $%d AND parent_no = $%d",
		set, len(args)+1, len(args)+2,
	)
	args = append(args, name, parent)

	res, err := p.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

func (p *Postgres) UpdateRecordByStudentSession(ctx context.Context, studentID string, session int, group string, generalExam bool, row map[string]any) (int64, error) {
	set, args := setClause(row, 1)
	query := fmt.Sprintf(
		"UPDATE session_records SET %s, updated_at = CURRENT_TIMESTAMP WHERE student_id = $%d AND session_number = $%d AND group_name = $%d AND is_general_exam = $%d",
		set, len(args)+1, len(args)+2, len(args)+3, len(args)+4,
	)
	args = append(args, studentID, session, group, generalExam)

	res, err := p.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

func (p *Postgres) FindStudentID(ctx context.Context, name string, session int, group string, generalExam bool) (string, error) {
	var studentID string
	err := p.conn.QueryRowContext(ctx, `
		SELECT student_id FROM session_records
		WHERE student_name = $1 AND session_number = $2 AND group_name = $3 AND is_general_exam = $4
		LIMIT 1
	`, name, session, group, generalExam).Scan(&studentID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", classify(err)
	}
	return studentID, nil
}

func (p *Postgres) StudentIDsByParents(ctx context.Context, parents []string) (map[string][]string, error) {
	ids := make(map[string][]string, len(parents))
	if len(parents) == 0 {
		return ids, nil
	}

	placeholders := make([]string, len(parents))
	args := make([]any, len(parents))
	for i, parent := range parents {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = parent
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT parent_no, student_id FROM session_records
		WHERE parent_no IN (%s)
		ORDER BY parent_no, student_id
	`, strings.Join(placeholders, ", "))

	rows, err := p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var parent, studentID string
		if err := rows.Scan(&parent, &studentID); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		ids[parent] = append(ids[parent], studentID)
	}
	return ids, rows.Err()
}

const recordColumns = `
	id, student_id, student_name, parent_no, session_number, group_name,
	is_general_exam, attendance, payment, quiz_mark, admin_quiz_mark,
	lecture_name, exam_name, finish_time, start_time, homework_status,
	pokin, student_no, has_exam_grade, has_payment, has_time,
	created_at, updated_at`

func scanRecord(rows *sql.Rows) (*models.SessionRecord, error) {
	r := &models.SessionRecord{}
	err := rows.Scan(
		&r.ID, &r.StudentID, &r.StudentName, &r.ParentNo, &r.SessionNumber, &r.GroupName,
		&r.IsGeneralExam, &r.Attendance, &r.Payment, &r.QuizMark, &r.AdminQuizMark,
		&r.LectureName, &r.ExamName, &r.FinishTime, &r.StartTime, &r.HomeworkStatus,
		&r.Pokin, &r.StudentNo, &r.HasExamGrade, &r.HasPayment, &r.HasTime,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan session record: %w", err)
	}
	return r, nil
}

func (p *Postgres) RecordsByParent(ctx context.Context, parent, studentID string) ([]*models.SessionRecord, error) {
	query := "SELECT " + recordColumns + " FROM session_records WHERE parent_no = $1"
	args := []any{parent}
	if studentID != "" {
		query += " AND student_id = $2"
		args = append(args, studentID)
	}
	query += " ORDER BY session_number DESC"

	rows, err := p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var records []*models.SessionRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (p *Postgres) AllRecords(ctx context.Context) ([]*models.SessionRecord, error) {
	rows, err := p.conn.QueryContext(ctx, "SELECT "+recordColumns+" FROM session_records ORDER BY session_number DESC")
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var records []*models.SessionRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (p *Postgres) ParentByPhone(ctx context.Context, phone string) (*models.Parent, error) {
	parent := &models.Parent{}
	err := p.conn.QueryRowContext(ctx, `
		SELECT phone_number, password_hash, needs_password_reset, name, last_login, created_at
		FROM parents WHERE phone_number = $1
	`, phone).Scan(
		&parent.PhoneNumber, &parent.PasswordHash, &parent.NeedsPasswordReset,
		&parent.Name, &parent.LastLogin, &parent.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return parent, nil
}

func (p *Postgres) CreateParent(ctx context.Context, parent *models.Parent) error {
	_, err := p.conn.ExecContext(ctx, `
		INSERT INTO parents (phone_number, password_hash, needs_password_reset, name)
		VALUES ($1, $2, $3, $4)
	`, parent.PhoneNumber, parent.PasswordHash, parent.NeedsPasswordReset, parent.Name)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (p *Postgres) UpdateParentPassword(ctx context.Context, phone, passwordHash string, needsReset bool) error {
	_, err := p.conn.ExecContext(ctx, `
		UPDATE parents SET password_hash = $1, needs_password_reset = $2 WHERE phone_number = $3
	`, passwordHash, needsReset, phone)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (p *Postgres) TouchParentLogin(ctx context.Context, phone string) error {
	_, err := p.conn.ExecContext(ctx, `
		UPDATE parents SET last_login = CURRENT_TIMESTAMP WHERE phone_number = $1
	`, phone)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (p *Postgres) AdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	admin := &models.Admin{}
	err := p.conn.QueryRowContext(ctx, `
		SELECT username, password_hash, name, created_at FROM admins WHERE username = $1
	`, username).Scan(&admin.Username, &admin.PasswordHash, &admin.Name, &admin.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return admin, nil
}

func (p *Postgres) CreateAdmin(ctx context.Context, a *models.Admin) error {
	_, err := p.conn.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash, name) VALUES ($1, $2, $3)
	`, a.Username, a.PasswordHash, a.Name)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (p *Postgres) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	_, err := p.conn.ExecContext(ctx, `
		UPDATE admins SET password_hash = $1 WHERE username = $2
	`, passwordHash, username)
	if err != nil {
		return classify(err)
	}
	return nil
}

func sortedColumns(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func setClause(row map[string]any, firstArg int) (string, []any) {
	cols := sortedColumns(row)
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s = $%d", col, firstArg+i)
		args[i] = row[col]
	}
	return strings.Join(parts, ", "), args
}
