package store

import (
	"context"
	"fmt"

	"perfection-ops/internal/models"
)

// ErrorKind classifies a failed write so callers can branch on a closed enum
// instead of inspecting database error text. Classification happens once, at
// the adapter boundary.
type ErrorKind int

const (
	// KindUnknown covers everything the adapter could not classify.
	KindUnknown ErrorKind = iota
	// KindConflict is a uniqueness violation on the session_records natural
	// key (student_name, session_number, parent_no).
	KindConflict
	// KindSchemaMismatch means the payload referenced a column the current
	// schema does not have. Column names the offender when known.
	KindSchemaMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindSchemaMismatch:
		return "schema mismatch"
	}
	return "unknown"
}

// Error wraps a store failure with its classified kind.
type Error struct {
	Kind   ErrorKind
	Column string
	Err    error
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("store %s (column %q): %v", e.Kind, e.Column, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RecordStore is the table-store surface the ingestion pipeline writes to and
// the read side queries. Row payloads are column-name keyed so optional
// columns can be omitted (or stripped on schema-mismatch retry) without
// writing null placeholders.
type RecordStore interface {
	InsertRecord(ctx context.Context, row map[string]any) error
	// UpdateRecordByNameParent updates the row matching (student_name,
	// parent_no) and reports how many rows changed.
	UpdateRecordByNameParent(ctx context.Context, name, parent string, row map[string]any) (int64, error)
	// UpdateRecordByStudentSession updates the row matching (student_id,
	// session_number, group_name, is_general_exam).
	UpdateRecordByStudentSession(ctx context.Context, studentID string, session int, group string, generalExam bool, row map[string]any) (int64, error)
	// FindStudentID returns the stored identifier for (student_name,
	// session_number, group_name, is_general_exam), or "" when none exists.
	FindStudentID(ctx context.Context, name string, session int, group string, generalExam bool) (string, error)
	// StudentIDsByParents returns the distinct stored identifiers per parent
	// contact for the given set of contacts.
	StudentIDsByParents(ctx context.Context, parents []string) (map[string][]string, error)
	// RecordsByParent lists records for one parent contact, optionally
	// narrowed to one student identifier.
	RecordsByParent(ctx context.Context, parent, studentID string) ([]*models.SessionRecord, error)
	AllRecords(ctx context.Context) ([]*models.SessionRecord, error)
}

// ParentStore manages parent login accounts. ParentByPhone returns (nil, nil)
// when no account exists so lazy-creation paths stay simple.
type ParentStore interface {
	ParentByPhone(ctx context.Context, phone string) (*models.Parent, error)
	CreateParent(ctx context.Context, p *models.Parent) error
	UpdateParentPassword(ctx context.Context, phone, passwordHash string, needsReset bool) error
	TouchParentLogin(ctx context.Context, phone string) error
}

type AdminStore interface {
	AdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, a *models.Admin) error
	UpdateAdminPassword(ctx context.Context, username, passwordHash string) error
}

// Store is the full persistence surface handed to handlers and the
// reconciliation engine.
type Store interface {
	RecordStore
	ParentStore
	AdminStore
}
