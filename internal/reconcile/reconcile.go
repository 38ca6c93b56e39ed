package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"perfection-ops/internal/models"
	"perfection-ops/internal/sheet"
	"perfection-ops/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// SessionContext identifies the session a whole batch of records belongs to.
// It comes from upload metadata, not from the sheet itself. The optional
// visibility overrides let the uploader declare what the sheet carries for
// the whole batch (e.g. grades not released yet) instead of deriving it per
// row; nil means derive.
type SessionContext struct {
	SessionNumber int
	GroupName     string
	GeneralExam   bool
	LectureName   string
	ExamName      string

	// FinishTime is the session end timestamp in canonical form, if known.
	FinishTime string

	// AdminQuizMark, when set, is broadcast to every record in the batch.
	// On the read side it wins over whatever the sheet's quiz column said.
	AdminQuizMark *float64

	HasExamGrade *bool
	HasPayment   *bool
	HasTime      *bool
}

// Result summarizes one reconciled batch.
type Result struct {
	UpdatedCount int
	TotalRecords int
	Errors       []string
}

// Success reports whether the batch landed at all. A non-empty batch where
// nothing was written is a failure; an empty batch is trivially fine.
func (r Result) Success() bool {
	return r.TotalRecords == 0 || r.UpdatedCount > 0
}

// Partial reports whether some rows landed and some did not.
func (r Result) Partial() bool {
	return r.UpdatedCount > 0 && r.UpdatedCount < r.TotalRecords
}

// Engine writes extracted sheet records into the store, absorbing the three
// realities of instructor-maintained sheets: re-uploads of the same session,
// student identifiers that change between exports, and databases whose schema
// lags behind the sheet format.
type Engine struct {
	store store.Store

	// defaultParentPassword seeds lazily created parent accounts, which are
	// flagged for a forced reset on first login.
	defaultParentPassword string
}

func NewEngine(st store.Store, defaultParentPassword string) *Engine {
	return &Engine{store: st, defaultParentPassword: defaultParentPassword}
}

// Reconcile lands a batch of records for one session. Each record is tried as
// an insert first; failures are recovered per-record so one bad row never
// poisons the batch.
func (e *Engine) Reconcile(ctx context.Context, sc SessionContext, records []sheet.Record) Result {
	result := Result{TotalRecords: len(records)}

	parents := distinctParents(records)
	e.ensureParents(ctx, parents)

	// Identifiers already on file per parent, used when a sheet re-export
	// renamed a student's id. Best effort: a failed prefetch only disables
	// the cache, the authoritative lookup below still runs.
	priorIDs, err := e.store.StudentIDsByParents(ctx, parents)
	if err != nil {
		log.Printf("WARNING: prior id prefetch failed: %v", err)
		priorIDs = nil
	}

	for _, rec := range records {
		if err := e.reconcileOne(ctx, sc, rec, priorIDs); err != nil {
			log.Printf("ERROR: record for student %q (id %s) not reconciled: %v", rec.StudentName, rec.StudentID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("student %q (id %s): %v", rec.StudentName, rec.StudentID, err))
			continue
		}
		result.UpdatedCount++
	}
	return result
}

func (e *Engine) reconcileOne(ctx context.Context, sc SessionContext, rec sheet.Record, priorIDs map[string][]string) error {
	if rec.StudentName == "" || rec.StudentName == "Unknown" {
		return fmt.Errorf("missing student name")
	}
	if rec.ParentNo == "" {
		return fmt.Errorf("missing parent number")
	}

	row := buildRow(sc, rec)

	err := e.store.InsertRecord(ctx, row)
	if err == nil {
		return nil
	}

	var serr *store.Error
	if !errors.As(err, &serr) {
		return err
	}

	// A payload column the live schema lacks: drop it and try once more. If
	// the retry then hits the natural key, recover as a conflict.
	if serr.Kind == store.KindSchemaMismatch && serr.Column != "" {
		log.Printf("WARNING: schema missing column %q, retrying without it", serr.Column)
		delete(row, serr.Column)

		err = e.store.InsertRecord(ctx, row)
		if err == nil {
			return nil
		}
		if !errors.As(err, &serr) {
			return err
		}
	}

	if serr.Kind != store.KindConflict {
		return serr
	}
	return e.recoverConflict(ctx, sc, rec, row, priorIDs)
}

// recoverConflict turns a duplicate-insert into an update of the existing
// row. Matching is tried from the most to the least direct identity: the
// natural key itself, then the full session identity, then any prior
// identifier the same parent is known under (the sheet may have renumbered
// the student, so the update payload carries the new id).
func (e *Engine) recoverConflict(ctx context.Context, sc SessionContext, rec sheet.Record, row map[string]any, priorIDs map[string][]string) error {
	affected, err := e.store.UpdateRecordByNameParent(ctx, rec.StudentName, rec.ParentNo, row)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	affected, err = e.store.UpdateRecordByStudentSession(ctx, rec.StudentID, sc.SessionNumber, sc.GroupName, sc.GeneralExam, row)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	for _, prior := range priorIDs[rec.ParentNo] {
		if prior == rec.StudentID {
			continue
		}
		affected, err = e.store.UpdateRecordByStudentSession(ctx, prior, sc.SessionNumber, sc.GroupName, sc.GeneralExam, row)
		if err != nil {
			return err
		}
		if affected > 0 {
			log.Printf("WARNING: student %q migrated from id %s to %s", rec.StudentName, prior, rec.StudentID)
			return nil
		}
	}

	prior, err := e.store.FindStudentID(ctx, rec.StudentName, sc.SessionNumber, sc.GroupName, sc.GeneralExam)
	if err != nil {
		return err
	}
	if prior != "" && prior != rec.StudentID {
		affected, err = e.store.UpdateRecordByStudentSession(ctx, prior, sc.SessionNumber, sc.GroupName, sc.GeneralExam, row)
		if err != nil {
			return err
		}
		if affected > 0 {
			log.Printf("WARNING: student %q migrated from id %s to %s", rec.StudentName, prior, rec.StudentID)
			return nil
		}
	}

	return fmt.Errorf("conflicting record exists but no matching row accepted the update")
}

// buildRow assembles the column payload for one record. Optional columns are
// present only when the sheet carried a value, so absence stays absent and a
// schema-mismatch retry can strip what the database does not know.
func buildRow(sc SessionContext, rec sheet.Record) map[string]any {
	row := map[string]any{
		"student_id":      rec.StudentID,
		"student_name":    rec.StudentName,
		"parent_no":       rec.ParentNo,
		"session_number":  sc.SessionNumber,
		"group_name":      sc.GroupName,
		"is_general_exam": sc.GeneralExam,
		"attendance":      boolFlag(rec.Attended),
		"payment":         rec.Payment,
		"has_payment":     orDerived(sc.HasPayment, rec.HasPayment),
	}

	if rec.HasQuiz {
		row["quiz_mark"] = rec.Quiz
	}
	if sc.AdminQuizMark != nil {
		row["admin_quiz_mark"] = *sc.AdminQuizMark
	}
	if sc.FinishTime != "" {
		row["finish_time"] = sc.FinishTime
	}

	if sc.GeneralExam {
		row["has_exam_grade"] = orDerived(sc.HasExamGrade, rec.HasQuiz)
		if sc.ExamName != "" {
			row["exam_name"] = sc.ExamName
		}
		return row
	}

	if sc.LectureName != "" {
		row["lecture_name"] = sc.LectureName
	}
	row["homework_status"] = rec.HomeworkStatus
	row["has_time"] = orDerived(sc.HasTime, rec.StartTime != "")
	if rec.StartTime != "" {
		row["start_time"] = rec.StartTime
	}
	if rec.HasPokin {
		row["pokin"] = rec.Pokin
	}
	if rec.StudentNo != "" {
		row["student_no"] = rec.StudentNo
	}
	return row
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func orDerived(override *bool, derived bool) bool {
	if override != nil {
		return *override
	}
	return derived
}

// ensureParents creates missing parent accounts for every contact in the
// batch, seeded with the default password and flagged for reset. Failures are
// logged, not fatal: account creation must never block attendance data.
func (e *Engine) ensureParents(ctx context.Context, parents []string) {
	if len(parents) == 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(e.defaultParentPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: failed to hash default parent password: %v", err)
		return
	}

	for _, phone := range parents {
		existing, err := e.store.ParentByPhone(ctx, phone)
		if err != nil {
			log.Printf("WARNING: parent lookup for %s failed: %v", phone, err)
			continue
		}
		if existing != nil {
			continue
		}
		err = e.store.CreateParent(ctx, &models.Parent{
			PhoneNumber:        phone,
			PasswordHash:       string(hash),
			NeedsPasswordReset: true,
		})
		if err != nil {
			var serr *store.Error
			if errors.As(err, &serr) && serr.Kind == store.KindConflict {
				continue
			}
			log.Printf("WARNING: failed to create parent account for %s: %v", phone, err)
		}
	}
}

func distinctParents(records []sheet.Record) []string {
	seen := make(map[string]bool, len(records))
	var parents []string
	for _, rec := range records {
		if rec.ParentNo == "" || seen[rec.ParentNo] {
			continue
		}
		seen[rec.ParentNo] = true
		parents = append(parents, rec.ParentNo)
	}
	return parents
}
