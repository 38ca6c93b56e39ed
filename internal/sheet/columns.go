package sheet

import (
	"fmt"
	"strings"
)

// Kind selects which header policy a sheet is resolved with.
type Kind int

const (
	// KindGeneralExam sheets carry id, name, parent, attendance/payment
	// flags and a quiz mark.
	KindGeneralExam Kind = iota
	// KindLecture sheets add pokin, student number, start time and homework
	// status columns.
	KindLecture
)

func (k Kind) String() string {
	if k == KindGeneralExam {
		return "general exam"
	}
	return "normal lecture"
}

// Column is the position of a resolved logical field, or absence.
type Column struct {
	Index int
	Found bool
}

func at(i int) Column {
	return Column{Index: i, Found: true}
}

// ColumnMap maps the logical fields of a sheet onto physical column
// positions. Built once per sheet from the header row and immutable after.
type ColumnMap struct {
	ID         Column
	Name       Column
	Parent     Column
	Attendance Column
	Payment    Column
	Quiz       Column
	Time       Column
	Homework   Column
	Pokin      Column
	StudentNo  Column
}

// ResolveColumns infers the role of each header column for the given sheet
// kind. Headers vary across instructors and terms (merged cells, reordered or
// renamed labels), so fields are matched by name first; the general-exam
// policy then falls back to expected positions for anything still unmapped.
func ResolveColumns(headers []string, kind Kind) (ColumnMap, error) {
	if kind == KindGeneralExam {
		return resolveGeneralExam(headers)
	}
	return resolveLecture(headers)
}

// resolveGeneralExam matches {id, name} exactly, "parent" by substring, and
// the single-letter a/p/q flags exactly. Unresolved fields fall back to their
// position in the standard order (id, name, parent, a, p, q); the fallback
// never overrides a name-based match or claims a column one already took.
func resolveGeneralExam(headers []string) (ColumnMap, error) {
	var cm ColumnMap
	claimed := make([]bool, len(headers))

	claim := func(col *Column, i int) {
		*col = at(i)
		claimed[i] = true
	}

	for i, header := range headers {
		label := strings.ToLower(strings.TrimSpace(header))
		switch {
		case label == "id" && !cm.ID.Found:
			claim(&cm.ID, i)
		case label == "name" && !cm.Name.Found:
			claim(&cm.Name, i)
		case strings.Contains(label, "parent") && !cm.Parent.Found && !claimed[i]:
			claim(&cm.Parent, i)
		case label == "a" && !cm.Attendance.Found:
			claim(&cm.Attendance, i)
		case label == "p" && !cm.Payment.Found:
			claim(&cm.Payment, i)
		case label == "q" && !cm.Quiz.Found:
			claim(&cm.Quiz, i)
		}
	}

	// Positional fallback, standard column order.
	fallback := []struct {
		col *Column
		pos int
	}{
		{&cm.ID, 0}, {&cm.Name, 1}, {&cm.Parent, 2},
		{&cm.Attendance, 3}, {&cm.Payment, 4}, {&cm.Quiz, 5},
	}
	for _, f := range fallback {
		if !f.col.Found && f.pos < len(headers) && !claimed[f.pos] {
			claim(f.col, f.pos)
		}
	}

	if !cm.ID.Found || !cm.Name.Found || !cm.Parent.Found {
		return ColumnMap{}, fmt.Errorf("required columns not found in general exam sheet, headers: %v", headers)
	}
	return cm, nil
}

// resolveLecture matches by substring with mutual-exclusion rules and no
// positional fallback: an "id" header must not also mention parent or
// student, the parent column needs both "parent" and "no", and the student
// number column needs both "student" and "no".
func resolveLecture(headers []string) (ColumnMap, error) {
	var cm ColumnMap

	for i, header := range headers {
		label := strings.ToLower(strings.TrimSpace(header))
		switch {
		case strings.Contains(label, "id") && !cm.ID.Found &&
			!strings.Contains(label, "parent") && !strings.Contains(label, "student"):
			cm.ID = at(i)
		case strings.Contains(label, "name") && !cm.Name.Found:
			cm.Name = at(i)
		case strings.Contains(label, "pokin") && !cm.Pokin.Found:
			cm.Pokin = at(i)
		case strings.Contains(label, "student") && strings.Contains(label, "no") && !cm.StudentNo.Found:
			cm.StudentNo = at(i)
		case strings.Contains(label, "parent") && strings.Contains(label, "no") && !cm.Parent.Found:
			cm.Parent = at(i)
		case label == "a" && !cm.Attendance.Found:
			cm.Attendance = at(i)
		case label == "p" && !cm.Payment.Found:
			cm.Payment = at(i)
		case label == "q" && !cm.Quiz.Found:
			cm.Quiz = at(i)
		case strings.Contains(label, "time") && !cm.Time.Found:
			cm.Time = at(i)
		case label == "s1" && !cm.Homework.Found:
			cm.Homework = at(i)
		}
	}

	if !cm.ID.Found || !cm.Name.Found || !cm.Parent.Found {
		return ColumnMap{}, fmt.Errorf("required columns not found in normal lecture sheet, headers: %v", headers)
	}
	return cm, nil
}
