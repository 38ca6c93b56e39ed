package sheet

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Record is one extracted, normalized sheet row. Optional fields carry a
// presence flag so downstream writers can tell "absent" from zero.
type Record struct {
	StudentID   string
	StudentName string
	ParentNo    string
	Attended    bool

	// Payment is a money amount on lecture sheets; general exam sheets carry
	// a 0/1 flag column, extracted as 0 or 1.
	Payment    float64
	HasPayment bool

	Quiz    float64
	HasQuiz bool

	// StartTime is in CanonicalTimeLayout, or "" when the sheet had none.
	StartTime string

	// HomeworkStatus is the s1 code: 0 completed (also the blank default),
	// 1 no homework assigned, 2 not completed, 3 copied.
	HomeworkStatus int
	Pokin          float64
	HasPokin       bool
	StudentNo      string
}

// Parse reads an xlsx workbook and extracts the records of its first sheet.
func Parse(r io.Reader, kind Kind) ([]Record, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return ExtractRows(rows, kind)
}

// ExtractRows resolves the header row and extracts every data row beneath it.
// Rows that fail the per-kind identity rules are logged and skipped rather
// than failing the batch.
func ExtractRows(rows [][]string, kind Kind) ([]Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	cm, err := ResolveColumns(rows[0], kind)
	if err != nil {
		return nil, err
	}

	var records []Record
	for i, row := range rows[1:] {
		rec, ok := extractRow(row, cm, kind)
		if !ok {
			continue
		}
		if rec.StudentID == "" {
			continue
		}
		if kind == KindGeneralExam && (rec.StudentName == "" || rec.ParentNo == "") {
			log.Printf("WARNING: skipping row %d: general exam row missing name or parent number", i+2)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func extractRow(row []string, cm ColumnMap, kind Kind) (Record, bool) {
	rec := Record{
		StudentID:   cellNumber(row, cm.ID),
		StudentName: cell(row, cm.Name),
		ParentNo:    NormalizePhone(cellNumber(row, cm.Parent)),
		Attended:    cell(row, cm.Attendance) == "1",
	}

	if raw := cell(row, cm.Payment); raw != "" {
		if kind == KindGeneralExam {
			// The exam payment column is a 0/1 flag, not an amount.
			if raw == "1" {
				rec.Payment = 1
			}
			rec.HasPayment = true
		} else if amount, err := strconv.ParseFloat(raw, 64); err != nil {
			log.Printf("WARNING: ignoring unparseable payment amount %q", raw)
		} else {
			rec.Payment = amount
			rec.HasPayment = true
		}
	}

	if kind == KindLecture && rec.StudentName == "" {
		rec.StudentName = "Unknown"
	}

	if raw := cell(row, cm.Quiz); raw != "" {
		mark, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Printf("WARNING: ignoring unparseable quiz mark %q", raw)
		} else {
			rec.Quiz = mark
			rec.HasQuiz = true
		}
	}

	if kind != KindLecture {
		return rec, true
	}

	rec.StartTime = CanonicalizeTimestamp(cell(row, cm.Time))
	rec.StudentNo = cellNumber(row, cm.StudentNo)

	// s1 is an integer code; blank and garbage both mean "completed" (0).
	if raw := cell(row, cm.Homework); raw != "" {
		if code, err := strconv.ParseFloat(raw, 64); err == nil {
			rec.HomeworkStatus = int(code)
		}
	}

	if raw := cell(row, cm.Pokin); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Printf("WARNING: ignoring unparseable pokin value %q", raw)
		} else {
			rec.Pokin = v
			rec.HasPokin = true
		}
	}

	return rec, true
}

// cell reads one resolved column from a possibly ragged row.
func cell(row []string, col Column) string {
	if !col.Found || col.Index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col.Index])
}

// cellNumber reads an identifier cell. Spreadsheet tools frequently store
// numeric IDs as floats ("1023.0"), so integral floats collapse back to their
// integer digits.
func cellNumber(row []string, col Column) string {
	raw := cell(row, col)
	if raw == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return raw
}
