package sheet

import "testing"

func TestExtractRowsGeneralExam(t *testing.T) {
	rows := [][]string{
		{"ID", "Name", "Parent No", "a", "p", "Q"},
		{"1023.0", "Ahmed Ali", "+201012345678", "1", "0", "12.5"},
		{"", "Blank Id", "01012345678", "1", "1", "10"},
		{"1024", "", "01012345678", "1", "1", "10"},
		{"1025", "No Parent", "", "1", "1", "10"},
		{"1026", "Sara", "01098765432", "0", "1", ""},
	}

	records, err := ExtractRows(rows, KindGeneralExam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.StudentID != "1023" {
		t.Errorf("StudentID = %q, want %q (float id collapsed)", first.StudentID, "1023")
	}
	if first.ParentNo != "01012345678" {
		t.Errorf("ParentNo = %q, want normalized local form", first.ParentNo)
	}
	if !first.Attended {
		t.Error("attendance flag not set")
	}
	if first.Payment != 0 || !first.HasPayment {
		t.Errorf("payment = (%v, %v), want the flag cell 0 recorded as present", first.Payment, first.HasPayment)
	}
	if !first.HasQuiz || first.Quiz != 12.5 {
		t.Errorf("quiz = (%v, %v), want (12.5, present)", first.Quiz, first.HasQuiz)
	}

	second := records[1]
	if second.StudentName != "Sara" {
		t.Errorf("StudentName = %q, want %q", second.StudentName, "Sara")
	}
	if second.Payment != 1 {
		t.Errorf("Payment = %v, want the exam flag cell 1 stored as 1", second.Payment)
	}
	if second.HasQuiz {
		t.Error("blank quiz cell should be absent, not zero")
	}
}

func TestExtractRowsParentFloatArtifact(t *testing.T) {
	// Spreadsheet tools export numeric contact cells as floats; the trailing
	// ".0" must not survive into the normalized number.
	rows := [][]string{
		{"ID", "Name", "Parent No", "a", "p", "Q"},
		{"1", "Ahmed Ali", "1012345678.0", "1", "1", ""},
	}

	records, err := ExtractRows(rows, KindGeneralExam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ParentNo != "01012345678" {
		t.Errorf("ParentNo = %q, want %q", records[0].ParentNo, "01012345678")
	}
}

func TestExtractRowsLecture(t *testing.T) {
	rows := [][]string{
		{"ID", "Name", "Pokin", "Student No", "Parent No", "a", "p", "q", "Start Time", "s1"},
		{"7", "", "3.5", "42.0", "201012345678", "1", "140", "9", "15/3/2024 2:30:00 م", "1"},
		{"8", "Mona", "", "", "01098765432", "0", "", "", "", "0"},
	}

	records, err := ExtractRows(rows, KindLecture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.StudentName != "Unknown" {
		t.Errorf("blank lecture name = %q, want %q", first.StudentName, "Unknown")
	}
	if first.StartTime != "2024-03-15 14:30:00" {
		t.Errorf("StartTime = %q, want canonical form", first.StartTime)
	}
	if first.Payment != 140 || !first.HasPayment {
		t.Errorf("payment = (%v, %v), want the amount 140 carried through", first.Payment, first.HasPayment)
	}
	if first.HomeworkStatus != 1 {
		t.Errorf("HomeworkStatus = %d, want code 1", first.HomeworkStatus)
	}
	if !first.HasPokin || first.Pokin != 3.5 {
		t.Errorf("pokin = (%v, %v), want (3.5, present)", first.Pokin, first.HasPokin)
	}
	if first.StudentNo != "42" {
		t.Errorf("StudentNo = %q, want %q", first.StudentNo, "42")
	}

	second := records[1]
	if second.StartTime != "" {
		t.Errorf("blank time = %q, want empty", second.StartTime)
	}
	if second.HasPokin {
		t.Error("blank pokin should be absent")
	}
	if second.HasPayment {
		t.Error("blank payment cell should be absent")
	}
}

func TestExtractRowsHomeworkStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want int
	}{
		{"blank means completed", "", 0},
		{"completed", "0", 0},
		{"no homework assigned", "1", 1},
		{"not completed", "2", 2},
		{"copied, float artifact", "3.0", 3},
		{"garbage falls back to completed", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := [][]string{
				{"ID", "Name", "Parent No", "a", "p", "q", "s1"},
				{"7", "Mona", "01098765432", "1", "", "", tt.cell},
			}
			records, err := ExtractRows(rows, KindLecture)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			if records[0].HomeworkStatus != tt.want {
				t.Errorf("HomeworkStatus = %d, want %d", records[0].HomeworkStatus, tt.want)
			}
		})
	}
}

func TestExtractRowsRaggedAndEmpty(t *testing.T) {
	if _, err := ExtractRows(nil, KindGeneralExam); err == nil {
		t.Error("empty sheet should fail")
	}

	// Short rows read missing trailing cells as blank.
	rows := [][]string{
		{"ID", "Name", "Parent No", "a", "p", "Q"},
		{"1", "Omar", "01012345678"},
	}
	records, err := ExtractRows(rows, KindGeneralExam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Attended || records[0].HasPayment || records[0].HasQuiz {
		t.Error("missing trailing cells should extract as unset")
	}
}
