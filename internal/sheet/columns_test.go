package sheet

import "testing"

func TestResolveGeneralExamColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[string]int
		missing []string
		wantErr bool
	}{
		{
			name:    "standard header row",
			headers: []string{"ID", "Name", "Parent No", "a", "p", "Q"},
			want:    map[string]int{"id": 0, "name": 1, "parent": 2, "attendance": 3, "payment": 4, "quiz": 5},
		},
		{
			name:    "reordered columns matched by name",
			headers: []string{"Name", "Parent Number", "ID", "q", "a", "p"},
			want:    map[string]int{"id": 2, "name": 0, "parent": 1, "attendance": 4, "payment": 5, "quiz": 3},
		},
		{
			name:    "blank headers fall back to standard positions",
			headers: []string{"", "", "", "", "", ""},
			want:    map[string]int{"id": 0, "name": 1, "parent": 2, "attendance": 3, "payment": 4, "quiz": 5},
		},
		{
			name:    "fallback skips columns claimed by name",
			headers: []string{"ID", "Name", "Parent No", "Q", "", ""},
			want:    map[string]int{"id": 0, "name": 1, "parent": 2, "quiz": 3, "payment": 4},
			missing: []string{"attendance"},
		},
		{
			name:    "missing quiz column is tolerated",
			headers: []string{"ID", "Name", "Parent No", "a", "p"},
			want:    map[string]int{"id": 0, "name": 1, "parent": 2, "attendance": 3, "payment": 4},
			missing: []string{"quiz"},
		},
		{
			name:    "too few columns for required fields",
			headers: []string{"a", "p"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, err := ResolveColumns(tt.headers, KindGeneralExam)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			checkColumns(t, cm, tt.want, tt.missing)
		})
	}
}

func TestResolveLectureColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[string]int
		missing []string
		wantErr bool
	}{
		{
			name:    "full lecture header row",
			headers: []string{"ID", "Name", "Pokin", "Student No", "Parent No", "a", "p", "q", "Start Time", "s1"},
			want: map[string]int{
				"id": 0, "name": 1, "pokin": 2, "studentno": 3, "parent": 4,
				"attendance": 5, "payment": 6, "quiz": 7, "time": 8, "homework": 9,
			},
		},
		{
			name:    "id match excludes parent and student columns",
			headers: []string{"Parent No", "Student No", "Session ID", "Name"},
			want:    map[string]int{"id": 2, "name": 3, "parent": 0, "studentno": 1},
			missing: []string{"attendance", "payment", "quiz", "time", "homework", "pokin"},
		},
		{
			name:    "no positional fallback for blank headers",
			headers: []string{"", "", "", "", "", ""},
			wantErr: true,
		},
		{
			name:    "missing parent column fails",
			headers: []string{"ID", "Name", "a", "p", "q"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, err := ResolveColumns(tt.headers, KindLecture)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			checkColumns(t, cm, tt.want, tt.missing)
		})
	}
}

func checkColumns(t *testing.T, cm ColumnMap, want map[string]int, missing []string) {
	t.Helper()

	fields := map[string]Column{
		"id": cm.ID, "name": cm.Name, "parent": cm.Parent,
		"attendance": cm.Attendance, "payment": cm.Payment, "quiz": cm.Quiz,
		"time": cm.Time, "homework": cm.Homework, "pokin": cm.Pokin, "studentno": cm.StudentNo,
	}
	for field, idx := range want {
		got := fields[field]
		if !got.Found {
			t.Errorf("%s: not found, want index %d", field, idx)
			continue
		}
		if got.Index != idx {
			t.Errorf("%s: index %d, want %d", field, got.Index, idx)
		}
	}
	for _, field := range missing {
		if fields[field].Found {
			t.Errorf("%s: found at %d, want absent", field, fields[field].Index)
		}
	}
}
