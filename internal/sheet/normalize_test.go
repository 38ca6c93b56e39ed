package sheet

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already local", "01012345678", "01012345678"},
		{"plus country code", "+201012345678", "01012345678"},
		{"bare country code", "201012345678", "01012345678"},
		{"double zero prefix", "00201012345678", "01012345678"},
		{"missing leading zero", "1012345678", "01012345678"},
		{"spaces and dashes", "010 1234-5678", "01012345678"},
		{"trailing window after junk digits", "123201012345678", "01012345678"},
		{"empty", "", ""},
		{"unrecognized shape passes through cleaned", "12345", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizePhone(got); again != got {
				t.Errorf("not idempotent: NormalizePhone(%q) = %q", got, again)
			}
		})
	}
}

func TestCanonicalizeTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already canonical", "2024-03-15 14:30:00", "2024-03-15 14:30:00"},
		{"iso t separator", "2024-03-15T14:30:00", "2024-03-15 14:30:00"},
		{"date only", "2024-03-15", "2024-03-15 00:00:00"},
		{"day first slash", "15/3/2024 2:30:00 PM", "2024-03-15 14:30:00"},
		{"arabic pm marker", "15/3/2024 2:30:00 م", "2024-03-15 14:30:00"},
		{"arabic am marker", "15/3/2024 9:05:00 ص", "2024-03-15 09:05:00"},
		{"bidi controls stripped", "‏15/3/2024 2:30:00 PM‎", "2024-03-15 14:30:00"},
		{"lowercase meridiem", "15/3/2024 2:30:00 pm", "2024-03-15 14:30:00"},
		{"blank", "   ", ""},
		{"unparseable passes through", "next tuesday", "next tuesday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalizeTimestamp(tt.input); got != tt.want {
				t.Errorf("CanonicalizeTimestamp(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDisplayTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"afternoon gets pm marker", "2024-03-15 14:30:00", "15/03/2024 14:30:00 م"},
		{"morning gets am marker", "2024-03-15 09:05:00", "15/03/2024 09:05:00 ص"},
		{"blank renders placeholder", "", NoTimePlaceholder},
		{"whitespace renders placeholder", "  ", NoTimePlaceholder},
		{"unparseable echoes raw", "soon", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayTimestamp(tt.input); got != tt.want {
				t.Errorf("DisplayTimestamp(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"case and spacing", "  Ahmed   Mohamed ", "ahmed mohamed"},
		{"arabic diacritics removed", "مُحَمّد", "محمد"},
		{"latin accents removed", "José Álvarez", "jose alvarez"},
		{"same student different styling", "AHMED  ali", "ahmed ali"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
