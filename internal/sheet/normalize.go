package sheet

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalTimeLayout is the storage form for every timestamp the pipeline
// accepts.
const CanonicalTimeLayout = "2006-01-02 15:04:05"

// NoTimePlaceholder is rendered when a display timestamp has no value at all,
// so consumers can tell "no data" apart from an unparseable raw string
// (which is echoed back instead).
const NoTimePlaceholder = "غير متاح"

const (
	arabicAM = "ص"
	arabicPM = "م"
)

// NormalizePhone rewrites a raw phone cell into the local 11-digit form
// starting with "01" when possible:
//
//	+201012345678 -> 01012345678
//	201012345678  -> 01012345678
//	1012345678    -> 01012345678
//	01012345678   -> 01012345678
//
// This is a best-effort heuristic, not a validator; inputs that fit no rule
// come back as their cleaned digit string.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}

	var b strings.Builder
	for _, ch := range phone {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	cleaned := b.String()

	// International call prefix
	if strings.HasPrefix(cleaned, "00") {
		cleaned = cleaned[2:]
	}

	// Egypt country code 20 -> local leading 0
	if strings.HasPrefix(cleaned, "20") && len(cleaned) >= 11 {
		candidate := "0" + cleaned[2:]
		if strings.HasPrefix(candidate, "01") && len(candidate) == 11 {
			return candidate
		}
	}

	// Already local 11-digit
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "01") {
		return cleaned
	}

	// Missing the leading zero
	if len(cleaned) == 10 && strings.HasPrefix(cleaned, "1") {
		return "0" + cleaned
	}

	// Last resort: a trailing 10-digit window starting with 1
	if len(cleaned) > 11 {
		last10 := cleaned[len(cleaned)-10:]
		if strings.HasPrefix(last10, "1") {
			return "0" + last10
		}
	}

	return cleaned
}

// Layout order implements the two parse preferences: the first slice is tried
// on the day-before-month pass, the second on the month-before-day pass.
// Unambiguous ISO shapes sit up front in both.
var dayFirstLayouts = []string{
	CanonicalTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

var monthFirstLayouts = []string{
	CanonicalTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1-2-2006 15:04:05",
	"1-2-2006 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 15:04:05",
	"2/1/2006",
}

// CanonicalizeTimestamp parses a raw date/time cell into CanonicalTimeLayout.
// Arabic AM/PM markers and directionality control characters are handled
// before parsing. Both locale preferences (day-first, then month-first) are
// attempted; if neither parses, the cleaned string is passed through
// unchanged. Blank input yields "".
func CanonicalizeTimestamp(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}

	cleaned := cleanTimestamp(value)
	for _, layouts := range [][]string{dayFirstLayouts, monthFirstLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return t.Format(CanonicalTimeLayout)
			}
		}
	}
	return cleaned
}

// CanonicalizeTime formats a native time value into CanonicalTimeLayout.
func CanonicalizeTime(t time.Time) string {
	return t.Format(CanonicalTimeLayout)
}

// DisplayTimestamp renders a stored timestamp as DD/MM/YYYY HH:MM:SS followed
// by the Arabic AM/PM marker. Blank input renders NoTimePlaceholder;
// unparseable input is echoed back as-is.
func DisplayTimestamp(value string) string {
	if strings.TrimSpace(value) == "" {
		return NoTimePlaceholder
	}

	t, err := time.Parse(CanonicalTimeLayout, CanonicalizeTimestamp(value))
	if err != nil {
		return value
	}

	marker := arabicAM
	if t.Hour() >= 12 {
		marker = arabicPM
	}
	return t.Format("02/01/2006 15:04:05") + " " + marker
}

func cleanTimestamp(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch {
		case ch == '\u200e' || ch == '\u200f' || ch == '\u061c':
			// LRM/RLM/ALM directionality marks
		case ch >= '\u202a' && ch <= '\u202e':
			// embedding/override controls
		case ch >= '\u2066' && ch <= '\u2069':
			// isolate controls
		default:
			b.WriteRune(ch)
		}
	}

	cleaned := strings.ReplaceAll(b.String(), arabicAM, "AM")
	cleaned = strings.ReplaceAll(cleaned, arabicPM, "PM")

	fields := strings.Fields(cleaned)
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "AM":
			fields[i] = "AM"
		case "PM":
			fields[i] = "PM"
		}
	}
	return strings.Join(fields, " ")
}

// stripMarks removes combining marks (which covers Arabic diacritics) after
// canonical decomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes a display name for matching: lower case,
// trimmed, Arabic diacritics and combining marks removed, internal whitespace
// collapsed. Matching only; stored and displayed names keep their raw form.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	// Arabic diacritical marks U+064B..U+0652 (tanween, shadda, sukun, ...)
	s = strings.Map(func(ch rune) rune {
		if ch >= '\u064b' && ch <= '\u0652' {
			return -1
		}
		return ch
	}, s)

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	return strings.Join(strings.Fields(s), " ")
}
