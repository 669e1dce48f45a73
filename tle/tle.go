// Package tle parses, validates and propagates NORAD two-line element sets.
// Element sets are value-checked at construction so downstream code can read
// fields without re-validating.
package tle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// lineLength is the fixed width of a TLE line, checksum digit included.
const lineLength = 69

// Fields holds the orbital data decoded from an element set. Angles are in
// degrees, mean motion in revolutions per day.
type Fields struct {
	NoradID          string
	Classification   byte
	IntlDesignator   string
	Epoch            time.Time
	MeanMotionDot    float64 // first derivative of mean motion, as printed
	MeanMotionDDot   float64 // second derivative of mean motion, as printed
	BStar            float64 // drag term [1/earth radii]
	ElementSetNumber int
	Inclination      float64
	RAAN             float64
	Eccentricity     float64
	ArgPerigee       float64
	MeanAnomaly      float64
	MeanMotion       float64
	RevolutionNumber int
}

// TwoLineElement is a validated element set. The raw lines and the decoded
// fields are kept consistent by the mutators.
type TwoLineElement struct {
	line1  string
	line2  string
	fields Fields
}

// New validates both lines (length, checksum, line numbers, matching catalog
// numbers) and decodes the element fields. A trailing carriage return on
// either line is stripped before validation.
func New(line1, line2 string) (*TwoLineElement, error) {
	l1, err := checkLine(line1, 1)
	if err != nil {
		return nil, err
	}
	l2, err := checkLine(line2, 2)
	if err != nil {
		return nil, err
	}
	if l1[2:7] != l2[2:7] {
		return nil, &MalformedTLEError{Reason: fmt.Sprintf("catalog numbers disagree: %q vs %q", l1[2:7], l2[2:7])}
	}
	fields, err := decodeFields(l1, l2)
	if err != nil {
		return nil, err
	}
	return &TwoLineElement{line1: l1, line2: l2, fields: fields}, nil
}

// FromSingleLine parses an element set given as two lines joined by a
// newline.
func FromSingleLine(s string) (*TwoLineElement, error) {
	parts := strings.Split(strings.TrimSpace(s), "\n")
	if len(parts) != 2 {
		return nil, &MalformedTLEError{Reason: fmt.Sprintf("expected 2 lines, got %d", len(parts))}
	}
	return New(parts[0], parts[1])
}

// ParseList pairs up consecutive lines into element sets.
func ParseList(lines []string) ([]*TwoLineElement, error) {
	if len(lines)%2 != 0 {
		return nil, &MalformedTLEError{Reason: fmt.Sprintf("odd number of lines (%d)", len(lines))}
	}
	out := make([]*TwoLineElement, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		t, err := New(lines[i], lines[i+1])
		if err != nil {
			return nil, fmt.Errorf("element set %d: %w", i/2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Line1 returns the first raw line.
func (t *TwoLineElement) Line1() string { return t.line1 }

// Line2 returns the second raw line.
func (t *TwoLineElement) Line2() string { return t.line2 }

// SingleLine returns both lines joined by a newline.
func (t *TwoLineElement) SingleLine() string { return t.line1 + "\n" + t.line2 }

// Fields returns the decoded element fields.
func (t *TwoLineElement) Fields() Fields { return t.fields }

// Epoch returns the element set epoch in UTC.
func (t *TwoLineElement) Epoch() time.Time { return t.fields.Epoch }

// NoradID returns the catalog number as printed, spaces trimmed.
func (t *TwoLineElement) NoradID() string { return t.fields.NoradID }

// Equal reports whether both element sets carry identical lines.
func (t *TwoLineElement) Equal(other *TwoLineElement) bool {
	return other != nil && t.line1 == other.line1 && t.line2 == other.line2
}

// SpacecraftData returns the catalog number plus classification letter
// (columns 3-8 of line 1).
func (t *TwoLineElement) SpacecraftData() string { return t.line1[2:8] }

// LaunchData returns the international designator (columns 10-17 of line 1),
// spaces trimmed.
func (t *TwoLineElement) LaunchData() string { return strings.TrimSpace(t.line1[9:17]) }

// SetSpacecraftData replaces the catalog number and classification on both
// lines and recomputes their checksums. The value must be 6 characters: 5
// for the catalog number, 1 for the classification.
func (t *TwoLineElement) SetSpacecraftData(value string) error {
	if len(value) != 6 {
		return &MalformedTLEError{Reason: fmt.Sprintf("spacecraft data (ID + classification) must be 6 characters, got %d", len(value))}
	}
	l1 := []byte(t.line1)
	copy(l1[2:8], value)
	l2 := []byte(t.line2)
	copy(l2[2:7], value[:5])
	return t.rewrite(restamp(l1), restamp(l2))
}

// SetLaunchData replaces the international designator on line 1 and
// recomputes its checksum. The value must be 6, 7 or 8 characters (launch
// year, launch number, piece).
func (t *TwoLineElement) SetLaunchData(value string) error {
	switch len(value) {
	case 6, 7, 8:
	default:
		return &MalformedTLEError{Reason: fmt.Sprintf("launch data (year, number, piece) must be 6 to 8 characters, got %d", len(value))}
	}
	l1 := []byte(t.line1)
	copy(l1[9:9+len(value)], value)
	return t.rewrite(restamp(l1), []byte(t.line2))
}

// rewrite swaps in mutated lines, re-running the full validation so the
// decoded fields stay consistent with the raw text.
func (t *TwoLineElement) rewrite(l1, l2 []byte) error {
	updated, err := New(string(l1), string(l2))
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// restamp recomputes the trailing checksum digit of a mutated line.
func restamp(line []byte) []byte {
	line[lineLength-1] = byte('0' + ComputeChecksum(string(line[:lineLength-1])))
	return line
}

// ComputeChecksum implements the modulo-10 TLE checksum over the 68
// characters preceding the checksum digit: each decimal digit contributes
// its value and each minus sign contributes 1 (Celestlab CL__tle_checksum).
func ComputeChecksum(line string) int {
	sum := 0
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func checkLine(line string, number int) (string, error) {
	line = strings.ReplaceAll(line, "\r", "")
	if len(line) != lineLength {
		return "", &MalformedTLEError{Line: number, Reason: fmt.Sprintf("line must be %d characters, got %d", lineLength, len(line))}
	}
	if line[0] != byte('0'+number) || line[1] != ' ' {
		return "", &MalformedTLEError{Line: number, Reason: fmt.Sprintf("line must start with %q, got %q", fmt.Sprintf("%d ", number), line[:2])}
	}
	want := ComputeChecksum(line[:lineLength-1])
	got := int(line[lineLength-1] - '0')
	if got < 0 || got > 9 {
		return "", &MalformedTLEError{Line: number, Reason: "checksum position does not hold a digit"}
	}
	if want != got {
		return "", &ChecksumError{Line: number, Want: want, Got: got}
	}
	return line, nil
}

func decodeFields(l1, l2 string) (Fields, error) {
	var f Fields
	f.NoradID = strings.TrimSpace(l1[2:7])
	f.Classification = l1[7]
	f.IntlDesignator = strings.TrimSpace(l1[9:17])

	epoch, err := decodeEpoch(l1[18:32])
	if err != nil {
		return Fields{}, &MalformedTLEError{Line: 1, Reason: err.Error()}
	}
	f.Epoch = epoch

	if f.MeanMotionDot, err = parseFloatField(l1[33:43]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 1, Reason: fmt.Sprintf("mean motion derivative: %v", err)}
	}
	if f.MeanMotionDDot, err = parseExponentField(l1[44:52]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 1, Reason: fmt.Sprintf("mean motion second derivative: %v", err)}
	}
	if f.BStar, err = parseExponentField(l1[53:61]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 1, Reason: fmt.Sprintf("bstar: %v", err)}
	}
	if f.ElementSetNumber, err = parseIntField(l1[64:68]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 1, Reason: fmt.Sprintf("element set number: %v", err)}
	}

	if f.Inclination, err = parseFloatField(l2[8:16]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 2, Reason: fmt.Sprintf("inclination: %v", err)}
	}
	if f.RAAN, err = parseFloatField(l2[17:25]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 2, Reason: fmt.Sprintf("RAAN: %v", err)}
	}
	if f.Eccentricity, err = parseFloatField("0." + strings.TrimSpace(l2[26:33])); err != nil {
		return Fields{}, &MalformedTLEError{Line: 2, Reason: fmt.Sprintf("eccentricity: %v", err)}
	}
	if f.ArgPerigee, err = parseFloatField(l2[34:42]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 2, Reason: fmt.Sprintf("argument of perigee: %v", err)}
	}
	if f.MeanAnomaly, err = parseFloatField(l2[43:51]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 2, Reason: fmt.Sprintf("mean anomaly: %v", err)}
	}
	if f.MeanMotion, err = parseFloatField(l2[52:63]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 2, Reason: fmt.Sprintf("mean motion: %v", err)}
	}
	if f.RevolutionNumber, err = parseIntField(l2[63:68]); err != nil {
		return Fields{}, &MalformedTLEError{Line: 2, Reason: fmt.Sprintf("revolution number: %v", err)}
	}
	return f, nil
}

// decodeEpoch converts the YYDDD.DDDDDDDD epoch field to a UTC time. Years
// 57-99 map to the 20th century, following the NORAD convention.
func decodeEpoch(field string) (time.Time, error) {
	yy, err := strconv.Atoi(field[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch year %q: %v", field[:2], err)
	}
	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}
	dayOfYear, err := strconv.ParseFloat(strings.TrimSpace(field[2:]), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch day %q: %v", field[2:], err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %g out of range", dayOfYear)
	}
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return jan1.Add(time.Duration((dayOfYear - 1) * 24 * float64(time.Hour))), nil
}

func parseFloatField(field string) (float64, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseIntField(field string) (int, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// parseExponentField decodes the implied-decimal exponent notation used by
// the bstar and second-derivative fields, e.g. " 43263-4" means 0.43263e-4.
func parseExponentField(field string) (float64, error) {
	s := strings.TrimSpace(field)
	if s == "" {
		return 0, nil
	}
	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	cut := strings.LastIndexAny(s, "+-")
	if cut <= 0 {
		return 0, fmt.Errorf("missing exponent in %q", field)
	}
	mantissa, err := strconv.ParseFloat("0."+s[:cut], 64)
	if err != nil {
		return 0, fmt.Errorf("mantissa of %q: %v", field, err)
	}
	exp, err := strconv.Atoi(s[cut:])
	if err != nil {
		return 0, fmt.Errorf("exponent of %q: %v", field, err)
	}
	return sign * mantissa * pow10(exp), nil
}

func pow10(exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= 10
	}
	for i := 0; i > exp; i-- {
		out /= 10
	}
	return out
}

// SelectClosest picks from a list the element set whose epoch is closest to
// the given date. With forcePast set, only epochs at or before the date are
// eligible. A zero date selects the most recent element set.
func SelectClosest(list []*TwoLineElement, date time.Time, forcePast bool) (*TwoLineElement, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("tle: empty element set list")
	}
	sorted := make([]*TwoLineElement, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Epoch().Before(sorted[j].Epoch()) })

	if date.IsZero() || len(sorted) == 1 {
		return sorted[len(sorted)-1], nil
	}
	if forcePast {
		for i := len(sorted) - 1; i >= 0; i-- {
			if !sorted[i].Epoch().After(date) {
				return sorted[i], nil
			}
		}
		return nil, fmt.Errorf("tle: no element set found before %s", date.Format(time.RFC3339))
	}
	best := sorted[0]
	bestDiff := absDuration(best.Epoch().Sub(date))
	for _, t := range sorted[1:] {
		if d := absDuration(t.Epoch().Sub(date)); d < bestDiff {
			best, bestDiff = t, d
		}
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
