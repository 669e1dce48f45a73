package tle

import "fmt"

// MalformedTLEError reports a structural problem in a two-line element set:
// wrong line length, wrong line number, mismatched catalog numbers, or an
// unparseable field.
type MalformedTLEError struct {
	Line   int // 1 or 2, 0 when the problem spans both lines
	Reason string
}

func (e *MalformedTLEError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("tle: malformed element set: %s", e.Reason)
	}
	return fmt.Sprintf("tle: malformed line %d: %s", e.Line, e.Reason)
}

// ChecksumError reports a line whose modulo-10 checksum digit does not match
// the line content.
type ChecksumError struct {
	Line int
	Want int
	Got  int
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("tle: line %d checksum mismatch: computed %d, line carries %d", e.Line, e.Want, e.Got)
}
