package nmea

import "fmt"

// MalformedSentenceError reports a sentence that does not match its expected
// shape: wrong field count, bad framing, an unparseable field, or an
// inactive receiver status.
type MalformedSentenceError struct {
	Sentence string
	Reason   string
}

func (e *MalformedSentenceError) Error() string {
	return fmt.Sprintf("nmea: malformed sentence %q: %s", e.Sentence, e.Reason)
}

// ChecksumError reports a framed sentence whose XOR checksum does not match
// its payload.
type ChecksumError struct {
	Sentence string
	Want     byte
	Got      byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("nmea: checksum mismatch in %q: computed %02X, sentence carries %02X", e.Sentence, e.Want, e.Got)
}
