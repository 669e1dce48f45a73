// Package nmea decodes GPS telemetry logs in NMEA 0183 form, pairing RMC
// and GGA sentences into dated measurement bundles.
package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KnotsToMetersPerSecond converts ground speed from knots to m/s.
const KnotsToMetersPerSecond = 0.514444

const (
	rmcFieldCount = 13
	ggaFieldCount = 15
)

// RMCSentence is a decoded recommended-minimum sentence. Latitude and
// longitude are decimal degrees, ground speed m/s.
type RMCSentence struct {
	UTCTime           string
	Latitude          float64
	Longitude         float64
	GroundSpeed       float64
	CourseOverGround  float64
	Date              time.Time
	MagneticVariation *float64
	PositioningMode   string
	Raw               string
}

// GGASentence is a decoded fix-data sentence. Latitude and longitude are
// decimal degrees, altitudes metres above mean sea level.
type GGASentence struct {
	UTCTime             string
	Latitude            float64
	Longitude           float64
	QualityIndicator    int
	SatellitesUsed      int
	HDOP                float64
	MSLAltitude         float64
	GeoidSeparation     *float64
	DifferentialAge     *float64
	DifferentialStation string
	Raw                 string
}

// checkFrame validates the $...*HH framing and the XOR checksum over the
// payload between them. It returns the payload.
func checkFrame(sentence string) (string, error) {
	if !strings.HasPrefix(sentence, "$") {
		return "", &MalformedSentenceError{Sentence: sentence, Reason: "missing $ start delimiter"}
	}
	star := strings.LastIndexByte(sentence, '*')
	if star < 0 || len(sentence)-star-1 != 2 {
		return "", &MalformedSentenceError{Sentence: sentence, Reason: "missing *HH checksum suffix"}
	}
	payload := sentence[1:star]
	carried, err := strconv.ParseUint(sentence[star+1:], 16, 8)
	if err != nil {
		return "", &MalformedSentenceError{Sentence: sentence, Reason: "checksum is not hexadecimal"}
	}
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum ^= payload[i]
	}
	if sum != byte(carried) {
		return "", &ChecksumError{Sentence: sentence, Want: sum, Got: byte(carried)}
	}
	return payload, nil
}

// ParseRMC decodes an RMC sentence, verifying framing, checksum, field
// count and an active receiver status.
func ParseRMC(sentence string) (*RMCSentence, error) {
	sentence = strings.TrimRight(sentence, "\r\n")
	if _, err := checkFrame(sentence); err != nil {
		return nil, err
	}
	fields := strings.Split(sentence, ",")
	if fields[0] != "$GPRMC" {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: "not an RMC sentence"}
	}
	if len(fields) != rmcFieldCount {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("expected %d fields, got %d", rmcFieldCount, len(fields))}
	}
	if fields[2] != "A" {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("receiver status %q is not active", fields[2])}
	}

	lat, err := parseCoordinate(fields[3], fields[4])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("latitude: %v", err)}
	}
	lon, err := parseCoordinate(fields[5], fields[6])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("longitude: %v", err)}
	}
	speedKnots, err := strconv.ParseFloat(fields[7], 64)
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("ground speed: %v", err)}
	}
	course, err := strconv.ParseFloat(fields[8], 64)
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("course over ground: %v", err)}
	}
	date, err := parseDateTime(fields[9], fields[1])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: err.Error()}
	}
	var magVar *float64
	if fields[10] != "" {
		v, err := strconv.ParseFloat(fields[10], 64)
		if err != nil {
			return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("magnetic variation: %v", err)}
		}
		if fields[11] == "W" {
			v = -v
		}
		magVar = &v
	}
	mode, _, _ := strings.Cut(fields[12], "*")

	return &RMCSentence{
		UTCTime:           fields[1],
		Latitude:          lat,
		Longitude:         lon,
		GroundSpeed:       speedKnots * KnotsToMetersPerSecond,
		CourseOverGround:  course,
		Date:              date,
		MagneticVariation: magVar,
		PositioningMode:   mode,
		Raw:               sentence,
	}, nil
}

// ParseGGA decodes a GGA sentence, verifying framing, checksum, field count
// and the altitude units.
func ParseGGA(sentence string) (*GGASentence, error) {
	sentence = strings.TrimRight(sentence, "\r\n")
	if _, err := checkFrame(sentence); err != nil {
		return nil, err
	}
	fields := strings.Split(sentence, ",")
	if fields[0] != "$GPGGA" {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: "not a GGA sentence"}
	}
	if len(fields) != ggaFieldCount {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("expected %d fields, got %d", ggaFieldCount, len(fields))}
	}

	lat, err := parseCoordinate(fields[2], fields[3])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("latitude: %v", err)}
	}
	lon, err := parseCoordinate(fields[4], fields[5])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("longitude: %v", err)}
	}
	quality, err := strconv.Atoi(fields[6])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("quality indicator: %v", err)}
	}
	sats, err := strconv.Atoi(fields[7])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("satellites used: %v", err)}
	}
	hdop, err := strconv.ParseFloat(fields[8], 64)
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("HDOP: %v", err)}
	}
	altitude, err := parseMeters(fields[9], fields[10])
	if err != nil {
		return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("altitude: %v", err)}
	}
	var geoidSep *float64
	if fields[11] != "" {
		v, err := parseMeters(fields[11], fields[12])
		if err != nil {
			return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("geoid separation: %v", err)}
		}
		geoidSep = &v
	}
	var diffAge *float64
	if fields[13] != "" {
		v, err := strconv.ParseFloat(fields[13], 64)
		if err != nil {
			return nil, &MalformedSentenceError{Sentence: sentence, Reason: fmt.Sprintf("differential age: %v", err)}
		}
		diffAge = &v
	}
	station, _, _ := strings.Cut(fields[14], "*")

	return &GGASentence{
		UTCTime:             fields[1],
		Latitude:            lat,
		Longitude:           lon,
		QualityIndicator:    quality,
		SatellitesUsed:      sats,
		HDOP:                hdop,
		MSLAltitude:         altitude,
		GeoidSeparation:     geoidSep,
		DifferentialAge:     diffAge,
		DifferentialStation: station,
		Raw:                 sentence,
	}, nil
}

// parseCoordinate converts ddmm.mmmm (latitude) or dddmm.mmmm (longitude)
// plus a hemisphere letter to signed decimal degrees. The width of the
// degree part is inferred from the digits before the decimal point.
func parseCoordinate(value, direction string) (float64, error) {
	intPart, _, found := strings.Cut(value, ".")
	if !found {
		return 0, fmt.Errorf("coordinate %q has no decimal point", value)
	}
	degreeDigits := 2
	if len(intPart) == 5 {
		degreeDigits = 3
	}
	if len(intPart) < degreeDigits {
		return 0, fmt.Errorf("coordinate %q too short", value)
	}
	degrees, err := strconv.Atoi(value[:degreeDigits])
	if err != nil {
		return 0, fmt.Errorf("degrees of %q: %v", value, err)
	}
	minutes, err := strconv.ParseFloat(value[degreeDigits:], 64)
	if err != nil {
		return 0, fmt.Errorf("minutes of %q: %v", value, err)
	}
	angle := float64(degrees) + minutes/60
	switch direction {
	case "N", "E":
	case "S", "W":
		angle = -angle
	default:
		return 0, fmt.Errorf("unknown hemisphere %q", direction)
	}
	return angle, nil
}

func parseMeters(value, unit string) (float64, error) {
	if unit != "M" {
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
	return strconv.ParseFloat(value, 64)
}

// parseDateTime combines the ddmmyy date field with the HHMMSS.sss time
// field into a UTC time. Two-digit years 69-99 map to the 1900s.
func parseDateTime(dateField, timeField string) (time.Time, error) {
	if len(dateField) != 6 {
		return time.Time{}, fmt.Errorf("date field %q must be 6 digits", dateField)
	}
	day, err1 := strconv.Atoi(dateField[0:2])
	month, err2 := strconv.Atoi(dateField[2:4])
	yy, err3 := strconv.Atoi(dateField[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("date field %q is not numeric", dateField)
	}
	year := 2000 + yy
	if yy >= 69 {
		year = 1900 + yy
	}

	if len(timeField) < 6 {
		return time.Time{}, fmt.Errorf("time field %q must be at least 6 digits", timeField)
	}
	hour, err1 := strconv.Atoi(timeField[0:2])
	min, err2 := strconv.Atoi(timeField[2:4])
	sec, err3 := strconv.ParseFloat(timeField[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("time field %q is not numeric", timeField)
	}

	wholeSec := int(sec)
	nanos := int((sec - float64(wholeSec)) * 1e9)
	t := time.Date(year, time.Month(month), day, hour, min, wholeSec, nanos, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("date field %q does not name a calendar day", dateField)
	}
	return t, nil
}
