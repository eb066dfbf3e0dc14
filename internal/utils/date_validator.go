package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type DateFormat string

const (
	FormatISO8601     DateFormat = "2006-01-02T15:04:05Z07:00"
	FormatISO8601Date DateFormat = "2006-01-02"
	FormatDateTime    DateFormat = "2006-01-02 15:04:05"

	// Unpadded layouts accept both "5.3.2027" and "05.03.2027".
	FormatLooseISO   DateFormat = "2006-1-2"
	FormatDotDateISO DateFormat = "2006.1.2"
	FormatSlashISO   DateFormat = "2006/1/2"
	FormatDotDate    DateFormat = "2.1.2006"
	FormatDashDate   DateFormat = "2-1-2006"
	FormatSlashDate  DateFormat = "2/1/2006"
	FormatUSDate     DateFormat = "1/2/2006"
	FormatShortMonth DateFormat = "Jan 2, 2006"
	FormatMonthDay   DateFormat = "January 2, 2006"
	FormatSerial     DateFormat = "serial"
)

const (
	// Numbers at or below this are never read as spreadsheet serial dates.
	// 20000 is 1954-10-03, well before any live policy.
	SerialDateThreshold = 20000

	// Serial day of 1970-01-01 in the 1900 date system.
	serialUnixEpoch = 25569
)

type DateValidator struct {
	supportedFormats []DateFormat
}

type ValidationResult struct {
	IsValid        bool
	DetectedFormat DateFormat
	ParsedTime     time.Time
	OriginalValue  string
}

var slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

func NewDateValidator() *DateValidator {
	return &DateValidator{
		supportedFormats: []DateFormat{
			FormatISO8601Date,
			FormatISO8601,
			FormatDateTime,
			FormatLooseISO,
			FormatDotDateISO,
			FormatSlashISO,
			FormatDotDate,
			FormatDashDate,
			FormatSlashDate,
			FormatUSDate,
			FormatShortMonth,
			FormatMonthDay,
		},
	}
}

// ValidateAndConvert parses input as a calendar date. Numeric input above
// SerialDateThreshold is treated as a spreadsheet serial date. The parsed
// time is truncated to midnight UTC.
func (dv *DateValidator) ValidateAndConvert(input string) ValidationResult {
	result := ValidationResult{OriginalValue: input}

	input = strings.TrimSpace(input)
	if input == "" {
		return result
	}

	if serial, err := strconv.ParseFloat(input, 64); err == nil {
		if parsed, ok := FromSerialDate(serial); ok {
			result.IsValid = true
			result.DetectedFormat = FormatSerial
			result.ParsedTime = parsed
		}
		return result
	}

	for _, format := range dv.supportedFormats {
		parsed, err := time.Parse(string(format), input)
		if err != nil || !dv.isValidForFormat(input, format) {
			continue
		}

		result.IsValid = true
		result.DetectedFormat = format
		result.ParsedTime = dateOnly(parsed)
		return result
	}

	return result
}

// Parse is ValidateAndConvert for callers that only need the date.
func (dv *DateValidator) Parse(input string) (time.Time, bool) {
	result := dv.ValidateAndConvert(input)
	return result.ParsedTime, result.IsValid
}

// isValidForFormat resolves DD/MM vs MM/DD: day-first wins unless the first
// component cannot be a day-of-month paired with a valid month.
func (dv *DateValidator) isValidForFormat(input string, format DateFormat) bool {
	switch format {
	case FormatSlashDate:
		first, second, ok := slashComponents(input)
		return ok && second >= 1 && second <= 12 && first >= 1 && first <= 31
	case FormatUSDate:
		first, second, ok := slashComponents(input)
		return ok && first >= 1 && first <= 12 && second > 12 && second <= 31
	default:
		return true
	}
}

func slashComponents(input string) (int, int, bool) {
	matches := slashDatePattern.FindStringSubmatch(input)
	if len(matches) < 4 {
		return 0, 0, false
	}

	first, _ := strconv.Atoi(matches[1])
	second, _ := strconv.Atoi(matches[2])
	return first, second, true
}

// FromSerialDate converts a 1900-system spreadsheet serial day number.
func FromSerialDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= SerialDateThreshold {
		return time.Time{}, false
	}

	days := int(math.Floor(serial)) - serialUnixEpoch
	return time.Unix(0, 0).UTC().AddDate(0, 0, days), true
}

func (dv *DateValidator) GetSupportedFormats() []DateFormat {
	return dv.supportedFormats
}

func (dv *DateValidator) AddCustomFormat(format DateFormat) {
	dv.supportedFormats = append(dv.supportedFormats, format)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
