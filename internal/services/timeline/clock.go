package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// ErrMalformedTimeReference is returned when a time string has no usable hour and minute
var ErrMalformedTimeReference = errors.New("malformed time reference")

// TimeReferenceError reports the value that could not be parsed
type TimeReferenceError struct {
	Value string
}

func (e *TimeReferenceError) Error() string {
	return fmt.Sprintf("malformed time reference %q", e.Value)
}

func (e *TimeReferenceError) Unwrap() error {
	return ErrMalformedTimeReference
}

// ParseClock returns the minutes since midnight named by s. It accepts
// "HH:MM", "HH:MM:SS" and RFC 3339 date-times, whose wall clock is used as is.
func ParseClock(s string) (int, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, &TimeReferenceError{Value: s}
	}

	if strings.Contains(v, "T") {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return 0, &TimeReferenceError{Value: s}
		}
		return ts.Hour()*60 + ts.Minute(), nil
	}

	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, &TimeReferenceError{Value: s}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, &TimeReferenceError{Value: s}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, &TimeReferenceError{Value: s}
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, &TimeReferenceError{Value: s}
		}
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM", wrapping past midnight.
func FormatClock(minutes int) string {
	m := ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// offsetFrom returns how many minutes after dayStart the clock time falls,
// treating times earlier than dayStart as belonging to the following morning.
func offsetFrom(dayStart, clock int) int {
	return ((clock-dayStart)%minutesPerDay + minutesPerDay) % minutesPerDay
}
