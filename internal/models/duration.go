package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration is worked time with second precision.
type Duration int64

// Common durations.
const (
	Second Duration = 1
	Minute          = 60 * Second
	Hour            = 60 * Minute
	Day             = 24 * Hour
)

// ErrInvalidDuration is returned when a duration string cannot be parsed.
var ErrInvalidDuration = errors.New("invalid duration")

// DurationOf converts a time.Duration, dropping sub-second precision.
func DurationOf(d time.Duration) Duration {
	return Duration(d / time.Second)
}

// Seconds returns the number of whole seconds.
func (d Duration) Seconds() int64 {
	return int64(d)
}

// Hours returns the duration as fractional hours.
func (d Duration) Hours() float64 {
	return float64(d) / 3600
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d) * time.Second
}

// Clock renders HH:MM with floor semantics; hours may exceed 24.
func (d Duration) Clock() string {
	secs := int64(d)
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, hours, minutes)
}

// String renders "[D ]HH:MM:SS", the wire format for worked time.
func (d Duration) String() string {
	secs := int64(d)
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	days := secs / 86400
	secs %= 86400
	clock := fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	if days > 0 {
		return fmt.Sprintf("%s%d %s", sign, days, clock)
	}
	return sign + clock
}

// ParseDuration accepts "HH:MM:SS", "HH:MM", "D HH:MM:SS", a bare number of
// seconds, or a Go duration string such as "1h30m". A leading "-" negates.
func ParseDuration(s string) (Duration, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, ErrInvalidDuration
	}

	if !strings.Contains(raw, ":") {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return durationFromSeconds(n)
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return DurationOf(d), nil
	}

	negative := false
	if strings.HasPrefix(raw, "-") {
		negative = true
		raw = strings.TrimSpace(raw[1:])
	}

	var days int64
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		n, err := strconv.ParseInt(raw[:i], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		days = n
		raw = strings.TrimSpace(raw[i+1:])
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	var seconds int64
	if len(parts) == 3 {
		f, err := strconv.ParseFloat(parts[2], 64)
		if err != nil || f < 0 || f >= 60 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		seconds = int64(f)
	}

	total := days*86400 + hours*3600 + minutes*60 + seconds
	if negative {
		total = -total
	}
	return Duration(total), nil
}

// durationFromSeconds truncates n to whole seconds. Values outside the int64
// range and NaN are rejected.
func durationFromSeconds(n float64) (Duration, error) {
	// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range.
	if math.IsNaN(n) || n >= math.MaxInt64 || n < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v seconds out of range", ErrInvalidDuration, n)
	}
	return Duration(n), nil
}

// MarshalJSON encodes the duration in its "[D ]HH:MM:SS" form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a string understood by ParseDuration or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		parsed, err := durationFromSeconds(n)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDuration
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the duration as integer seconds.
func (d Duration) Value() (driver.Value, error) {
	return int64(d), nil
}

// Scan reads integer seconds.
func (d *Duration) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*d = Duration(v)
	case float64:
		*d = Duration(v)
	case nil:
		*d = 0
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan duration: %w", err)
		}
		*d = Duration(n)
	default:
		return fmt.Errorf("scan duration: unsupported type %T", src)
	}
	return nil
}
