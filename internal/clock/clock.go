// Package clock provides the wall-clock helpers the storage layer uses to
// turn relative TTLs into absolute, on-disk timestamps and back.
package clock

import (
	"errors"
	"strconv"
	"time"
)

// ErrClockBeforeEpoch is returned by Now in the (practically unreachable)
// case that the system clock reports a time before the UNIX epoch.
var ErrClockBeforeEpoch = errors.New("clock: system time is before UNIX epoch")

// nowFunc is swappable in tests.
var nowFunc = time.Now

// Now returns the wall-clock duration elapsed since the UNIX epoch.
func Now() (time.Duration, error) {
	now := nowFunc()
	if now.Before(time.Unix(0, 0)) {
		return 0, ErrClockBeforeEpoch
	}
	return time.Duration(now.UnixNano()), nil
}

// EncodeAbsoluteMs returns now()+relative expressed as ASCII-decimal
// milliseconds since the UNIX epoch. On-disk TTLs are always absolute so
// that a restored snapshot doesn't get tripped up by a clock jump between
// the write and the restore.
func EncodeAbsoluteMs(relative time.Duration) ([]byte, error) {
	now, err := Now()
	if err != nil {
		return nil, err
	}
	totalMs := (now + relative).Milliseconds()
	return []byte(strconv.FormatInt(totalMs, 10)), nil
}

// DecodeAbsoluteMs is the inverse of EncodeAbsoluteMs: it parses an
// ASCII-decimal millisecond timestamp back into a Duration since the epoch.
func DecodeAbsoluteMs(b []byte) (time.Duration, error) {
	ms, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// RemainingSince returns the saturating (never negative) duration between
// an absolute on-disk timestamp and the current wall clock.
func RemainingSince(absolute time.Duration) (time.Duration, error) {
	now, err := Now()
	if err != nil {
		return 0, err
	}
	if absolute <= now {
		return 0, nil
	}
	return absolute - now, nil
}

// IsExpired reports whether an absolute on-disk timestamp is now in the past.
func IsExpired(absolute time.Duration) (bool, error) {
	now, err := Now()
	if err != nil {
		return false, err
	}
	return absolute <= now, nil
}
