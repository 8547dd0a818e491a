package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var unitSeconds = map[rune]int64{
	'd': 86400,
	'h': 3600,
	'm': 60,
	's': 1,
}

const maxSeconds = math.MaxInt64 / int64(time.Second)

// ParseDuration reads free text such as "1d2h30m" into a positive duration.
// Seconds are the base unit. Characters are buffered until a unit letter is
// seen, at which point the buffer must hold a plain decimal number. Digits
// left over without a unit are rejected rather than ignored.
func ParseDuration(text string) (time.Duration, error) {
	if text == "" {
		return 0, ErrDurationEmpty
	}

	var total int64
	var buffer strings.Builder

	for _, r := range text {
		multiplier, ok := unitSeconds[r]
		if !ok {
			buffer.WriteRune(r)
			continue
		}

		n, err := parseAmount(buffer.String())
		if err != nil {
			return 0, err
		}

		if n > (maxSeconds-total)/multiplier {
			return 0, ErrDurationOverflow
		}
		total += n * multiplier
		buffer.Reset()
	}

	if buffer.Len() > 0 {
		return 0, fmt.Errorf("%w: %q has no unit", ErrDurationSyntax, buffer.String())
	}

	if total == 0 {
		return 0, ErrDurationZero
	}

	return time.Duration(total) * time.Second, nil
}

func parseAmount(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: missing number", ErrDurationSyntax)
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrDurationSyntax, s)
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, ErrDurationOverflow
		}
		return 0, fmt.Errorf("%w: %q", ErrDurationSyntax, s)
	}

	return n, nil
}

// FormatDuration renders d with the same units ParseDuration accepts,
// skipping empty ones, e.g. "1d 2h 30m".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return "0s"
	}

	var parts []string
	for _, unit := range []struct {
		suffix string
		size   int64
	}{{"d", 86400}, {"h", 3600}, {"m", 60}, {"s", 1}} {
		if n := seconds / unit.size; n > 0 {
			parts = append(parts, strconv.FormatInt(n, 10)+unit.suffix)
			seconds %= unit.size
		}
	}

	return strings.Join(parts, " ")
}
