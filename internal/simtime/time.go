// Package simtime defines simulated time and the modular arithmetic the virtual
// clock is built on.
//
// Time is an integer count of picoseconds, so remainders and differences are
// exact. The same type denotes points on the simulated timeline and spans
// between them.
package simtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Time is a point or span of simulated time in picoseconds.
type Time int64

// Common units of simulated time.
const (
	Zero        Time = 0
	Picosecond  Time = 1
	Nanosecond       = 1000 * Picosecond
	Microsecond      = 1000 * Nanosecond
	Millisecond      = 1000 * Microsecond
	Second           = 1000 * Millisecond
)

// Bounds of representable simulated time.
const (
	MaxTime = Time(math.MaxInt64)
	MinTime = Time(math.MinInt64)
)

var units = []struct {
	suffix string
	value  Time
}{
	{"s", Second},
	{"ms", Millisecond},
	{"us", Microsecond},
	{"ns", Nanosecond},
	{"ps", Picosecond},
}

// FromSeconds converts seconds to simulated time, rounding to the nearest
// picosecond. Values beyond MaxTime picoseconds are rejected.
func FromSeconds(s float64) (Time, error) {
	t, ok := scale(s, Second)
	if !ok {
		return 0, fmt.Errorf("%g seconds out of range", s)
	}
	return t, nil
}

func scale(v float64, unit Time) (Time, bool) {
	scaled := v * float64(unit)
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) || math.Abs(scaled) >= float64(MaxTime) {
		return 0, false
	}
	return Time(math.Round(scaled)), true
}

// Add returns a+b, saturating at MaxTime and MinTime.
func Add(a, b Time) Time {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return MaxTime
	case a < 0 && b < 0 && sum >= 0:
		return MinTime
	}
	return sum
}

// Mul returns t*n, saturating at MaxTime and MinTime.
func Mul(t Time, n uint64) Time {
	switch {
	case t == 0 || n == 0:
		return 0
	case t > 0 && n > uint64(MaxTime/t):
		return MaxTime
	case t < 0 && n > uint64(MinTime/t):
		return MinTime
	}
	return t * Time(n)
}

// Scale multiplies t by f, rounding to the nearest picosecond.
func Scale(t Time, f float64) Time {
	return Time(math.Round(float64(t) * f))
}

// Seconds returns t as a floating point number of seconds.
func (t Time) Seconds() float64 {
	return float64(t) / float64(Second)
}

// String formats t with the largest unit that divides it exactly, e.g. "10ns"
// or "1500ps".
func (t Time) String() string {
	if t == 0 {
		return "0s"
	}
	for _, u := range units {
		if t%u.value == 0 {
			return strconv.FormatInt(int64(t/u.value), 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(t), 10) + "ps"
}

// Parse parses a decimal number followed by a unit suffix (ps, ns, us, ms, s).
// The bare string "0" is accepted. Fractions are rounded to the nearest
// picosecond.
func Parse(s string) (Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "0" {
		return 0, nil
	}
	for _, u := range units {
		// "s" is a suffix of every other unit; longer suffixes are tried first.
		if u.suffix == "s" {
			continue
		}
		if num, ok := strings.CutSuffix(raw, u.suffix); ok {
			return parseScaled(s, num, u.value)
		}
	}
	if num, ok := strings.CutSuffix(raw, "s"); ok {
		return parseScaled(s, num, Second)
	}
	return 0, fmt.Errorf("parse time %q: missing unit", s)
}

func parseScaled(orig, num string, unit Time) (Time, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", orig, err)
	}
	t, ok := scale(v, unit)
	if !ok {
		return 0, fmt.Errorf("parse time %q: out of range", orig)
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Use only in tests and for
// compiled constants.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}
