// Package otime provides frame-accurate time values for media timelines.
//
// A RationalTime is a value counted at a rate (for example frame 12 at 24
// frames per second). A TimeRange is a start time plus a duration; its
// inclusive end is the last frame inside the range.
package otime

import (
	"fmt"
	"math"
)

// RationalTime is a time value expressed in units of 1/Rate seconds.
type RationalTime struct {
	Value float64
	Rate  float64
}

// New returns a RationalTime.
func New(value, rate float64) RationalTime {
	return RationalTime{Value: value, Rate: rate}
}

// FromSeconds returns the time for a number of seconds at rate 1.
func FromSeconds(seconds float64) RationalTime {
	return RationalTime{Value: seconds, Rate: 1}
}

// IsValid reports whether the rate is positive.
func (t RationalTime) IsValid() bool {
	return t.Rate > 0
}

// RescaledTo returns the same instant expressed at another rate.
func (t RationalTime) RescaledTo(rate float64) RationalTime {
	if t.Rate == rate || t.Rate == 0 {
		return RationalTime{Value: t.Value, Rate: rate}
	}
	return RationalTime{Value: t.Value * rate / t.Rate, Rate: rate}
}

// Seconds returns the time in seconds.
func (t RationalTime) Seconds() float64 {
	if t.Rate == 0 {
		return 0
	}
	return t.Value / t.Rate
}

// Frames returns the value rounded down to a whole count at the time's rate.
func (t RationalTime) Frames() int64 {
	return int64(math.Floor(t.Value))
}

// Round returns the value rounded to the nearest whole unit.
func (t RationalTime) Round() RationalTime {
	return RationalTime{Value: math.Round(t.Value), Rate: t.Rate}
}

// Add returns t + o expressed at t's rate.
func (t RationalTime) Add(o RationalTime) RationalTime {
	return RationalTime{Value: t.Value + o.RescaledTo(t.Rate).Value, Rate: t.Rate}
}

// Sub returns t - o expressed at t's rate.
func (t RationalTime) Sub(o RationalTime) RationalTime {
	return RationalTime{Value: t.Value - o.RescaledTo(t.Rate).Value, Rate: t.Rate}
}

// Compare returns -1, 0 or 1 when t is before, equal to, or after o.
func (t RationalTime) Compare(o RationalTime) int {
	a, b := t.Seconds(), o.Seconds()
	const eps = 1e-9
	switch {
	case a < b-eps:
		return -1
	case a > b+eps:
		return 1
	}
	return 0
}

// Before reports whether t is strictly before o.
func (t RationalTime) Before(o RationalTime) bool { return t.Compare(o) < 0 }

// After reports whether t is strictly after o.
func (t RationalTime) After(o RationalTime) bool { return t.Compare(o) > 0 }

// Equal reports whether t and o denote the same instant.
func (t RationalTime) Equal(o RationalTime) bool { return t.Compare(o) == 0 }

// String returns "value@rate".
func (t RationalTime) String() string {
	return fmt.Sprintf("%g@%g", t.Value, t.Rate)
}

// Timecode formats the time as HH:MM:SS:FF using the nearest integral rate.
// Negative times and invalid rates return "00:00:00:00".
func (t RationalTime) Timecode() string {
	fps := int64(math.Round(t.Rate))
	if fps <= 0 || t.Value < 0 {
		return "00:00:00:00"
	}
	frames := int64(math.Round(t.Value))
	ff := frames % fps
	total := frames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", total/3600, (total/60)%60, total%60, ff)
}
