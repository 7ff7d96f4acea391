package otime

import "fmt"

// TimeRange is a half-open interval [Start, Start+Duration).
type TimeRange struct {
	Start    RationalTime
	Duration RationalTime
}

// NewRange returns a range from a start time and a duration.
func NewRange(start, duration RationalTime) TimeRange {
	return TimeRange{Start: start, Duration: duration}
}

// RangeFromInclusive returns the range whose first and last frames are
// start and end, at start's rate.
func RangeFromInclusive(start, end RationalTime) TimeRange {
	end = end.RescaledTo(start.Rate)
	return TimeRange{
		Start:    start,
		Duration: RationalTime{Value: end.Value - start.Value + 1, Rate: start.Rate},
	}
}

// IsValid reports whether both times have a positive rate.
func (r TimeRange) IsValid() bool {
	return r.Start.IsValid() && r.Duration.IsValid()
}

// EndExclusive returns the first instant after the range.
func (r TimeRange) EndExclusive() RationalTime {
	return r.Start.Add(r.Duration)
}

// EndInclusive returns the last frame inside the range, one unit of the
// duration's rate before EndExclusive.
func (r TimeRange) EndInclusive() RationalTime {
	end := r.EndExclusive()
	if r.Duration.Value < 1 {
		return r.Start
	}
	step := RationalTime{Value: 1, Rate: r.Duration.Rate}
	return end.Sub(step)
}

// Contains reports whether t lies in [Start, EndExclusive).
func (r TimeRange) Contains(t RationalTime) bool {
	return !t.Before(r.Start) && t.Before(r.EndExclusive())
}

// RescaledTo returns the range with both times expressed at rate.
func (r TimeRange) RescaledTo(rate float64) TimeRange {
	return TimeRange{Start: r.Start.RescaledTo(rate), Duration: r.Duration.RescaledTo(rate)}
}

// String returns "start+duration".
func (r TimeRange) String() string {
	return fmt.Sprintf("%s+%s", r.Start, r.Duration)
}
