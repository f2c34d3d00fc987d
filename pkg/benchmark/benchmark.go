// Package benchmark provides small wall-clock measurement helpers for
// comparing query and fetch strategies. Failed runs are timed like
// successful ones; the caller decides what a failure means.
package benchmark

import (
	"fmt"
	"time"
)

// Measure runs fn once and returns the elapsed wall time together with
// fn's error.
func Measure(fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	return time.Since(start), err
}

// Stats summarizes repeated runs of one operation.
type Stats struct {
	Runs   int
	Failed int
	Total  time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
}

// MeasureN runs fn n times and aggregates the timings. n below 1 is
// treated as a request for no measurement.
func MeasureN(n int, fn func() error) Stats {
	var s Stats
	if n < 1 {
		return s
	}

	for i := 0; i < n; i++ {
		elapsed, err := Measure(fn)
		if err != nil {
			s.Failed++
		}
		s.Total += elapsed
		if s.Runs == 0 || elapsed < s.Min {
			s.Min = elapsed
		}
		if elapsed > s.Max {
			s.Max = elapsed
		}
		s.Runs++
	}
	s.Mean = s.Total / time.Duration(s.Runs)
	return s
}

// String renders the stats on one line.
func (s Stats) String() string {
	if s.Runs == 0 {
		return "no runs"
	}
	line := fmt.Sprintf("%d runs: total %v, min %v, max %v, mean %v",
		s.Runs, s.Total, s.Min, s.Max, s.Mean)
	if s.Failed > 0 {
		line += fmt.Sprintf(" (%d failed)", s.Failed)
	}
	return line
}

// Comparison holds the measured stats of two named alternatives.
type Comparison struct {
	NameA string
	NameB string
	A     Stats
	B     Stats
}

// Compare measures two operations back to back with the same run
// count.
func Compare(nameA string, a func() error, nameB string, b func() error, runs int) Comparison {
	return Comparison{
		NameA: nameA,
		NameB: nameB,
		A:     MeasureN(runs, a),
		B:     MeasureN(runs, b),
	}
}

// Speedup reports how many times faster A's mean is than B's. Zero
// means the comparison is empty.
func (c Comparison) Speedup() float64 {
	if c.A.Mean <= 0 || c.B.Mean <= 0 {
		return 0
	}
	return float64(c.B.Mean) / float64(c.A.Mean)
}

// String renders both sides and the relative result.
func (c Comparison) String() string {
	speedup := c.Speedup()
	switch {
	case speedup == 0:
		return fmt.Sprintf("%s: %s\n%s: %s", c.NameA, c.A, c.NameB, c.B)
	case speedup >= 1:
		return fmt.Sprintf("%s: %s\n%s: %s\n%s is %.2fx faster than %s",
			c.NameA, c.A, c.NameB, c.B, c.NameA, speedup, c.NameB)
	default:
		return fmt.Sprintf("%s: %s\n%s: %s\n%s is %.2fx faster than %s",
			c.NameA, c.A, c.NameB, c.B, c.NameB, 1/speedup, c.NameA)
	}
}
