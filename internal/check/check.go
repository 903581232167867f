// Package check classifies measured build quantities against configured limits.
package check

import (
	"fmt"
	"math"
)

// Status represents the classification of a threshold check.
type Status int

const (
	// StatusOK indicates the measurement is within its limit (or no limit is set).
	StatusOK Status = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the measurement exceeded its limit.
	StatusFail
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Outcome holds the result of a single threshold check.
type Outcome struct {
	Name     string   `json:"name"`
	Status   Status   `json:"status"`
	Message  string   `json:"message"`
	Measured float64  `json:"measured"`
	Limit    *float64 `json:"limit,omitempty"`
}

// Against compares a measured size in MB against an optional limit.
// A nil limit means the check is informational and always passes.
func Against(name string, measured float64, limit *float64) Outcome {
	o := Outcome{
		Name:     name,
		Measured: measured,
		Limit:    limit,
	}

	if limit == nil {
		o.Status = StatusOK
		o.Message = fmt.Sprintf("%s: %.2f MB (no limit configured)", name, measured)
		return o
	}

	if measured > *limit {
		o.Status = StatusFail
		o.Message = fmt.Sprintf("%s: %.2f MB exceeds limit of %.2f MB", name, measured, *limit)
		return o
	}

	o.Status = StatusOK
	o.Message = fmt.Sprintf("%s: %.2f MB within limit of %.2f MB", name, measured, *limit)
	return o
}

// Count compares a unit-less count against an optional maximum.
// Same semantics as Against: nil limit means informational only.
func Count(name string, measured int, limit *int) Outcome {
	o := Outcome{
		Name:     name,
		Measured: float64(measured),
	}

	if limit == nil {
		o.Status = StatusOK
		o.Message = fmt.Sprintf("%s: %d (no limit configured)", name, measured)
		return o
	}

	mb := float64(*limit)
	o.Limit = &mb

	if measured > *limit {
		o.Status = StatusFail
		o.Message = fmt.Sprintf("%s: %d/%d exceeds maximum", name, measured, *limit)
		return o
	}

	o.Status = StatusOK
	o.Message = fmt.Sprintf("%s: %d/%d within maximum", name, measured, *limit)
	return o
}

// ToMB converts a byte count to decimal megabytes (1 MB = 1,000,000 bytes)
// rounded to two decimal places.
func ToMB(bytes int64) float64 {
	return math.Round(float64(bytes)/1_000_000*100) / 100
}
