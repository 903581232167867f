package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMB(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  float64
	}{
		{"small file", 20_000, 0.02},
		{"rounds to two decimals", 12_345_678, 12.35},
		{"zero", 0, 0},
		{"exactly one MB", 1_000_000, 1},
		{"rounds down", 1_234_000, 1.23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToMB(tt.bytes)
			assert.InDelta(t, tt.want, got, 0.001)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestAgainst_NoLimit_AlwaysOK(t *testing.T) {
	// Given: no configured limit
	// When: any value is measured
	o := Against("bundle size", 99999, nil)

	// Then: the outcome is informational
	assert.Equal(t, StatusOK, o.Status)
	assert.Nil(t, o.Limit)
	assert.Contains(t, o.Message, "no limit")
}

func TestAgainst_Exceeded_Fails(t *testing.T) {
	limit := 10.0
	o := Against("bundle size", 12, &limit)

	assert.Equal(t, StatusFail, o.Status)
	assert.Contains(t, o.Message, "12")
	assert.Contains(t, o.Message, "10")
	require.NotNil(t, o.Limit)
	assert.Equal(t, 10.0, *o.Limit)
}

func TestAgainst_LargeValues(t *testing.T) {
	limit := 900.0
	o := Against("node_modules size", 1000, &limit)

	assert.Equal(t, StatusFail, o.Status)
	assert.Contains(t, o.Message, "1000")
	assert.Contains(t, o.Message, "900")
}

func TestAgainst_WithinLimit_OK(t *testing.T) {
	limit := 10.0
	o := Against("bundle size", 9.5, &limit)

	assert.Equal(t, StatusOK, o.Status)
	assert.Contains(t, o.Message, "9.5")
	assert.Contains(t, o.Message, "10")
}

func TestAgainst_EqualToLimit_OK(t *testing.T) {
	// Boundary: measured == limit is not an overrun
	limit := 10.0
	o := Against("bundle size", 10, &limit)

	assert.Equal(t, StatusOK, o.Status)
}

func TestCount_Exceeded(t *testing.T) {
	max := 10
	o := Count("node modules", 11, &max)

	assert.Equal(t, StatusFail, o.Status)
	assert.Contains(t, o.Message, "11/10")
}

func TestCount_NoLimit(t *testing.T) {
	o := Count("node modules", 500, nil)

	assert.Equal(t, StatusOK, o.Status)
	assert.Nil(t, o.Limit)
}

func TestCount_WithinLimit(t *testing.T) {
	max := 10
	o := Count("node modules", 10, &max)

	assert.Equal(t, StatusOK, o.Status)
	assert.Contains(t, o.Message, "10/10")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "OK", StatusOK.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.Equal(t, "UNKNOWN", Status(42).String())
}
