package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

var start = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func TestProject_ZeroElapsedIsPrincipal(t *testing.T) {
	for _, lock := range []int{1, 3, 6, 12} {
		v := Project(dec("50000"), dec("6"), lock, start, start)
		assert.Equal(t, 0, v.MonthsElapsed)
		assertDecimal(t, "50000", v.CurrentValue)
		assert.True(t, v.EarnedInterest.IsZero())
	}
}

func TestProject_MaturityValue(t *testing.T) {
	v := Project(dec("50000"), dec("6"), 6, start, start)
	assertDecimal(t, "51518.87546968828125", v.MaturityValue)
	assertDecimal(t, "1518.87546968828125", v.ProjectedInterest)
}

func TestProject_MonotonicAndClampedAtMaturity(t *testing.T) {
	principal, rate := dec("10000"), dec("12")
	prev := principal
	for day := 0; day <= 200; day += 5 {
		now := start.AddDate(0, 0, day)
		v := Project(principal, rate, 3, start, now)
		assert.True(t, v.CurrentValue.GreaterThanOrEqual(prev), "value dropped on day %d", day)
		prev = v.CurrentValue
	}

	atMaturity := Project(principal, rate, 3, start, MaturityDate(start, 3))
	later := Project(principal, rate, 3, start, start.AddDate(2, 0, 0))
	assertDecimal(t, "10303.01", atMaturity.CurrentValue)
	assert.True(t, atMaturity.CurrentValue.Equal(later.CurrentValue))
	assert.True(t, later.CurrentValue.Equal(later.MaturityValue))
	assert.Equal(t, 3, later.MonthsElapsed)
	assert.Equal(t, 0, later.DaysToMaturity)
}

func TestProject_PartialTerm(t *testing.T) {
	v := Project(dec("10000"), dec("12"), 3, start, start.AddDate(0, 1, 3))
	assert.Equal(t, 1, v.MonthsElapsed)
	assertDecimal(t, "10100", v.CurrentValue)
	assertDecimal(t, "100", v.EarnedInterest)
}

func TestProject_DegenerateInputs(t *testing.T) {
	v := Project(dec("0"), dec("6"), 6, start, start.AddDate(1, 0, 0))
	assert.True(t, v.CurrentValue.IsZero())
	assert.True(t, v.MaturityValue.IsZero())

	v = Project(dec("2500"), dec("6"), 0, start, start.AddDate(1, 0, 0))
	assertDecimal(t, "2500", v.CurrentValue)
	assertDecimal(t, "2500", v.MaturityValue)
	assert.True(t, v.EarnedInterest.IsZero())
}

func TestMonthsElapsed(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		now   time.Time
		want  int
	}{
		{"before start", start, start.AddDate(0, 0, -3), 0},
		{"same instant", start, start, 0},
		{"one day short", start, time.Date(2025, time.February, 14, 10, 0, 0, 0, time.UTC), 0},
		{"exactly one month", start, time.Date(2025, time.February, 15, 10, 0, 0, 0, time.UTC), 1},
		{"across year", start, time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC), 14},
		{"month end", time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), MaturityDate(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsElapsed(tt.start, tt.now))
		})
	}
}

func TestDaysToMaturity(t *testing.T) {
	v := Project(dec("1000"), dec("6"), 1, start, start.AddDate(0, 0, 10).Add(time.Hour))
	// 31 days in January, one hour into day 10
	assert.Equal(t, 21, v.DaysToMaturity)
}
