package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	want := date(2025, time.May, 10)
	for _, raw := range []string{
		"2025-05-10",
		"2025.05.10",
		"2025/5/10",
		"20250510",
		"05/10/2025",
		"05-10-25",
		"2025-05-10 14:30:00",
		"2025-05-10T14:30:00",
		"2025년 5월 10일",
		"2025-05-10(토)",
		" 2025-05-10 ",
		"45787",
	} {
		got, ok := ParseDate(raw)
		if assert.True(t, ok, raw) {
			assert.Equal(t, want, got, raw)
		}
	}

	for _, raw := range []string{"", "abc", "12", "2025-13-40", "Total"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestParseMonth(t *testing.T) {
	want := date(2025, time.March, 1)
	for _, raw := range []string{"2025-03", "2025/3", "202503", "Mar 2025", "2025년 3월", "2025-03-17"} {
		got, ok := ParseMonth(raw)
		if assert.True(t, ok, raw) {
			assert.Equal(t, want, got, raw)
		}
	}

	key, ok := NormalizeMonth("2025.3")
	assert.True(t, ok)
	assert.Equal(t, "2025-03", key)

	_, ok = NormalizeMonth("march")
	assert.False(t, ok)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want decimal.Decimal
	}{
		{"1,234,567", decimal.NewFromInt(1234567)},
		{"₩ 50,000", decimal.NewFromInt(50000)},
		{"50,000원", decimal.NewFromInt(50000)},
		{"(1,000)", decimal.NewFromInt(-1000)},
		{"KRW 1.5", decimal.RequireFromString("1.5")},
		{"1.2e5", decimal.NewFromInt(120000)},
		{"-", decimal.Zero},
		{"", decimal.Zero},
		{"NaN", decimal.Zero},
		{"Inf", decimal.Zero},
		{"abc", decimal.Zero},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.raw)
		assert.True(t, tt.want.Equal(got), "%q: got %s", tt.raw, got)
	}
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 2, ParseCount("2.7"))
	assert.Equal(t, 1200, ParseCount("1,200"))
	assert.Equal(t, 0, ParseCount("n/a"))
	assert.Equal(t, MaxCount, ParseCount("2147483647"))
	assert.Equal(t, 0, ParseCount("2147483648"))
	assert.Equal(t, 0, ParseCount("5,000,000,000"))
	assert.Equal(t, 0, ParseCount("99999999999999999999999"))
	assert.Equal(t, 0, ParseCount("-99999999999999999999999"))
}
