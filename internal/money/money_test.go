package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0.005", "0.01"},
		{"0.004", "0"},
		{"2.675", "2.68"},
		{"10.125", "10.13"},
		{"220", "220"},
	}
	for _, tc := range cases {
		assert.True(t, Round(d(tc.in)).Equal(d(tc.want)), "Round(%s)", tc.in)
	}
}

func TestPercentAndLineTotal(t *testing.T) {
	assert.Equal(t, "20.00", Percent(d("200.00"), d("0.10")).StringFixed(2))
	assert.Equal(t, "0.08", Percent(d("1.00"), d("0.075")).StringFixed(2))
	assert.Equal(t, "200.00", LineTotal(2, d("100.00")).StringFixed(2))
	assert.Equal(t, "3.33", LineTotal(3, d("1.11")).StringFixed(2))
}

func TestValidRate(t *testing.T) {
	assert.True(t, ValidRate(d("0")))
	assert.True(t, ValidRate(d("1")))
	assert.True(t, ValidRate(d("0.075")))
	assert.False(t, ValidRate(d("1.01")))
	assert.False(t, ValidRate(d("-0.1")))
	assert.False(t, ValidRate(d("0.12345")))
}

func TestParse(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"20,000", "20000"},
		{"₦ 220.00", "220"},
		{" -40.50 ", "-40.5"},
		{"1,234.56", "1234.56"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, got.Equal(d(tc.want)), "Parse(%q) = %s", tc.in, got)
	}

	_, err := Parse("abc")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "₦220.00", Format("₦", d("220")))
	assert.Equal(t, "₦1,234.50", Format("₦", d("1234.5")))
	assert.Equal(t, "-₦40.00", Format("₦", d("-40")))
	assert.Equal(t, "$0.01", Format("$", d("0.005")))
	assert.Equal(t, "10%", FormatRate(d("0.10")))
	assert.Equal(t, "7.5%", FormatRate(d("0.075")))
}
