package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"superca/internal/domain"
)

func TestParsePaise_ProviderFormats(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1200000", 120000000},
		{"12,00,000", 120000000},
		{"₹12,00,000.00", 120000000},
		{"Rs. 10,050", 1005000},
		{"INR 500.5", 50050},
		{"500.555", 50055}, // extra precision truncated
		{"-1,250.75", -125075},
		{"0", 0},
		{".50", 50},
	}
	for _, tc := range cases {
		got, err := domain.ParsePaise(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParsePaise_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "N/A", "12..50", "ten lakh"} {
		_, err := domain.ParsePaise(in)
		assert.Error(t, err, in)
	}
}

func TestFormatPaise(t *testing.T) {
	assert.Equal(t, "12000.00", domain.FormatPaise(1200000))
	assert.Equal(t, "0.05", domain.FormatPaise(5))
	assert.Equal(t, "-1250.75", domain.FormatPaise(-125075))
}

func TestRoundTaxTo10(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{0, 0},
		{499, 0},        // 4.99 rupees rounds down
		{500, 1000},     // 5 rupees rounds up
		{1234500, 1235000},
		{1234400, 1234000},
		{-1234500, -1235000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, domain.RoundTaxTo10(tc.in), "input %d", tc.in)
	}
}

func TestRupeesToPaise(t *testing.T) {
	assert.Equal(t, int64(10000), domain.RupeesToPaise(100))
}
