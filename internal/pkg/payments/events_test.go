package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalForPeriod(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	day := int64(24 * 60 * 60)

	tests := []struct {
		name  string
		start int64
		end   int64
		want  string
	}{
		{"monthly span", base, base + 30*day, "Monthly"},
		{"exactly 35 days is monthly", base, base + 35*day, "Monthly"},
		{"annual span", base, base + 365*day, "Annual"},
		{"just over the cutoff", base, base + 36*day, "Annual"},
		{"zero period defaults to monthly", 0, 0, "Monthly"},
		{"inverted period defaults to monthly", base + day, base, "Monthly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntervalForPeriod(tt.start, tt.end))
		})
	}
}

func TestCheckoutSessionFirstEmail(t *testing.T) {
	s := CheckoutSession{CustomerEmail: "top@example.com"}
	s.CustomerDetails.Email = "nested@example.com"
	assert.Equal(t, "top@example.com", s.FirstEmail())

	s.CustomerEmail = " "
	assert.Equal(t, "nested@example.com", s.FirstEmail())

	s.CustomerDetails.Email = ""
	assert.Equal(t, "", s.FirstEmail())
}

func TestUnixTime(t *testing.T) {
	assert.Nil(t, unixTime(0))
	assert.Nil(t, unixTime(-5))

	ts := unixTime(1717000000)
	assert.NotNil(t, ts)
	assert.Equal(t, int64(1717000000), ts.Unix())
}
