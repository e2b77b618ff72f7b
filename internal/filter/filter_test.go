package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestExact_CaseInsensitive(t *testing.T) {
	v := Exact("Pricing")

	assert.True(t, v.Matches("pricing"))
	assert.True(t, v.Matches("PRICING"))
	assert.False(t, v.Matches("discovery"))
	assert.False(t, v.Matches(""))
}

func TestRange_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		lo, hi  *float64
		field   string
		matches bool
	}{
		{"within closed range", f64(10), f64(20), "15", true},
		{"at lower bound", f64(10), f64(20), "10", true},
		{"at upper bound", f64(10), f64(20), "20", true},
		{"below range", f64(10), f64(20), "9.99", false},
		{"open lower bound", nil, f64(20), "-100", true},
		{"open upper bound", f64(10), nil, "1e6", true},
		{"non-numeric field", f64(0), f64(1), "abc", false},
		{"empty field", f64(0), f64(1), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Range(tt.lo, tt.hi)
			require.NoError(t, err)
			assert.Equal(t, tt.matches, v.Matches(tt.field))
		})
	}
}

func TestRange_Invalid(t *testing.T) {
	_, err := Range(nil, nil)
	assert.Error(t, err, "both bounds open is malformed")

	_, err = Range(f64(5), f64(1))
	assert.Error(t, err, "inverted bounds are malformed")
}

func TestMembership(t *testing.T) {
	v, err := Membership("Pricing", "ObjectionHandling")
	require.NoError(t, err)

	assert.True(t, v.Matches("pricing"))
	assert.True(t, v.Matches("objectionhandling"))
	assert.False(t, v.Matches("closing"))

	_, err = Membership()
	assert.Error(t, err, "empty membership is malformed")
}

func TestZeroValue_MatchesNothing(t *testing.T) {
	var v Value
	assert.False(t, v.Matches("anything"))
	assert.False(t, v.Matches(""))
}

func TestSet_MatchesAll(t *testing.T) {
	stage, err := Membership("Pricing", "Closing")
	require.NoError(t, err)

	s := Set{
		"speaker":     Exact("client"),
		"sales_stage": stage,
	}

	assert.True(t, s.MatchesAll(map[string]string{
		"speaker":     "Client",
		"sales_stage": "pricing",
	}))

	// One failed predicate fails the set.
	assert.False(t, s.MatchesAll(map[string]string{
		"speaker":     "agent",
		"sales_stage": "pricing",
	}))

	// Missing field fails its predicate.
	assert.False(t, s.MatchesAll(map[string]string{
		"speaker": "client",
	}))
}
