package volatility

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "macrostudy/internal/errors"
)

func TestRealizedVol(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name        string
		returns     []float64
		tradingDays int
		ddof        int
		want        float64
	}{
		{"sample std", []float64{1, 2, 3, 4}, 1, 1, math.Sqrt(5.0 / 3.0)},
		{"population std", []float64{1, 2, 3, 4}, 1, 0, math.Sqrt(1.25)},
		{"annualized", []float64{1, 2, 3, 4}, 252, 1, math.Sqrt(5.0/3.0) * math.Sqrt(252)},
		{"nan dropped", []float64{nan, 1, 2, nan, 3, 4}, 1, 1, math.Sqrt(5.0 / 3.0)},
		{"zero returns", []float64{0, 0, 0, 0}, 252, 1, 0},
		{"constant returns", []float64{0.25, 0.25, 0.25}, 252, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RealizedVol(tt.returns, tt.tradingDays, tt.ddof), 1e-12)
		})
	}
}

func TestInsufficientData(t *testing.T) {
	nan := math.NaN()
	windows := [][]float64{
		nil,
		{},
		{0.01},
		{nan},
		{nan, 0.02, nan},
	}

	for _, w := range windows {
		assert.True(t, Insufficient(RealizedVol(w, 252, 1)), "realized %v", w)
		assert.True(t, Insufficient(RealizedVol(w, 1, 0)), "realized ddof=0 %v", w)

		v, err := EWMAVol(w, 0.94, 252)
		require.NoError(t, err)
		assert.True(t, Insufficient(v), "ewma %v", w)
	}

	assert.False(t, Insufficient(0))
}

func TestEWMAVol(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03}
	lam := 0.94

	mean := (0.01 - 0.02 + 0.03) / 3
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= 2
	for _, r := range returns {
		variance = lam*variance + (1-lam)*r*r
	}
	want := math.Sqrt(variance * 252)

	got, err := EWMAVol(returns, lam, 252)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	t.Run("zero returns", func(t *testing.T) {
		v, err := EWMAVol([]float64{0, 0, 0, 0, 0}, lam, 252)
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	})

	t.Run("order matters", func(t *testing.T) {
		fwd, err := EWMAVol([]float64{0.001, 0.001, 0.05}, lam, 252)
		require.NoError(t, err)
		rev, err := EWMAVol([]float64{0.05, 0.001, 0.001}, lam, 252)
		require.NoError(t, err)
		assert.Greater(t, fwd, rev)
	})

	t.Run("nan dropped before seeding", func(t *testing.T) {
		withNaN, err := EWMAVol([]float64{math.NaN(), 0.01, -0.02, 0.03}, lam, 252)
		require.NoError(t, err)
		assert.InDelta(t, want, withNaN, 1e-12)
	})
}

func TestEWMAVolInvalidLambda(t *testing.T) {
	for _, lam := range []float64{0, 1, -0.5, 1.5, math.NaN(), math.Inf(1)} {
		v, err := EWMAVol([]float64{0.01, 0.02, 0.03}, lam, 252)
		require.Error(t, err, "lambda %v", lam)
		assert.True(t, errors.Is(err, ErrInvalidParameter))
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidParameter))
		assert.True(t, math.IsNaN(v))
	}

	// invalid lambda fails even when the window is too short to estimate
	_, err := EWMAVol(nil, 0, 252)
	assert.Error(t, err)
}

func TestRolling(t *testing.T) {
	returns := []float64{math.NaN(), 1, 2, 3, 4, math.NaN()}

	got := Rolling(returns, 3, 1)
	require.Len(t, got, len(returns))

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, math.Sqrt(0.5), got[2], 1e-12) // {NaN,1,2}
	assert.InDelta(t, 1.0, got[3], 1e-12)            // {1,2,3}
	assert.InDelta(t, 1.0, got[4], 1e-12)            // {2,3,4}
	assert.InDelta(t, math.Sqrt(0.5), got[5], 1e-12) // {3,4,NaN}

	for _, v := range Rolling(returns, 1, 1) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestDropNaN(t *testing.T) {
	nan := math.NaN()

	assert.Equal(t, []float64{1, -2, 0}, DropNaN([]float64{nan, 1, nan, -2, 0}))
	assert.Empty(t, DropNaN([]float64{nan, nan}))
	assert.Empty(t, DropNaN(nil))
}
