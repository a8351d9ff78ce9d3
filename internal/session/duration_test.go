package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"bare minutes", "15", 900},
		{"minutes with unit word", "45 minutes", 2700},
		{"localized unit word", "15 phút", 900},
		{"go duration", "1h30m", 5400},
		{"seconds duration", "90s", 90},
		{"empty", "", 1800},
		{"garbage", "abc", 1800},
		{"zero", "0", 1800},
		{"negative duration", "-5m", 1800},
		{"surrounding spaces", "  20 ", 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.input, DefaultDurationSeconds))
		})
	}
}

func TestCountdown(t *testing.T) {
	t.Run("WarnsOnceAndExpiresOnce", func(t *testing.T) {
		c := NewCountdown(123, 121)
		warnings, expiries := 0, 0
		last := c.Remaining()
		for i := 0; i < 130; i++ {
			res := c.Tick()
			assert.LessOrEqual(t, res.Remaining, last)
			last = res.Remaining
			if res.Warn {
				warnings++
				assert.Equal(t, 121, res.Remaining)
			}
			if res.Expired {
				expiries++
			}
		}
		assert.Equal(t, 1, warnings)
		assert.Equal(t, 1, expiries)
		assert.True(t, c.Expired())
		assert.Equal(t, 0, c.Remaining())
	})

	t.Run("ShortTestNeverWarns", func(t *testing.T) {
		c := NewCountdown(60, 121)
		for i := 0; i < 60; i++ {
			assert.False(t, c.Tick().Warn)
		}
		assert.True(t, c.Expired())
	})

	t.Run("ZeroExpiresOnFirstTick", func(t *testing.T) {
		c := NewCountdown(-3, 121)
		assert.Equal(t, 0, c.Remaining())
		res := c.Tick()
		assert.True(t, res.Expired)
		assert.False(t, c.Tick().Expired)
	})
}
