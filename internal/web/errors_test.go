package web

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"field errors", core.FieldErrors{"minPrice": "minimum price must be a number"}, http.StatusUnprocessableEntity},
		{"validation", &core.ValidationError{Field: "price", Message: "price must be 0 or more"}, http.StatusBadRequest},
		{"unauthorized", fmt.Errorf("%w: no session", core.ErrUnauthorized), http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("%w: admin only", core.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("part 9 %w", core.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: taken", core.ErrConflict), http.StatusConflict},
		{"busy", core.ErrTooManyImports, http.StatusServiceUnavailable},
		{"storage", fmt.Errorf("list: %w", core.ErrStorage), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := &rateLimiter{
		visitors: map[string]*visitor{},
		rate:     2,
		window:   time.Minute,
		now:      func() time.Time { return now },
		done:     make(chan struct{}),
	}

	ok, _ := rl.allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.allow("10.0.0.1")
	assert.True(t, ok)

	now = now.Add(20 * time.Second)
	ok, wait := rl.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)

	ok, _ = rl.allow("10.0.0.2")
	assert.True(t, ok, "limits are per address")

	now = now.Add(40 * time.Second)
	ok, _ = rl.allow("10.0.0.1")
	assert.True(t, ok, "a new window starts after the old one ends")

	now = now.Add(3 * time.Minute)
	rl.evictIdle()
	assert.Empty(t, rl.visitors)
}
