package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterDeniesOverLimit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d", i+1)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Greater(t, res.RetryAfter, time.Duration(0))

	// Otra key no se ve afectada.
	res, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiterPrunesExpiredWindows(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)

	clock := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for _, k := range []string{"a", "b", "c"} {
		_, err := l.Allow(ctx, k)
		require.NoError(t, err)
	}
	require.Len(t, l.win, 3)

	// Dos ventanas después, un hit nuevo barre todas las keys viejas.
	clock = clock.Add(2 * time.Minute)
	_, err := l.Allow(ctx, "d")
	require.NoError(t, err)

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, l.win, 1)
	require.Len(t, l.hits, 1)
	require.Contains(t, l.win, "d")
}
