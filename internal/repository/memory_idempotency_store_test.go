package repository

import (
	"context"
	"testing"
	"time"

	"valentine-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	rec := &domain.Response{ID: 5, Answer: true, Timestamp: time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)}

	t.Run("Reserve, in flight, complete, replay", func(t *testing.T) {
		s := NewMemoryIdempotencyStore(time.Minute, time.Hour)

		got, err := s.Reserve(ctx, "k1")
		require.NoError(t, err)
		assert.Nil(t, got)

		_, err = s.Reserve(ctx, "k1")
		assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

		require.NoError(t, s.Complete(ctx, "k1", rec))
		got, err = s.Reserve(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("Release frees the key", func(t *testing.T) {
		s := NewMemoryIdempotencyStore(time.Minute, time.Hour)
		_, err := s.Reserve(ctx, "k2")
		require.NoError(t, err)
		require.NoError(t, s.Release(ctx, "k2"))

		got, err := s.Reserve(ctx, "k2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Expired reservation is evicted", func(t *testing.T) {
		now := time.Now()
		s := NewMemoryIdempotencyStore(time.Second, time.Hour)
		s.now = func() time.Time { return now }
		_, err := s.Reserve(ctx, "k3")
		require.NoError(t, err)

		now = now.Add(2 * time.Second)
		got, err := s.Reserve(ctx, "k3")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Empty key is rejected", func(t *testing.T) {
		s := NewMemoryIdempotencyStore(time.Second, time.Hour)
		_, err := s.Reserve(ctx, "")
		assert.Error(t, err)
	})
}
