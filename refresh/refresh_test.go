package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlwaysAndNever(t *testing.T) {
	ctx := context.Background()

	ok, err := Always{}.ShouldRecompute(ctx, "k", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Never{}.ShouldRecompute(ctx, "k", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdatedSince(t *testing.T) {
	ctx := context.Background()
	registered := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	var updated time.Time
	p := UpdatedSince(func(context.Context, string) (time.Time, error) {
		return updated, nil
	})

	updated = registered.Add(-time.Hour)
	ok, err := p.ShouldRecompute(ctx, "table", registered)
	require.NoError(t, err)
	assert.False(t, ok, "source unchanged since registration")

	updated = registered.Add(time.Hour)
	ok, err = p.ShouldRecompute(ctx, "table", registered)
	require.NoError(t, err)
	assert.True(t, ok, "source changed after registration")
}

func TestUpdatedSinceErrorForcesRecompute(t *testing.T) {
	boom := errors.New("metadata unavailable")
	p := UpdatedSince(func(context.Context, string) (time.Time, error) {
		return time.Time{}, boom
	})

	ok, err := p.ShouldRecompute(context.Background(), "table", time.Now())
	assert.ErrorIs(t, err, boom)
	assert.True(t, ok)
}
