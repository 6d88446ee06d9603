package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleted(t *testing.T) {
	f := Completed(42)

	assert.Equal(t, Succeeded, f.Status())
	assert.NoError(t, f.Err())

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFailed(t *testing.T) {
	boom := errors.New("boom")
	f := Failed[int](boom)

	assert.Equal(t, Faulted, f.Status())
	assert.ErrorIs(t, f.Err(), boom)

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFailWithNilError(t *testing.T) {
	f := Failed[string](nil)
	assert.Equal(t, Faulted, f.Status())
	assert.ErrorIs(t, f.Err(), ErrNilFault)
}

func TestCompletesOnlyOnce(t *testing.T) {
	f := New[string]()
	assert.Equal(t, Pending, f.Status())
	assert.NoError(t, f.Err())

	assert.True(t, f.Resolve("first"))
	assert.False(t, f.Resolve("second"))
	assert.False(t, f.Fail(errors.New("late")))

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestGo(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 7, nil
	})

	assert.Equal(t, Pending, f.Status())
	close(release)

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, Succeeded, f.Status())
}

func TestGoRecoversPanic(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		panic("kaboom")
	})

	<-f.Done()
	assert.Equal(t, Faulted, f.Status())
	assert.ErrorIs(t, f.Err(), ErrProducerPanic)
}

func TestWaitHonoursContext(t *testing.T) {
	f := New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Pending, f.Status())
}

func TestConcurrentWaiters(t *testing.T) {
	f := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Wait(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 99, v)
		}()
	}

	f.Resolve(99)
	wg.Wait()
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "faulted", Faulted.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
