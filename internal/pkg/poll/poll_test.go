package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntil_DoneOnThirdAttempt(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, 10, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return attempt == 3, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestUntil_StopsOnFirstError(t *testing.T) {
	boom := errors.New("status endpoint down")
	calls := 0
	err := Until(context.Background(), time.Millisecond, 10, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestUntil_Timeout(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, 5, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, nil
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 5, calls)
}

func TestUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Until(ctx, time.Hour, 10, func(ctx context.Context, attempt int) (bool, error) {
		cancel()
		return false, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
