package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brail/marketplace/internal/coordinator/sagalog"
)

func TestRepository_SaveLatestHistory(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "saga.db"))
	require.NoError(t, err)
	defer repo.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*sagalog.SagaLog{
		{SagaID: "ORD-1", Status: sagalog.StatusStarted, Payload: `{"cart_id":1}`, ErrorMessages: "[]", UpdatedAt: base},
		{SagaID: "ORD-1", Status: sagalog.StatusStepDone, CurrentStep: "reserve_stock", ErrorMessages: "[]", UpdatedAt: base.Add(time.Millisecond)},
		{SagaID: "ORD-2", Status: sagalog.StatusStarted, ErrorMessages: "[]", UpdatedAt: base.Add(2 * time.Millisecond)},
		{SagaID: "ORD-1", Status: sagalog.StatusCompleted, CurrentStep: "publish_order_event", ErrorMessages: "[]", UpdatedAt: base.Add(3 * time.Millisecond)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(ctx, e))
	}

	latest, err := repo.GetLatest(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, sagalog.StatusCompleted, latest.Status)
	assert.Equal(t, "publish_order_event", latest.CurrentStep)
	assert.Empty(t, latest.Payload)
	assert.True(t, latest.UpdatedAt.Equal(base.Add(3*time.Millisecond)))

	history, err := repo.History(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, sagalog.StatusStarted, history[0].Status)
	assert.Equal(t, `{"cart_id":1}`, history[0].Payload)
}

func TestRepository_Missing(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "saga.db"))
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.GetLatest(ctx, "nope")
	assert.ErrorIs(t, err, sagalog.ErrNotFound)

	_, err = repo.History(ctx, "nope")
	assert.ErrorIs(t, err, sagalog.ErrNotFound)
}
