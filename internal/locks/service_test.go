package locks

import (
	"context"
	"testing"
	"time"

	"cinebook/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookedChecker struct {
	sold map[string][]string // show id -> sold labels
}

func (f *fakeBookedChecker) BookedSeats(_ context.Context, showID string, seats []string) ([]string, error) {
	soldSet := make(map[string]bool)
	for _, s := range f.sold[showID] {
		soldSet[s] = true
	}
	var hit []string
	for _, s := range seats {
		if soldSet[s] {
			hit = append(hit, s)
		}
	}
	return hit, nil
}

func newTestService(sold map[string][]string) Service {
	return NewService(NewMemoryStore(), &fakeBookedChecker{sold: sold}, nil, time.Minute, logger.GetDefault())
}

func TestServiceLockGrantsHold(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	lock, err := svc.Lock(ctx, "user-1", LockRequest{ShowID: "show-1", Seats: []string{"A1", "A2"}})
	require.NoError(t, err)
	assert.NotEmpty(t, lock.ID)
	assert.Equal(t, []string{"A1", "A2"}, lock.Seats)
	assert.True(t, lock.ExpiresAt.After(time.Now()))
}

func TestServiceLockRejectsSoldSeats(t *testing.T) {
	svc := newTestService(map[string][]string{"show-1": {"A2"}})

	_, err := svc.Lock(context.Background(), "user-1", LockRequest{ShowID: "show-1", Seats: []string{"A1", "A2"}})
	seats, ok := IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, []string{"A2"}, seats)
}

func TestServiceLockDedupesSeats(t *testing.T) {
	svc := newTestService(nil)

	lock, err := svc.Lock(context.Background(), "user-1", LockRequest{ShowID: "show-1", Seats: []string{"A1", "A1", "A2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, lock.Seats)
}

func TestServiceUnlockRequiresOwnership(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	lock, err := svc.Lock(ctx, "user-1", LockRequest{ShowID: "show-1", Seats: []string{"A1"}})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Unlock(ctx, "user-2", lock.ID), ErrNotLockOwner)
	require.NoError(t, svc.Unlock(ctx, "user-1", lock.ID))

	_, err = svc.Get(ctx, lock.ID)
	assert.ErrorIs(t, err, ErrLockNotFound)
}

func TestServiceReleaseIgnoresOwnership(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	lock, err := svc.Lock(ctx, "user-1", LockRequest{ShowID: "show-1", Seats: []string{"A1"}})
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, lock.ID, "booking confirmed"))

	// Seats are free again.
	_, err = svc.Lock(ctx, "user-2", LockRequest{ShowID: "show-1", Seats: []string{"A1"}})
	assert.NoError(t, err)
}
