package syncutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMutex_MutualExclusion(t *testing.T) {
	m := NewKeyMutex()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "USR-1001")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := m.Lock(ctx, "USR-1001")
		if err == nil {
			u()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock succeeded while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after unlock")
	}
}

func TestKeyMutex_CancelledWhileWaiting(t *testing.T) {
	m := NewKeyMutex()

	unlock, err := m.Lock(context.Background(), "USR-1001")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	u, err := m.Lock(ctx, "USR-1001")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeyMutex_IndependentKeys(t *testing.T) {
	m := NewKeyMutex()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlock1, err := m.Lock(ctx, "USR-1001")
	require.NoError(t, err)
	defer unlock1()

	// A different account must not wait on the first one.
	unlock2, err := m.Lock(ctx, "USR-2002")
	require.NoError(t, err)
	unlock2()
}
