package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrail_RecordAssignsIDAndTimestamp(t *testing.T) {
	trail := NewMemoryTrail()
	ctx := context.Background()

	err := trail.Record(ctx, &Entry{
		Actor:  "USR-1001",
		Intent: "Check_Balance",
		Status: StatusNLUSuccess,
	})
	require.NoError(t, err)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestMemoryTrail_QueryFilters(t *testing.T) {
	trail := NewMemoryTrail()
	ctx := context.Background()

	require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-1001", Intent: "Transfer_Funds", Status: StatusBlocked}))
	require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-1001", Intent: "Transfer_Funds", Status: StatusLowRiskPass}))
	require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-2002", Intent: "Check_Balance", Status: StatusNLUSuccess}))

	got, err := trail.Query(ctx, Filter{Actor: "USR-1001", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	// Descending order
	assert.Equal(t, StatusLowRiskPass, got[0].Status)

	got, err = trail.Query(ctx, Filter{Status: StatusBlocked, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Transfer_Funds", got[0].Intent)
}

func TestMemoryTrail_QueryLimit(t *testing.T) {
	trail := NewMemoryTrail()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-1001", Intent: "View_History", Status: StatusNLUSuccess}))
	}

	got, err := trail.Query(ctx, Filter{Actor: "USR-1001", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMemoryTrail_QueryBeforeKeepsSameTimestampEntries(t *testing.T) {
	trail := NewMemoryTrail()
	ctx := context.Background()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-1001", Intent: "View_History", Status: StatusNLUSuccess, CreatedAt: ts.Add(-time.Hour)}))
	for i := 0; i < 3; i++ {
		require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-1001", Intent: "View_History", Status: StatusNLUSuccess, CreatedAt: ts}))
	}

	first, err := trail.Query(ctx, Filter{Actor: "USR-1001", Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Resuming from the page boundary must still return the remaining
	// entry that shares the boundary timestamp.
	last := first[len(first)-1]
	rest, err := trail.Query(ctx, Filter{
		Actor:  "USR-1001",
		Limit:  10,
		Before: &Cursor{CreatedAt: last.CreatedAt, ID: last.ID},
	})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, last.ID-1, rest[0].ID)
	assert.Equal(t, ts, rest[0].CreatedAt)
}

func TestMemoryTrail_ObserverSeesEveryEntry(t *testing.T) {
	trail := NewMemoryTrail()
	ctx := context.Background()

	var seen []*Entry
	trail.Observe(func(e *Entry) { seen = append(seen, e) })

	require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-1001", Intent: "Transfer_Funds", Status: StatusChallenge}))
	require.NoError(t, trail.Record(ctx, &Entry{Actor: "USR-1001", Intent: "Transfer_Funds", Status: StatusExecSuccess}))

	require.Len(t, seen, 2)
	assert.Equal(t, StatusChallenge, seen[0].Status)
	assert.Equal(t, StatusExecSuccess, seen[1].Status)
}
