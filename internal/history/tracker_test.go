package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilc-alumni/reconcile/internal/db"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	conn, err := db.NewConnection(context.Background(), db.Options{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	tracker := NewTracker(conn, nil)
	require.NoError(t, tracker.Migrate(context.Background()))
	return tracker
}

// fixedClock advances one minute per call so runs sort deterministically
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func TestStartFinishGet(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)
	tracker.now = fixedClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	run, err := tracker.Start(ctx, "scrub", map[string]string{"master": "alumni.csv", "bounced": "export.csv"}, "alumni_cleaned.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusRunning, run.Status)

	require.NoError(t, tracker.Finish(ctx, run, map[string]int{"cleared": 3, "total": 10}, nil))

	got, err := tracker.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "scrub", got.Tool)
	assert.Equal(t, "alumni.csv", got.Inputs["master"])
	assert.Equal(t, "alumni_cleaned.csv", got.Output)
	assert.Equal(t, map[string]int{"cleared": 3, "total": 10}, got.Stats)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, time.Minute, got.Duration())
}

func TestFinishWithError(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	run, err := tracker.Start(ctx, "enrich", map[string]string{"master": "alumni.csv"}, "")
	require.NoError(t, err)
	require.NoError(t, tracker.Finish(ctx, run, nil, errors.New("column not found")))

	got, err := tracker.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "column not found", got.Error)
}

func TestGetUnknown(t *testing.T) {
	_, err := newTestTracker(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestFinishUnknown(t *testing.T) {
	err := newTestTracker(t).Finish(context.Background(), &Run{ID: "nope"}, nil, nil)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)
	tracker.now = fixedClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	for _, tool := range []string{"enrich", "scrub", "dupcheck"} {
		_, err := tracker.Start(ctx, tool, map[string]string{}, "")
		require.NoError(t, err)
	}

	runs, err := tracker.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "dupcheck", runs[0].Tool)
	assert.Equal(t, "scrub", runs[1].Tool)
	assert.Nil(t, runs[0].FinishedAt)
	assert.Equal(t, time.Duration(0), runs[0].Duration())

	all, err := tracker.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMigrateIsIdempotent(t *testing.T) {
	tracker := newTestTracker(t)
	assert.NoError(t, tracker.Migrate(context.Background()))
}

func TestTrack(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	err := tracker.Track(ctx, "scrub", map[string]string{"master": "a.csv"}, "b.csv", func() (map[string]int, error) {
		return map[string]int{"cleared": 1}, nil
	})
	require.NoError(t, err)

	failure := errors.New("boom")
	err = tracker.Track(ctx, "enrich", nil, "", func() (map[string]int, error) {
		return nil, failure
	})
	assert.ErrorIs(t, err, failure)

	runs, err := tracker.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	statuses := map[string]string{}
	for _, r := range runs {
		statuses[r.Tool] = r.Status
	}
	assert.Equal(t, StatusSucceeded, statuses["scrub"])
	assert.Equal(t, StatusFailed, statuses["enrich"])
}

func TestTrackNilTracker(t *testing.T) {
	var tracker *Tracker
	called := false

	err := tracker.Track(context.Background(), "scrub", nil, "", func() (map[string]int, error) {
		called = true
		return nil, nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestTrackSurvivesBrokenStore(t *testing.T) {
	tracker := newTestTracker(t)
	require.NoError(t, tracker.conn.Close())

	called := false
	err := tracker.Track(context.Background(), "scrub", nil, "", func() (map[string]int, error) {
		called = true
		return nil, nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
