package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LdDl/hive-mot/mot"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "hive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// trackedRun produces a single track leaving the upper half of the zone
func trackedRun(t *testing.T) *mot.Result {
	t.Helper()
	source := mot.FrameSourceFunc(func(frameID int) []mot.Point {
		step := frameID - 1
		y := 292.0
		if step%2 == 1 {
			y = 308.0
		}
		return []mot.Point{{X: 350 - 7*float64(step), Y: y}}
	})
	zone := mot.NewZone(mot.Point{X: 400, Y: 300}, 200, 100, 0)
	result, err := mot.NewEngineDefault().Run(context.Background(), source, 1, 15, &zone)
	require.NoError(t, err)
	require.Len(t, result.Tracks, 1)
	return result
}

func TestMigrations(t *testing.T) {
	store := openTestStore(t)
	version, dirty, err := store.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Applying again is no-op
	require.NoError(t, store.MigrateUp())

	require.NoError(t, store.MigrateDown())
	version, _, err = store.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	require.NoError(t, store.MigrateUp())
}

func TestSaveRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	result := trackedRun(t)

	processed, err := store.IsProcessed(ctx, "20240501_063000.csv")
	require.NoError(t, err)
	assert.False(t, processed)

	run := RunRecord{
		RunID:       result.RunID,
		FileName:    "20240501_063000.csv",
		Date:        "20240501",
		Time:        "063000",
		Start:       result.Start,
		End:         result.End,
		Records:     15,
		TotalTracks: len(result.Tracks),
		Counts:      result.Counts,
	}
	require.NoError(t, store.SaveRun(ctx, run, result.Tracks))

	processed, err = store.IsProcessed(ctx, "20240501_063000.csv")
	require.NoError(t, err)
	assert.True(t, processed)

	tracks, err := store.RunTracks(ctx, result.RunID)
	require.NoError(t, err)
	expected := []TrackRecord{{
		TrackID:    0,
		Direction:  mot.DirectionExit,
		Length:     15,
		Distance:   result.Tracks[0].GetDistance(),
		FirstFrame: 1,
		LastFrame:  15,
		First:      mot.Point{X: 350, Y: 292},
		Last:       mot.Point{X: 252, Y: 292},
	}}
	if diff := cmp.Diff(expected, tracks); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}

	// Same run id violates primary key: nothing of the second attempt is stored
	err = store.SaveRun(ctx, run, result.Tracks)
	assert.Error(t, err)
	totals, err := store.DailyCounts(ctx, "20240501")
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Runs)
}

func TestDailyCounts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	runs := []RunRecord{
		{FileName: "20240501_063000.csv", Date: "20240501", TotalTracks: 3, Counts: &mot.DirectionCounts{Enter: 2, Exit: 1}},
		{FileName: "20240501_064000.csv", Date: "20240501", TotalTracks: 4, Counts: &mot.DirectionCounts{Enter: 1, Inside: 2, Outside: 1}},
		// Tracked without zone
		{FileName: "20240501_065000.csv", Date: "20240501", TotalTracks: 5},
		{FileName: "20240501_070000.csv", Date: "20240501", NoData: true},
		{FileName: "20240502_063000.csv", Date: "20240502", TotalTracks: 1, Counts: &mot.DirectionCounts{Exit: 1}},
	}
	for _, run := range runs {
		require.NoError(t, store.SaveRun(ctx, run, nil))
	}

	totals, err := store.DailyCounts(ctx, "20240501")
	require.NoError(t, err)
	assert.Equal(t, DayTotals{
		Date:        "20240501",
		Runs:        3,
		TotalTracks: 12,
		Counts:      mot.DirectionCounts{Enter: 3, Exit: 1, Inside: 2, Outside: 1},
	}, totals)

	processed, err := store.IsProcessed(ctx, "20240501_070000.csv")
	require.NoError(t, err)
	assert.True(t, processed)

	empty, err := store.DailyCounts(ctx, "20240503")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Runs)

	tracks, err := store.RunTracks(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, tracks)
}
