package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/hive-mot/mot"
	"github.com/LdDl/hive-mot/report"
	"github.com/LdDl/hive-mot/storage"
	"github.com/LdDl/hive-mot/zones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoObjectsCSV has two objects moving for 20 frames with vertical jitter
func twoObjectsCSV() string {
	var b strings.Builder
	b.WriteString("center_x, center_y, video_frame_id\n")
	for step := 0; step < 20; step++ {
		jitter := -8.0
		if step%2 == 1 {
			jitter = 8.0
		}
		fmt.Fprintf(&b, "%g,%g,%d\n", 100+5*float64(step), 100+jitter, step+1)
		fmt.Fprintf(&b, "%g,%g,%d\n", 600-5*float64(step), 500+jitter, step+1)
	}
	return b.String()
}

func prepareInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"20240501_063000.csv": twoObjectsCSV(),
		"20240501_070000.csv": "center_x,center_y,video_frame_id\n1,1,1\n2,2,2\n",
		"20240501_073000.csv": "x,y,frame\n1,1,1\n",
		"20240502_063000.csv": twoObjectsCSV(),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func testRegistry(t *testing.T) *zones.Registry {
	t.Helper()
	registry, err := zones.NewRegistry(map[string]mot.Zone{
		"20240501": mot.NewZone(mot.Point{X: 1000, Y: 1000}, 10, 10, 0),
	})
	require.NoError(t, err)
	return registry
}

func newTestProcessor(t *testing.T, outDir string, opts ...Option) *Processor {
	t.Helper()
	writer, err := report.NewWriter(outDir)
	require.NoError(t, err)
	return NewProcessor(mot.NewEngineDefault(), testRegistry(t), writer, opts...)
}

func TestProcessDir(t *testing.T) {
	ctx := context.Background()
	input := prepareInput(t)
	output := filepath.Join(t.TempDir(), "out")
	processor := newTestProcessor(t, output)

	summary, err := processor.ProcessDir(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, Summary{
		Discovered:  4,
		MissingZone: 1,
		NoData:      2,
		Tracked:     1,
		Tracks:      2,
		Counts:      mot.DirectionCounts{Outside: 2},
	}, summary)

	csvData, err := os.ReadFile(filepath.Join(output, report.StatsCSVFile))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"20240501_073000.csv,0,0,0,0,0,0",
		"20240501_070000.csv,0,0,0,0,0,0",
		"20240501_063000.csv,40,2,0,0,0,2",
		"",
	}, "\n"), string(csvData))

	textData, err := os.ReadFile(filepath.Join(output, report.StatsTextFile))
	require.NoError(t, err)
	assert.Contains(t, string(textData), "CSV File: 20240501_063000.csv. Total Records: 40. Date: 20240501\nStart Frame: 1. End Frame: 20\n")
	assert.FileExists(t, filepath.Join(output, "20240501_063000.tracks.csv"))

	// Second pass finds nothing new
	summary, err = processor.ProcessDir(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, Summary{Discovered: 4, MissingZone: 1, AlreadyProcessed: 3}, summary)
	csvAgain, err := os.ReadFile(filepath.Join(output, report.StatsCSVFile))
	require.NoError(t, err)
	assert.Equal(t, string(csvData), string(csvAgain))
}

func TestProcessDirAllowMissingZone(t *testing.T) {
	input := prepareInput(t)
	output := t.TempDir()
	processor := newTestProcessor(t, output, WithAllowMissingZone(true))

	summary, err := processor.ProcessDir(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.MissingZone)
	assert.Equal(t, 2, summary.Tracked)
	assert.Equal(t, 4, summary.Tracks)
	// Only the file having a zone is classified
	assert.Equal(t, mot.DirectionCounts{Outside: 2}, summary.Counts)

	csvData, err := os.ReadFile(filepath.Join(output, report.StatsCSVFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "20240502_063000.csv,40,2,0,0,0,0\n"), string(csvData))
}

func TestProcessDirConcurrentOutputIsDeterministic(t *testing.T) {
	input := prepareInput(t)
	read := func(workers int) string {
		output := t.TempDir()
		processor := newTestProcessor(t, output, WithWorkers(workers), WithAllowMissingZone(true))
		_, err := processor.ProcessDir(context.Background(), input)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(output, report.StatsCSVFile))
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, read(1), read(4))
}

func TestProcessDirWithStore(t *testing.T) {
	ctx := context.Background()
	input := prepareInput(t)
	store, err := storage.Open(filepath.Join(t.TempDir(), "hive.db"))
	require.NoError(t, err)
	defer store.Close()

	var progress bytes.Buffer
	processor := newTestProcessor(t, t.TempDir(), WithStore(store), WithProgress(&progress))
	_, err = processor.ProcessDir(ctx, input)
	require.NoError(t, err)
	assert.NotEmpty(t, progress.String())

	for _, name := range []string{"20240501_063000.csv", "20240501_070000.csv"} {
		processed, err := store.IsProcessed(ctx, name)
		require.NoError(t, err)
		assert.True(t, processed, name)
	}
	totals, err := store.DailyCounts(ctx, "20240501")
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Runs)
	assert.Equal(t, 2, totals.TotalTracks)
	assert.Equal(t, mot.DirectionCounts{Outside: 2}, totals.Counts)

	// Fresh report directory: store alone marks files as processed
	processor = newTestProcessor(t, t.TempDir(), WithStore(store))
	summary, err := processor.ProcessDir(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.AlreadyProcessed)
	assert.Equal(t, 0, summary.Tracked)
}

func TestProcessDirErrors(t *testing.T) {
	processor := newTestProcessor(t, t.TempDir())
	_, err := processor.ProcessDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = processor.ProcessDir(ctx, prepareInput(t))
	assert.ErrorIs(t, err, context.Canceled)
}
