package detections

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/hive-mot/mot"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = ` class , center_x, center_y , video_frame_id,confidence
bee,10.5,20,3,0.9
bee,11,21,3.0,0.8
bee,12,22,4,0.7
bee,13,23,6,0.95
bee,14,24,8,0.6
bee,15,25,9,0.5
`

func TestParse(t *testing.T) {
	feed, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 6, feed.Len())
	assert.Equal(t, 3, feed.Start())
	assert.Equal(t, 9, feed.End())
	assert.Equal(t, []int{3, 4, 6, 8, 9}, feed.Frames())
	assert.Equal(t, []mot.Point{{X: 10.5, Y: 20}, {X: 11, Y: 21}}, feed.Detections(3))
	assert.Empty(t, feed.Detections(5))

	var source mot.FrameSource = feed
	assert.Len(t, source.Detections(9), 1)
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected error
	}{
		{
			name:     "empty file",
			input:    "",
			expected: ErrMissingColumns,
		},
		{
			name:     "missing column",
			input:    "center_x,center_y\n1,2\n",
			expected: ErrMissingColumns,
		},
		{
			name:     "too few records",
			input:    "center_x,center_y,video_frame_id\n1,1,1\n2,2,2\n3,3,3\n4,4,10\n",
			expected: ErrTooFewRecords,
		},
		{
			name:     "short frame range",
			input:    "center_x,center_y,video_frame_id\n1,1,1\n2,2,2\n3,3,3\n4,4,4\n5,5,5\n6,6,5\n",
			expected: ErrShortFrameRange,
		},
		{
			name:     "bad coordinate",
			input:    "center_x,center_y,video_frame_id\n1,abc,1\n",
			expected: ErrMalformedRecord,
		},
		{
			name:     "fractional frame",
			input:    "center_x,center_y,video_frame_id\n1,1,1.5\n",
			expected: ErrMalformedRecord,
		},
		{
			name:     "non-finite coordinate",
			input:    "center_x,center_y,video_frame_id\nNaN,1,1\n",
			expected: ErrMalformedRecord,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.expected), "expected %v, got %v", tc.expected, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "every validation error must be invalid input, got %v", err)
		})
	}
}

func TestParseFrameSpanBoundary(t *testing.T) {
	// Span of exactly 5 frames is accepted
	input := "center_x,center_y,video_frame_id\n1,1,1\n2,2,2\n3,3,3\n4,4,4\n5,5,6\n"
	feed, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Start())
	assert.Equal(t, 6, feed.End())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20240501_063000.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	feed, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "20240501_063000.csv", feed.Name())

	_, err = Load(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidInput))
}
