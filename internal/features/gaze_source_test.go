package features

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/gaze-pointer/internal/types"
)

func collect(t *testing.T, ch <-chan types.GazeSample) []types.GazeSample {
	t.Helper()
	var out []types.GazeSample
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, s)
		case <-timeout:
			t.Fatal("replay did not finish")
			return nil
		}
	}
}

func TestReplaySourceParsesLines(t *testing.T) {
	input := strings.Join([]string{
		`# recorded session`,
		`{"raw":{"x":150.4,"y":20.6},"smoothed":{"x":148,"y":21},"gaze":true,"present":true,"delay":"33ms"}`,
		``,
		`not json`,
		`{"raw":{"x":10,"y":10},"present":true}`,
		`{"raw":{"x":0,"y":0}}`,
		`{"raw":{"x":1,"y":1},"delay":"soon"}`,
	}, "\n")

	src := NewReaderSource(strings.NewReader(input), false, nil)
	ch, err := src.Samples(context.Background())
	require.NoError(t, err)

	samples := collect(t, ch)
	require.Len(t, samples, 3)

	assert.Equal(t, types.GazeSample{
		Raw:              types.Pt(150, 21),
		Smoothed:         types.Pt(148, 21),
		TrackingGaze:     true,
		TrackingPresence: true,
	}, samples[0])

	assert.Equal(t, types.Pt(10, 10), samples[1].Smoothed, "smoothed falls back to raw")
	assert.True(t, samples[1].HasTracking())
	assert.False(t, samples[2].HasTracking())
}

func TestReplaySourceSkipsOversizedLine(t *testing.T) {
	huge := `{"raw":{"x":1,"y":1},"note":"` + strings.Repeat("a", 4*maxReplayLine) + `"}`
	input := strings.Join([]string{
		`{"raw":{"x":10,"y":20},"gaze":true}`,
		huge,
		`{"raw":{"x":30,"y":40},"gaze":true}`,
		huge,
	}, "\n")

	ch, err := NewReaderSource(strings.NewReader(input), false, nil).Samples(context.Background())
	require.NoError(t, err)

	samples := collect(t, ch)
	require.Len(t, samples, 2)
	assert.Equal(t, types.Pt(10, 20), samples[0].Raw)
	assert.Equal(t, types.Pt(30, 40), samples[1].Raw)
}

func TestReplaySourceRealtimeUsesDelay(t *testing.T) {
	input := `{"raw":{"x":1,"y":1},"gaze":true,"delay":"40ms"}
{"raw":{"x":2,"y":2},"gaze":true,"delay":"60ms"}`

	src := NewReaderSource(strings.NewReader(input), true, nil)
	var slept []time.Duration
	src.sleep = func(ctx context.Context, d time.Duration) bool {
		slept = append(slept, d)
		return true
	}

	ch, err := src.Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, collect(t, ch), 2)
	assert.Equal(t, []time.Duration{40 * time.Millisecond, 60 * time.Millisecond}, slept)
}

func TestReplaySourceStopsOnCancel(t *testing.T) {
	input := strings.Repeat(`{"raw":{"x":1,"y":1},"gaze":true}`+"\n", 100)
	src := NewReaderSource(strings.NewReader(input), false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := src.Samples(ctx)
	require.NoError(t, err)

	<-ch
	cancel()

	// キャンセル後はチャネルが閉じられる
	for range ch {
	}
}

func TestReplaySourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaze.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"raw":{"x":5,"y":6},"gaze":true}`+"\n"), 0o644))

	ch, err := NewReplaySource(path, false, nil).Samples(context.Background())
	require.NoError(t, err)

	samples := collect(t, ch)
	require.Len(t, samples, 1)
	assert.Equal(t, types.Pt(5, 6), samples[0].Raw)
}

func TestReplaySourceMissingFile(t *testing.T) {
	_, err := NewReplaySource(filepath.Join(t.TempDir(), "missing.jsonl"), false, nil).Samples(context.Background())
	assert.Error(t, err)
}
