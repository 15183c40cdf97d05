package tracker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDisplaySeconds(t *testing.T) {
	const T = int64(1_700_000_000)

	tests := []struct {
		name        string
		accumulated int64
		checkpoint  int64
		now         int64
		running     bool
		want        int64
	}{
		{"stopped returns accumulated", 3661, T, T + 500, false, 3661},
		{"running adds elapsed since checkpoint", 3661, T, T + 5, true, 3666},
		{"running at checkpoint", 42, T, T, true, 42},
		{"clock skew clamps to zero delta", 100, T, T - 30, true, 100},
		{"zero accumulated", 0, T, T + 7, true, 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeDisplaySeconds(tc.accumulated, tc.checkpoint, tc.now, tc.running))
		})
	}
}

func TestComputeDisplaySecondsIdempotentWhenStopped(t *testing.T) {
	first := ComputeDisplaySeconds(1234, 1_700_000_000, 1_700_000_900, false)
	second := ComputeDisplaySeconds(1234, 1_700_000_000, 1_700_000_900, false)
	assert.Equal(t, first, second)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		total int64
		want  string
	}{
		{0, "0d 0h 0m 0s"},
		{3666, "0d 1h 1m 6s"},
		{59, "0d 0h 0m 59s"},
		{86400, "1d 0h 0m 0s"},
		{90061, "1d 1h 1m 1s"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Format(tc.total))
	}
}

func TestStartReconcilesOnce(t *testing.T) {
	const T = int64(1_700_000_000)

	trk := New(nil)
	trk.Start(3661, T, T+5)
	defer trk.Close()

	assert.Equal(t, int64(3666), trk.DisplaySeconds())
	assert.True(t, trk.Running())

	// A second Start must not re-reconcile a running tracker.
	trk.Start(0, 0, T+600)
	assert.Equal(t, int64(3666), trk.DisplaySeconds())
}

func TestStopReturnsCheckpointPair(t *testing.T) {
	const T = int64(1_700_000_000)

	trk := New(nil)
	trk.Start(100, T, T+20)
	acc, cp := trk.Stop(T + 21)

	assert.Equal(t, int64(120), acc)
	assert.Equal(t, T+21, cp)
	assert.False(t, trk.Running())

	// Stopping again changes nothing but the reported timestamp.
	acc2, cp2 := trk.Stop(T + 50)
	assert.Equal(t, acc, acc2)
	assert.Equal(t, T+50, cp2)
}

func TestSeedOnlyWhenStopped(t *testing.T) {
	trk := New(nil)
	trk.Seed(77)
	assert.Equal(t, int64(77), trk.DisplaySeconds())

	trk.Start(77, 10, 10)
	defer trk.Close()
	trk.Seed(0)
	assert.Equal(t, int64(77), trk.DisplaySeconds())
}

func TestTickIncrementsAndStops(t *testing.T) {
	var last atomic.Int64
	trk := New(func(v int64) { last.Store(v) })

	trk.Start(10, 1000, 1000)
	time.Sleep(1500 * time.Millisecond)
	trk.Close()

	got := trk.DisplaySeconds()
	require.GreaterOrEqual(t, got, int64(11), "at least one tick must land")
	assert.Equal(t, got, last.Load())

	// No tick after teardown.
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, got, trk.DisplaySeconds())
}
