package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManual_AdvanceFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManual(start)

	var fired []string
	m.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "b") })
	m.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "a") })
	m.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "c") })
	m.AfterFunc(time.Second, func() { fired = append(fired, "late") })

	m.Advance(500 * time.Millisecond)
	require.Equal(t, []string{"a", "b", "c"}, fired)
	require.Equal(t, start.Add(500*time.Millisecond), m.Now())
	require.Equal(t, 1, m.Pending())
}

func TestManual_StopPreventsCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	called := false
	timer := m.AfterFunc(time.Second, func() { called = true })

	require.True(t, timer.Stop())
	require.False(t, timer.Stop())
	m.RunAll()
	require.False(t, called)
}

func TestManual_ChainedCallbacks(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var times []time.Duration

	var step func()
	step = func() {
		times = append(times, m.Now().Sub(time.Unix(0, 0)))
		if len(times) < 3 {
			m.AfterFunc(200*time.Millisecond, step)
		}
	}
	m.AfterFunc(100*time.Millisecond, step)

	require.Equal(t, 3, m.RunAll())
	require.Equal(t, []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond}, times)
}

func TestManual_AdvanceRunsCallbacksScheduledInsideWindow(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	m.AfterFunc(10*time.Millisecond, func() {
		count++
		m.AfterFunc(10*time.Millisecond, func() { count++ })
	})

	m.Advance(15 * time.Millisecond)
	require.Equal(t, 1, count)
	m.Advance(5 * time.Millisecond)
	require.Equal(t, 2, count)
}
