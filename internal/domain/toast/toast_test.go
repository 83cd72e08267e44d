package toast_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/domain/toast"
	"github.com/stretchr/testify/require"
)

func newNotifier(opts toast.Options) (*toast.Notifier, *clock.Manual) {
	clk := clock.NewManual(time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC))
	return toast.NewNotifier(clk, nil, opts), clk
}

func TestNotifier_SuppressesRepeatsInsideWindow(t *testing.T) {
	n, clk := newNotifier(toast.Options{Window: toast.DefaultWindow})

	first, ok := n.Push("Receipt saved", "Cafe X $10", toast.VariantSuccess)
	require.True(t, ok)
	require.NotEmpty(t, first.ID)

	clk.Advance(4 * time.Second)
	_, ok = n.Push("Receipt saved", "Cafe X $10", toast.VariantSuccess)
	require.False(t, ok)

	// Same title, different description is a different toast.
	_, ok = n.Push("Receipt saved", "Cafe Y $12", toast.VariantSuccess)
	require.True(t, ok)

	clk.Advance(time.Second)
	_, ok = n.Push("Receipt saved", "Cafe X $10", toast.VariantSuccess)
	require.True(t, ok)
	require.Len(t, n.List(), 3)
}

func TestNotifier_DismissDoesNotResetWindow(t *testing.T) {
	n, _ := newNotifier(toast.Options{Window: toast.DefaultWindow})

	tt, ok := n.Push("Camera access denied", "", toast.VariantDestructive)
	require.True(t, ok)
	require.True(t, n.Dismiss(tt.ID))
	require.False(t, n.Dismiss(tt.ID))

	_, ok = n.Push("Camera access denied", "", toast.VariantDestructive)
	require.False(t, ok)
	require.Empty(t, n.List())
}

func TestNotifier_ZeroWindowDisablesSuppression(t *testing.T) {
	n, _ := newNotifier(toast.Options{})
	_, ok := n.Push("a", "b", "")
	require.True(t, ok)
	got, ok := n.Push("a", "b", "")
	require.True(t, ok)
	require.Equal(t, toast.VariantDefault, got.Variant)
}

func TestNotifier_LimitEvictsOldest(t *testing.T) {
	n, _ := newNotifier(toast.Options{Window: time.Second, Limit: 3})
	for i := 0; i < 5; i++ {
		_, ok := n.Push(fmt.Sprintf("toast %d", i), "", toast.VariantDefault)
		require.True(t, ok)
	}
	list := n.List()
	require.Len(t, list, 3)
	require.Equal(t, "toast 4", list[0].Title)
	require.Equal(t, "toast 2", list[2].Title)

	n.Clear()
	require.Empty(t, n.List())
	_, ok := n.Push("toast 4", "", toast.VariantDefault)
	require.True(t, ok)
}
