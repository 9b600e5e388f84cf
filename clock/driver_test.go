package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDriver_StopEndsWait(t *testing.T) {
	c := New()
	d := NewDriver(c, 10*time.Millisecond)

	require.NoError(t, d.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	d.Stop()

	result, err := d.Wait()
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.Ticks, int64(0))
}

func TestDriver_DoubleStartErrors(t *testing.T) {
	c := New()
	d := NewDriver(c, 10*time.Millisecond)

	require.NoError(t, d.Start(context.Background()))
	defer d.Kill()

	require.Error(t, d.Start(context.Background()))
}

func TestDriver_KillStopsImmediately(t *testing.T) {
	c := New()
	d := NewDriver(c, 10*time.Millisecond)

	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Kill())

	_, err := d.Wait()
	require.NoError(t, err)
}
