package fortress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	lifecycle := []State{
		StateDisconnected,
		StateConnecting,
		StateBound,
		StateActive,
		StateTearingDown,
		StateDisconnected,
		StateConnecting,
		StateTearingDown,
		StateStopped,
		StateConnecting,
	}
	for i := 1; i < len(lifecycle); i++ {
		require.NoError(t, checkTransition(lifecycle[i-1], lifecycle[i]))
	}

	for _, tc := range [][2]State{
		{StateDisconnected, StateActive},
		{StateConnecting, StateActive},
		{StateActive, StateBound},
		{StateActive, StateStopped},
		{StateStopped, StateTearingDown},
		{StateTearingDown, StateConnecting},
	} {
		require.ErrorIs(t, checkTransition(tc[0], tc[1]), ErrInvalidTransition, "%s -> %s", tc[0], tc[1])
	}
}

func TestConnected(t *testing.T) {
	require.True(t, StateBound.connected())
	require.True(t, StateActive.connected())
	require.False(t, StateConnecting.connected())
	require.False(t, StateDisconnected.connected())
	require.False(t, StateStopped.connected())
}
