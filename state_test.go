package agora

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.String())
	assert.Equal(t, "Loading", StateLoading.String())
	assert.Equal(t, "Active", StateActive.String())
	assert.Equal(t, "Degraded", StateDegraded.String())
	assert.Equal(t, "TornDown", StateTornDown.String())
	assert.Equal(t, "InvalidState", SubscriptionState(99).String())
}

func TestStateTransitions(t *testing.T) {
	valid := []struct {
		from, to SubscriptionState
	}{
		{StateIdle, StateLoading},
		{StateLoading, StateActive},
		{StateLoading, StateDegraded},
		{StateActive, StateDegraded},
		{StateDegraded, StateLoading},
		{StateIdle, StateTornDown},
		{StateLoading, StateTornDown},
		{StateActive, StateTornDown},
		{StateDegraded, StateTornDown},
	}
	for _, tc := range valid {
		assert.NoError(t, tc.from.validateTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	invalid := []struct {
		from, to SubscriptionState
	}{
		{StateIdle, StateActive},
		{StateIdle, StateDegraded},
		{StateActive, StateLoading},
		{StateActive, StateActive},
		{StateDegraded, StateActive},
		{StateTornDown, StateLoading},
		{StateTornDown, StateTornDown},
	}
	for _, tc := range invalid {
		require.Error(t, tc.from.validateTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
