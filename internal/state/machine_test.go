package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineTransitions(t *testing.T) {
	m := NewMachine(1, "", nil)
	assert.Equal(t, StateAvailable, m.CurrentState())

	require.True(t, m.CanTransition(EventCheckOut))
	require.NoError(t, m.Trigger(EventCheckOut))
	assert.Equal(t, StateOnTrip, m.CurrentState())

	// 出车中不能再次出车
	assert.False(t, m.CanTransition(EventCheckOut))
	assert.Error(t, m.Trigger(EventCheckOut))

	require.NoError(t, m.Trigger(EventCheckIn))
	assert.Equal(t, StateAvailable, m.CurrentState())
}

func TestMachineStateChangeCallback(t *testing.T) {
	var gotFrom, gotTo string
	var gotVehicleID int64
	m := NewMachine(42, StateAvailable, func(vehicleID int64, from, to string) {
		gotVehicleID = vehicleID
		gotFrom = from
		gotTo = to
	})

	require.NoError(t, m.Trigger(EventCheckOut))
	assert.Equal(t, int64(42), gotVehicleID)
	assert.Equal(t, StateAvailable, gotFrom)
	assert.Equal(t, StateOnTrip, gotTo)
}

func TestManagerGetOrCreate(t *testing.T) {
	mgr := NewManager(nil)

	m1 := mgr.GetOrCreate(1, StateAvailable)
	m2 := mgr.GetOrCreate(1, StateOnTrip)
	assert.Same(t, m1, m2)

	_, ok := mgr.Get(2)
	assert.False(t, ok)

	mgr.GetOrCreate(2, StateOnTrip)
	statuses := mgr.GetAllStatuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, StateOnTrip, statuses[2].CurrentState)
}

func TestStatusSnapshotIsCopy(t *testing.T) {
	m := NewMachine(1, StateAvailable, nil)
	m.UpdateStatus(func(s *VehicleStatus) {
		s.MovementNumber = 7
	})

	snap := m.GetStatus()
	snap.MovementNumber = 99

	assert.Equal(t, int64(7), m.GetStatus().MovementNumber)
}
