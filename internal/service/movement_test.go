package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
	"github.com/langchou/fleetmate/internal/state"
)

// fakeMovementStore 内存版出车存储，流水号连续分配
type fakeMovementStore struct {
	movements []*models.Movement
	counter   int64
	nextID    int64
}

func (s *fakeMovementStore) ActiveByVehicle(ctx context.Context, vehicleID int64) (*models.Movement, error) {
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if m.VehicleID == vehicleID && m.EndKM == nil {
			return m, nil
		}
	}
	return nil, nil
}

func (s *fakeMovementStore) Create(ctx context.Context, m *models.Movement) error {
	s.counter++
	s.nextID++
	m.MovementNumber = s.counter
	m.ID = s.nextID
	s.movements = append(s.movements, m)
	return nil
}

func (s *fakeMovementStore) GetByID(ctx context.Context, id int64) (*models.Movement, error) {
	for _, m := range s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("movement %d not found", id)
}

func (s *fakeMovementStore) Close(ctx context.Context, id int64, endKM float64) error {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.EndKM = &endKM
	return nil
}

func newTestMovementService(store *fakeMovementStore) *MovementService {
	return NewMovementService(zap.NewNop(), store, state.NewManager(nil), nil)
}

func movementInput(vehicleID int64) MovementInput {
	return MovementInput{
		VehicleID:  vehicleID,
		DriverID:   1,
		DriverName: "Mario Rossi",
		Date:       testDate,
		StartKM:    12000,
		Route:      "Depot - Site A",
		Purpose:    "Service",
	}
}

func TestCheckOutAssignsSequentialNumbers(t *testing.T) {
	store := &fakeMovementStore{}
	svc := newTestMovementService(store)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		m, err := svc.CheckOut(ctx, movementInput(int64(i)))
		require.NoError(t, err)
		assert.Equal(t, int64(i), m.MovementNumber)
	}
}

func TestCheckOutValidation(t *testing.T) {
	svc := newTestMovementService(&fakeMovementStore{})
	ctx := context.Background()

	cases := []struct {
		name  string
		input MovementInput
		field string
	}{
		{"missing vehicle", func() MovementInput { in := movementInput(1); in.VehicleID = 0; return in }(), "vehicle_id"},
		{"bad date", func() MovementInput { in := movementInput(1); in.Date = "not-a-date"; return in }(), "date"},
		{"km out of range", func() MovementInput { in := movementInput(1); in.StartKM = 10_000_000; return in }(), "start_km"},
		{"missing purpose", func() MovementInput { in := movementInput(1); in.Purpose = ""; return in }(), "purpose"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CheckOut(ctx, tc.input)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestCheckOutBusyVehicle(t *testing.T) {
	store := &fakeMovementStore{}
	svc := newTestMovementService(store)
	ctx := context.Background()

	first, err := svc.CheckOut(ctx, movementInput(1))
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, movementInput(1))
	var busyErr *VehicleBusyError
	require.ErrorAs(t, err, &busyErr)
	assert.Equal(t, first.MovementNumber, busyErr.MovementNumber)

	// 显式放行后允许并行行程
	input := movementInput(1)
	input.AllowActive = true
	second, err := svc.CheckOut(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, first.MovementNumber+1, second.MovementNumber)
}

func TestCheckInGuardsEndKM(t *testing.T) {
	store := &fakeMovementStore{}
	svc := newTestMovementService(store)
	ctx := context.Background()

	m, err := svc.CheckOut(ctx, movementInput(1))
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, m.ID, m.StartKM-1)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "end_km", validationErr.Field)

	closed, err := svc.CheckIn(ctx, m.ID, m.StartKM+80)
	require.NoError(t, err)
	require.NotNil(t, closed.EndKM)
	assert.Equal(t, 80.0, closed.DistanceKM())

	// 已归队行程不可再归队
	_, err = svc.CheckIn(ctx, m.ID, m.StartKM+100)
	require.ErrorAs(t, err, &validationErr)
}

func TestCheckOutCheckInDrivesVehicleState(t *testing.T) {
	store := &fakeMovementStore{}
	svc := newTestMovementService(store)
	ctx := context.Background()

	m, err := svc.CheckOut(ctx, movementInput(7))
	require.NoError(t, err)

	status, err := svc.VehicleStatus(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, state.StateOnTrip, status.CurrentState)
	assert.Equal(t, m.MovementNumber, status.MovementNumber)
	assert.Equal(t, "Mario Rossi", status.DriverName)

	_, err = svc.CheckIn(ctx, m.ID, m.StartKM+10)
	require.NoError(t, err)

	status, err = svc.VehicleStatus(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, state.StateAvailable, status.CurrentState)
	assert.Zero(t, status.MovementNumber)
}
