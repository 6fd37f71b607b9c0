package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
	"github.com/langchou/fleetmate/internal/state"
)

// MovementStore 出车记录存储端口
type MovementStore interface {
	// ActiveByVehicle 车辆当前未归行程，没有时返回 nil
	ActiveByVehicle(ctx context.Context, vehicleID int64) (*models.Movement, error)
	// Create 插入出车记录并在同一事务内分配流水号
	Create(ctx context.Context, m *models.Movement) error
	GetByID(ctx context.Context, id int64) (*models.Movement, error)
	Close(ctx context.Context, id int64, endKM float64) error
}

// MovementInput 出车入参
type MovementInput struct {
	VehicleID   int64
	DriverID    int64
	DriverName  string
	Date        string
	StartKM     float64
	Route       string
	Purpose     string
	AllowActive bool
}

// MovementService 出车归队服务
type MovementService struct {
	logger *zap.Logger
	store  MovementStore
	states *state.Manager
	hub    Broadcaster
}

// NewMovementService 创建出车服务
func NewMovementService(logger *zap.Logger, store MovementStore, states *state.Manager, hub Broadcaster) *MovementService {
	return &MovementService{
		logger: logger,
		store:  store,
		states: states,
		hub:    hub,
	}
}

// CheckOut 车辆出车。车辆已有未归行程时默认拒绝，allowActive 放行；
// 流水号在插入事务内原子分配
func (s *MovementService) CheckOut(ctx context.Context, input MovementInput) (*models.Movement, error) {
	if input.VehicleID <= 0 {
		return nil, &ValidationError{Field: "vehicle_id", Message: "required"}
	}
	if input.DriverID <= 0 {
		return nil, &ValidationError{Field: "driver_id", Message: "required"}
	}
	if !models.ValidDate(input.Date) {
		return nil, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	if !models.ValidKM(input.StartKM) {
		return nil, &ValidationError{Field: "start_km", Message: fmt.Sprintf("must be between 0 and %d", models.MaxKM)}
	}
	if input.Purpose == "" {
		return nil, &ValidationError{Field: "purpose", Message: "required"}
	}

	active, err := s.store.ActiveByVehicle(ctx, input.VehicleID)
	if err != nil {
		return nil, err
	}
	if active != nil && !input.AllowActive {
		return nil, &VehicleBusyError{
			VehicleID:      input.VehicleID,
			MovementNumber: active.MovementNumber,
		}
	}

	m := &models.Movement{
		VehicleID: input.VehicleID,
		DriverID:  input.DriverID,
		Date:      input.Date,
		StartKM:   input.StartKM,
		Route:     input.Route,
		Purpose:   input.Purpose,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	machine := s.states.GetOrCreate(input.VehicleID, state.StateAvailable)
	if machine.CanTransition(state.EventCheckOut) {
		if err := machine.Trigger(state.EventCheckOut); err != nil {
			s.logger.Warn("Failed to trigger check_out", zap.Error(err), zap.Int64("vehicle_id", input.VehicleID))
		}
	}
	machine.UpdateStatus(func(st *state.VehicleStatus) {
		st.MovementID = m.ID
		st.MovementNumber = m.MovementNumber
		st.DriverName = input.DriverName
	})

	s.logger.Info("Vehicle checked out",
		zap.Int64("vehicle_id", input.VehicleID),
		zap.Int64("movement_number", m.MovementNumber))
	s.broadcastMovement("checked_out", m)

	return m, nil
}

// CheckIn 车辆归队，终点里程不得小于起点里程
func (s *MovementService) CheckIn(ctx context.Context, movementID int64, endKM float64) (*models.Movement, error) {
	m, err := s.store.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if !m.Active() {
		return nil, &ValidationError{Field: "movement_id", Message: "movement already closed"}
	}
	if !models.ValidKM(endKM) {
		return nil, &ValidationError{Field: "end_km", Message: fmt.Sprintf("must be between 0 and %d", models.MaxKM)}
	}
	if endKM < m.StartKM {
		return nil, &ValidationError{Field: "end_km", Message: "must not be less than start km"}
	}

	if err := s.store.Close(ctx, movementID, endKM); err != nil {
		return nil, err
	}
	m.EndKM = &endKM

	machine := s.states.GetOrCreate(m.VehicleID, state.StateOnTrip)
	if machine.CanTransition(state.EventCheckIn) {
		if err := machine.Trigger(state.EventCheckIn); err != nil {
			s.logger.Warn("Failed to trigger check_in", zap.Error(err), zap.Int64("vehicle_id", m.VehicleID))
		}
	}
	machine.UpdateStatus(func(st *state.VehicleStatus) {
		st.MovementID = 0
		st.MovementNumber = 0
		st.DriverName = ""
	})

	s.logger.Info("Vehicle checked in",
		zap.Int64("vehicle_id", m.VehicleID),
		zap.Int64("movement_number", m.MovementNumber),
		zap.Float64("distance_km", m.DistanceKM()))
	s.broadcastMovement("checked_in", m)

	return m, nil
}

// VehicleStatus 车辆当前可用性
func (s *MovementService) VehicleStatus(ctx context.Context, vehicleID int64) (*state.VehicleStatus, error) {
	if machine, ok := s.states.Get(vehicleID); ok {
		return machine.GetStatus(), nil
	}

	// 状态机尚未建立时以数据库为准
	active, err := s.store.ActiveByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	initial := state.StateAvailable
	if active != nil {
		initial = state.StateOnTrip
	}
	machine := s.states.GetOrCreate(vehicleID, initial)
	if active != nil {
		machine.UpdateStatus(func(st *state.VehicleStatus) {
			st.MovementID = active.ID
			st.MovementNumber = active.MovementNumber
		})
	}
	return machine.GetStatus(), nil
}

func (s *MovementService) broadcastMovement(action string, m *models.Movement) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastMessage("movement_update", map[string]interface{}{
		"action":   action,
		"movement": m,
	})
}
