package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 车辆可用性状态
const (
	StateAvailable = "available"
	StateOnTrip    = "on_trip"
)

// 事件常量
const (
	EventCheckOut = "check_out"
	EventCheckIn  = "check_in"
)

// VehicleStatus 车辆当前状态快照
type VehicleStatus struct {
	VehicleID      int64     `json:"vehicle_id"`
	CurrentState   string    `json:"state"`
	Since          time.Time `json:"since"`
	MovementID     int64     `json:"movement_id,omitempty"`
	MovementNumber int64     `json:"movement_number,omitempty"`
	DriverName     string    `json:"driver_name,omitempty"`
}

// Machine 单车状态机
type Machine struct {
	mu            sync.RWMutex
	vehicleID     int64
	fsm           *fsm.FSM
	status        *VehicleStatus
	onStateChange func(vehicleID int64, from, to string)
}

// NewMachine 创建状态机
func NewMachine(vehicleID int64, initialState string, onStateChange func(vehicleID int64, from, to string)) *Machine {
	if initialState == "" {
		initialState = StateAvailable
	}

	m := &Machine{
		vehicleID:     vehicleID,
		onStateChange: onStateChange,
		status: &VehicleStatus{
			VehicleID:    vehicleID,
			CurrentState: initialState,
			Since:        time.Now(),
		},
	}

	m.fsm = fsm.NewFSM(
		initialState,
		fsm.Events{
			{Name: EventCheckOut, Src: []string{StateAvailable}, Dst: StateOnTrip},
			{Name: EventCheckIn, Src: []string{StateOnTrip}, Dst: StateAvailable},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(m.vehicleID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// GetStatus 获取完整状态
func (m *Machine) GetStatus() *VehicleStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// 返回副本
	statusCopy := *m.status
	statusCopy.CurrentState = m.fsm.Current()
	return &statusCopy
}

// UpdateStatus 更新状态数据
func (m *Machine) UpdateStatus(update func(s *VehicleStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	update(m.status)
}

// Trigger 触发事件
func (m *Machine) Trigger(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}

	m.status.CurrentState = m.fsm.Current()
	m.status.Since = time.Now()
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// Manager 状态机管理器，按车辆 ID 维护
type Manager struct {
	mu       sync.RWMutex
	machines map[int64]*Machine
	onChange func(vehicleID int64, from, to string)
}

// NewManager 创建管理器
func NewManager(onChange func(vehicleID int64, from, to string)) *Manager {
	return &Manager{
		machines: make(map[int64]*Machine),
		onChange: onChange,
	}
}

// GetOrCreate 获取或创建状态机
func (m *Manager) GetOrCreate(vehicleID int64, initialState string) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if machine, ok := m.machines[vehicleID]; ok {
		return machine
	}

	machine := NewMachine(vehicleID, initialState, m.onChange)
	m.machines[vehicleID] = machine
	return machine
}

// Get 获取状态机
func (m *Manager) Get(vehicleID int64) (*Machine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	machine, ok := m.machines[vehicleID]
	return machine, ok
}

// GetAllStatuses 获取所有车辆状态
func (m *Manager) GetAllStatuses() map[int64]*VehicleStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make(map[int64]*VehicleStatus)
	for vehicleID, machine := range m.machines {
		statuses[vehicleID] = machine.GetStatus()
	}
	return statuses
}
