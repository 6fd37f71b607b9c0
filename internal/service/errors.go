package service

import "fmt"

// ValidationError 字段校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CapacityExceededError 注油超过油罐容量
type CapacityExceededError struct {
	Level       float64
	Requested   float64
	MaxFillable float64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("tank capacity exceeded: level %.1fL, requested %.1fL, max fillable %.1fL",
		e.Level, e.Requested, e.MaxFillable)
}

// InsufficientTankLevelError 液位不足，可由调用方显式放行
type InsufficientTankLevelError struct {
	Available float64
	Requested float64
}

func (e *InsufficientTankLevelError) Error() string {
	return fmt.Sprintf("insufficient tank level: available %.1fL, requested %.1fL",
		e.Available, e.Requested)
}

// NonMonotonicReadingError 油泵读数回退
type NonMonotonicReadingError struct {
	Current   float64
	Requested float64
}

func (e *NonMonotonicReadingError) Error() string {
	return fmt.Sprintf("pump reading must not decrease: current %.1f, requested %.1f",
		e.Current, e.Requested)
}

// VehicleBusyError 车辆已有未归行程，可由调用方显式放行
type VehicleBusyError struct {
	VehicleID      int64
	MovementNumber int64
}

func (e *VehicleBusyError) Error() string {
	return fmt.Sprintf("vehicle %d already has active movement #%d", e.VehicleID, e.MovementNumber)
}

// 警告代码
const (
	WarnTankShortfall = "tank_shortfall"
	WarnPumpMismatch  = "pump_mismatch"
)

// Warning 非致命警告，随结果返回
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
