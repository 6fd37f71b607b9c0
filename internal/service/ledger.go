package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
)

// Broadcaster 实时推送端口，由 ws.Hub 实现
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

// Ledger 油库台账服务，管理油罐事件、油泵读数和加油复合事务
type Ledger struct {
	logger    *zap.Logger
	store     Store
	capacity  float64
	minLevel  float64
	tolerance float64
	hub       Broadcaster
}

// NewLedger 创建台账服务
func NewLedger(logger *zap.Logger, store Store, capacity, minLevel, tolerance float64, hub Broadcaster) *Ledger {
	return &Ledger{
		logger:    logger,
		store:     store,
		capacity:  capacity,
		minLevel:  minLevel,
		tolerance: tolerance,
		hub:       hub,
	}
}

// Capacity 油罐容量
func (l *Ledger) Capacity() float64 {
	return l.capacity
}

// LowLevel 液位是否低于告警线
func (l *Ledger) LowLevel(level float64) bool {
	return level < l.minLevel
}

// TankLevel 当前液位
func (l *Ledger) TankLevel(ctx context.Context) (float64, error) {
	return l.store.TankLevel(ctx)
}

// TankHistory 油罐事件历史，新到旧
func (l *Ledger) TankHistory(ctx context.Context, limit int) ([]*models.TankEvent, error) {
	return l.store.TankHistory(ctx, limit)
}

// RefillTank 油罐注油，液位不得超过容量
func (l *Ledger) RefillTank(ctx context.Context, date string, liters float64, notes string) (*models.TankEvent, error) {
	if liters <= 0 {
		return nil, &ValidationError{Field: "liters", Message: "must be positive"}
	}
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if !models.ValidDate(date) {
		return nil, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	level, err := l.store.TankLevel(ctx)
	if err != nil {
		return nil, err
	}
	if level+liters > l.capacity {
		return nil, &CapacityExceededError{
			Level:       level,
			Requested:   liters,
			MaxFillable: l.capacity - level,
		}
	}

	ev := &models.TankEvent{
		Date:   date,
		Liters: liters,
		Type:   models.TankEventFill,
		Notes:  notes,
	}
	if err := l.store.AppendTankEvent(ctx, ev); err != nil {
		return nil, err
	}

	l.logger.Info("Tank refilled",
		zap.Float64("liters", liters),
		zap.Float64("level", level+liters))
	l.broadcastTankLevel(ctx)

	return ev, nil
}

// Consume 油罐出油。液位不足时默认拒绝，allowShortfall 放行并附带警告，
// 放行后液位允许为负
func (l *Ledger) Consume(ctx context.Context, date string, liters float64, notes string, allowShortfall bool) (*models.TankEvent, []Warning, error) {
	if liters <= 0 {
		return nil, nil, &ValidationError{Field: "liters", Message: "must be positive"}
	}
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if !models.ValidDate(date) {
		return nil, nil, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	level, err := l.store.TankLevel(ctx)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	if liters > level {
		if !allowShortfall {
			return nil, nil, &InsufficientTankLevelError{Available: level, Requested: liters}
		}
		warnings = append(warnings, Warning{
			Code:    WarnTankShortfall,
			Message: fmt.Sprintf("tank level %.1fL below requested %.1fL, recorded anyway", level, liters),
		})
	}

	ev := &models.TankEvent{
		Date:   date,
		Liters: liters,
		Type:   models.TankEventConsume,
		Notes:  notes,
	}
	if err := l.store.AppendTankEvent(ctx, ev); err != nil {
		return nil, nil, err
	}

	l.logger.Info("Tank consumption recorded",
		zap.Float64("liters", liters),
		zap.Float64("level", level-liters))
	l.broadcastTankLevel(ctx)

	return ev, warnings, nil
}

// PumpReading 当前油泵读数，未初始化时为 0
func (l *Ledger) PumpReading(ctx context.Context) (float64, error) {
	return pumpReading(ctx, l.store)
}

// PumpHistory 油泵事件历史，新到旧
func (l *Ledger) PumpHistory(ctx context.Context, limit int) ([]*models.PumpEvent, error) {
	return l.store.PumpHistory(ctx, limit)
}

// UpdatePumpReading 登记新的油泵读数，读数只增不减，
// 出油量由新旧读数之差得出，事件与读数在同一事务内落库
func (l *Ledger) UpdatePumpReading(ctx context.Context, date string, newReading float64, plate, driver, notes string) (*models.PumpEvent, error) {
	if newReading < 0 {
		return nil, &ValidationError{Field: "reading", Message: "must not be negative"}
	}
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if !models.ValidDate(date) {
		return nil, &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}

	var ev *models.PumpEvent
	err := l.store.InTransaction(ctx, func(tx Store) error {
		var err error
		ev, err = applyPumpReading(ctx, tx, date, newReading, plate, driver, notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Pump reading updated",
		zap.Float64("reading", newReading),
		zap.Float64("dispensed", ev.LitersDispensed))
	l.broadcastPumpReading(newReading)

	return ev, nil
}

// FuelInput 加油复合事务入参
type FuelInput struct {
	VehicleID      int64
	VehiclePlate   string
	DriverID       int64
	DriverName     string
	Date           string
	Liters         float64
	Mileage        *float64
	Cost           float64
	PumpReading    *float64
	AllowShortfall bool
}

// FuelResult 加油复合事务结果
type FuelResult struct {
	Record   *models.FuelRecord `json:"record"`
	Warnings []Warning          `json:"warnings,omitempty"`
}

// AddFuelRecord 登记车辆加油。单个事务内写入加油记录、油罐出油事件，
// 并在提供油泵读数且与加油量吻合时同步油泵。读数与加油量偏差超过容差
// 只产生警告，油泵不动；读数回退则整个事务失败
func (l *Ledger) AddFuelRecord(ctx context.Context, input FuelInput) (*FuelResult, error) {
	if err := validateFuelInput(input); err != nil {
		return nil, err
	}

	level, err := l.store.TankLevel(ctx)
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	if input.Liters > level {
		if !input.AllowShortfall {
			return nil, &InsufficientTankLevelError{Available: level, Requested: input.Liters}
		}
		warnings = append(warnings, Warning{
			Code:    WarnTankShortfall,
			Message: fmt.Sprintf("tank level %.1fL below requested %.1fL, recorded anyway", level, input.Liters),
		})
	}

	rec := &models.FuelRecord{
		VehicleID: input.VehicleID,
		DriverID:  input.DriverID,
		Date:      input.Date,
		Liters:    input.Liters,
		Mileage:   input.Mileage,
		Cost:      input.Cost,
	}

	pumpUpdated := false
	err = l.store.InTransaction(ctx, func(tx Store) error {
		if err := tx.InsertFuelRecord(ctx, rec); err != nil {
			return err
		}

		consume := &models.TankEvent{
			Date:   input.Date,
			Liters: input.Liters,
			Type:   models.TankEventConsume,
			Notes:  "refuel " + input.VehiclePlate,
		}
		if err := tx.AppendTankEvent(ctx, consume); err != nil {
			return err
		}

		if input.PumpReading == nil {
			return nil
		}

		current, err := pumpReading(ctx, tx)
		if err != nil {
			return err
		}
		delta := *input.PumpReading - current
		if delta < 0 {
			return &NonMonotonicReadingError{Current: current, Requested: *input.PumpReading}
		}
		if math.Abs(delta-input.Liters) > l.tolerance {
			warnings = append(warnings, Warning{
				Code: WarnPumpMismatch,
				Message: fmt.Sprintf("pump delta %.1fL does not match refuel %.1fL, pump left unchanged",
					delta, input.Liters),
			})
			return nil
		}

		notes := fmt.Sprintf("refuel %.1fL", input.Liters)
		if _, err := applyPumpReading(ctx, tx, input.Date, *input.PumpReading, input.VehiclePlate, input.DriverName, notes); err != nil {
			return err
		}
		pumpUpdated = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Fuel record added",
		zap.Int64("vehicle_id", input.VehicleID),
		zap.Float64("liters", input.Liters),
		zap.Bool("pump_updated", pumpUpdated))

	l.broadcastTankLevel(ctx)
	if pumpUpdated {
		l.broadcastPumpReading(*input.PumpReading)
	}

	return &FuelResult{Record: rec, Warnings: warnings}, nil
}

// NextSequenceNumber 取下一个流水号，同一计数器并发取号不重复不跳号
func (l *Ledger) NextSequenceNumber(ctx context.Context, key string) (int64, error) {
	return l.store.IncrementCounter(ctx, key)
}

func validateFuelInput(input FuelInput) error {
	if input.VehicleID <= 0 {
		return &ValidationError{Field: "vehicle_id", Message: "required"}
	}
	if input.DriverID <= 0 {
		return &ValidationError{Field: "driver_id", Message: "required"}
	}
	if !models.ValidDate(input.Date) {
		return &ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	}
	if !models.ValidFuelLiters(input.Liters) {
		return &ValidationError{Field: "liters", Message: fmt.Sprintf("must be between 0 and %d", models.MaxFuelLiters)}
	}
	if input.Mileage != nil && !models.ValidKM(*input.Mileage) {
		return &ValidationError{Field: "mileage", Message: fmt.Sprintf("must be between 0 and %d", models.MaxKM)}
	}
	if input.Cost < 0 {
		return &ValidationError{Field: "cost", Message: "must not be negative"}
	}
	if input.PumpReading != nil && *input.PumpReading < 0 {
		return &ValidationError{Field: "pump_reading", Message: "must not be negative"}
	}
	return nil
}

// pumpReading 从设置表读取当前油泵读数
func pumpReading(ctx context.Context, s Store) (float64, error) {
	value, err := s.GetSetting(ctx, models.SettingPumpCurrentReading)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	reading, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, nil
	}
	return reading, nil
}

// applyPumpReading 校验单调性后写入油泵事件并覆盖当前读数
func applyPumpReading(ctx context.Context, tx Store, date string, newReading float64, plate, driver, notes string) (*models.PumpEvent, error) {
	current, err := pumpReading(ctx, tx)
	if err != nil {
		return nil, err
	}
	if newReading < current {
		return nil, &NonMonotonicReadingError{Current: current, Requested: newReading}
	}

	ev := &models.PumpEvent{
		Date:            date,
		Reading:         newReading,
		LitersDispensed: newReading - current,
		VehiclePlate:    plate,
		DriverName:      driver,
		Notes:           notes,
	}
	if err := tx.AppendPumpEvent(ctx, ev); err != nil {
		return nil, err
	}
	if err := tx.SetSetting(ctx, models.SettingPumpCurrentReading, strconv.FormatFloat(newReading, 'f', -1, 64)); err != nil {
		return nil, err
	}
	return ev, nil
}

func (l *Ledger) broadcastTankLevel(ctx context.Context) {
	if l.hub == nil {
		return
	}
	level, err := l.store.TankLevel(ctx)
	if err != nil {
		l.logger.Warn("Failed to read tank level for broadcast", zap.Error(err))
		return
	}
	l.hub.BroadcastMessage("tank_update", map[string]interface{}{
		"level":    level,
		"capacity": l.capacity,
		"low":      l.LowLevel(level),
	})
}

func (l *Ledger) broadcastPumpReading(reading float64) {
	if l.hub == nil {
		return
	}
	l.hub.BroadcastMessage("pump_update", map[string]interface{}{
		"reading": reading,
	})
}
