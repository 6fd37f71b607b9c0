package models

import "time"

// 油罐事件类型
const (
	TankEventFill    = "fill"
	TankEventConsume = "consume"
)

// TankEvent 油罐事件，只追加不修改，液位由全量求和得出
type TankEvent struct {
	ID        int64     `json:"id" db:"id"`
	Date      string    `json:"date" db:"date"`
	Liters    float64   `json:"liters" db:"liters"`
	Type      string    `json:"type" db:"event_type"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PumpEvent 油泵读数事件，读数只增不减
type PumpEvent struct {
	ID              int64     `json:"id" db:"id"`
	Date            string    `json:"date" db:"date"`
	Reading         float64   `json:"reading" db:"reading"`
	LitersDispensed float64   `json:"liters_dispensed" db:"liters_dispensed"`
	VehiclePlate    string    `json:"vehicle_plate" db:"vehicle_plate"`
	DriverName      string    `json:"driver_name" db:"driver_name"`
	Notes           string    `json:"notes" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// FuelRecord 车辆加油记录
type FuelRecord struct {
	ID        int64     `json:"id" db:"id"`
	VehicleID int64     `json:"vehicle_id" db:"vehicle_id"`
	DriverID  int64     `json:"driver_id" db:"driver_id"`
	Date      string    `json:"date" db:"date"`
	Liters    float64   `json:"liters" db:"liters"`
	Mileage   *float64  `json:"mileage" db:"mileage"`
	Cost      float64   `json:"cost" db:"cost"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// 关联展示字段（JOIN 查询填充）
	VehiclePlate string `json:"vehicle_plate,omitempty" db:"-"`
	DriverName   string `json:"driver_name,omitempty" db:"-"`
}
