package models

import "time"

// Movement 出车记录，end_km 为空表示行程未归
type Movement struct {
	ID             int64     `json:"id" db:"id"`
	MovementNumber int64     `json:"movement_number" db:"movement_number"`
	VehicleID      int64     `json:"vehicle_id" db:"vehicle_id"`
	DriverID       int64     `json:"driver_id" db:"driver_id"`
	Date           string    `json:"date" db:"date"`
	StartKM        float64   `json:"start_km" db:"start_km"`
	EndKM          *float64  `json:"end_km" db:"end_km"`
	Route          string    `json:"route" db:"route"`
	Purpose        string    `json:"purpose" db:"purpose"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	// 关联展示字段（JOIN 查询填充）
	VehiclePlate string `json:"vehicle_plate,omitempty" db:"-"`
	DriverName   string `json:"driver_name,omitempty" db:"-"`
}

// Active 行程是否进行中
func (m *Movement) Active() bool {
	return m.EndKM == nil
}

// DistanceKM 行程里程，未归时为 0
func (m *Movement) DistanceKM() float64 {
	if m.EndKM == nil {
		return 0
	}
	return *m.EndKM - m.StartKM
}
