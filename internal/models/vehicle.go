package models

import "time"

// Vehicle 车辆信息
type Vehicle struct {
	ID        int64     `json:"id" db:"id"`
	Plate     string    `json:"plate" db:"plate"`
	Brand     string    `json:"brand" db:"brand"`
	Type      string    `json:"type" db:"vtype"`
	Purpose   string    `json:"purpose" db:"purpose"`
	PhotoPath string    `json:"photo_path" db:"photo_path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
