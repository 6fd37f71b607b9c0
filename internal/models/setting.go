package models

import "time"

// 预置设置键
const (
	SettingMovementCounter    = "movement_counter"
	SettingPumpCurrentReading = "pump_current_reading"
	SettingTheme              = "theme"
	SettingAppVersion         = "app_version"
)

// Setting 键值设置
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	Notes     string    `json:"notes" db:"notes"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
