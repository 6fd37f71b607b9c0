package models

import "time"

// Driver 驾驶员信息
type Driver struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Surname   string    `json:"surname" db:"surname"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName 姓名全称
func (d *Driver) FullName() string {
	if d.Surname == "" {
		return d.Name
	}
	return d.Name + " " + d.Surname
}
