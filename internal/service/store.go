package service

import (
	"context"

	"github.com/langchou/fleetmate/internal/models"
)

// Store 台账存储端口，由 repository 层实现
type Store interface {
	// TankLevel 当前液位，对全部油罐事件求和得出
	TankLevel(ctx context.Context) (float64, error)
	AppendTankEvent(ctx context.Context, ev *models.TankEvent) error
	TankHistory(ctx context.Context, limit int) ([]*models.TankEvent, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	// IncrementCounter 原子自增计数器，返回自增后的值
	IncrementCounter(ctx context.Context, key string) (int64, error)

	AppendPumpEvent(ctx context.Context, ev *models.PumpEvent) error
	PumpHistory(ctx context.Context, limit int) ([]*models.PumpEvent, error)

	InsertFuelRecord(ctx context.Context, rec *models.FuelRecord) error

	// InTransaction 在单个数据库事务内执行 fn，fn 的 Store 绑定该事务，
	// fn 返回错误则整体回滚
	InTransaction(ctx context.Context, fn func(Store) error) error
}
