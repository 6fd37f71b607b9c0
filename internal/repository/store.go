package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetmate/internal/models"
	"github.com/langchou/fleetmate/internal/service"
)

// LedgerStore service.Store 的数据库实现。
// 平时跑在连接池上，InTransaction 内绑定同一事务
type LedgerStore struct {
	db *DB
	q  Querier
}

// NewLedgerStore 创建台账存储
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db, q: db.Pool}
}

// TankLevel 当前液位，对全部油罐事件求和，空表为 0
func (s *LedgerStore) TankLevel(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN event_type = 'fill' THEN liters ELSE -liters END), 0)
		FROM tank_events
	`
	var level float64
	if err := s.q.QueryRow(ctx, query).Scan(&level); err != nil {
		return 0, fmt.Errorf("sum tank events: %w", err)
	}
	return level, nil
}

// AppendTankEvent 追加油罐事件
func (s *LedgerStore) AppendTankEvent(ctx context.Context, ev *models.TankEvent) error {
	query := `
		INSERT INTO tank_events (date, liters, event_type, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := s.q.QueryRow(ctx, query, ev.Date, ev.Liters, ev.Type, ev.Notes).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tank event: %w", err)
	}
	return nil
}

// TankHistory 油罐事件历史，新到旧
func (s *LedgerStore) TankHistory(ctx context.Context, limit int) ([]*models.TankEvent, error) {
	query := `
		SELECT id, date, liters, event_type, notes, created_at
		FROM tank_events ORDER BY date DESC, id DESC LIMIT $1
	`
	rows, err := s.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list tank events: %w", err)
	}
	defer rows.Close()

	var events []*models.TankEvent
	for rows.Next() {
		ev := &models.TankEvent{}
		if err := rows.Scan(&ev.ID, &ev.Date, &ev.Liters, &ev.Type, &ev.Notes, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tank event: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// GetSetting 读取设置值，不存在时返回空串
func (s *LedgerStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting 写入设置值，存在则覆盖
func (s *LedgerStore) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`
	if _, err := s.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// IncrementCounter 计数器原子自增，单条 upsert 保证并发不重号
func (s *LedgerStore) IncrementCounter(ctx context.Context, key string) (int64, error) {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, '1', NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = ((settings.value)::bigint + 1)::text, updated_at = NOW()
		RETURNING (value)::bigint
	`
	var next int64
	if err := s.q.QueryRow(ctx, query, key).Scan(&next); err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return next, nil
}

// AppendPumpEvent 追加油泵事件
func (s *LedgerStore) AppendPumpEvent(ctx context.Context, ev *models.PumpEvent) error {
	query := `
		INSERT INTO pump_events (date, reading, liters_dispensed, vehicle_plate, driver_name, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := s.q.QueryRow(ctx, query,
		ev.Date,
		ev.Reading,
		ev.LitersDispensed,
		ev.VehiclePlate,
		ev.DriverName,
		ev.Notes,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pump event: %w", err)
	}
	return nil
}

// PumpHistory 油泵事件历史，新到旧
func (s *LedgerStore) PumpHistory(ctx context.Context, limit int) ([]*models.PumpEvent, error) {
	query := `
		SELECT id, date, reading, liters_dispensed, vehicle_plate, driver_name, notes, created_at
		FROM pump_events ORDER BY date DESC, id DESC LIMIT $1
	`
	rows, err := s.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pump events: %w", err)
	}
	defer rows.Close()

	var events []*models.PumpEvent
	for rows.Next() {
		ev := &models.PumpEvent{}
		err := rows.Scan(
			&ev.ID,
			&ev.Date,
			&ev.Reading,
			&ev.LitersDispensed,
			&ev.VehiclePlate,
			&ev.DriverName,
			&ev.Notes,
			&ev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pump event: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// InsertFuelRecord 插入加油记录
func (s *LedgerStore) InsertFuelRecord(ctx context.Context, rec *models.FuelRecord) error {
	query := `
		INSERT INTO fuel_records (vehicle_id, driver_id, date, liters, mileage, cost)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := s.q.QueryRow(ctx, query,
		rec.VehicleID,
		rec.DriverID,
		rec.Date,
		rec.Liters,
		rec.Mileage,
		rec.Cost,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert fuel record: %w", err)
	}
	return nil
}

// InTransaction 在单个事务内执行 fn
func (s *LedgerStore) InTransaction(ctx context.Context, fn func(service.Store) error) error {
	return s.db.WithTx(ctx, func(q Querier) error {
		return fn(&LedgerStore{db: s.db, q: q})
	})
}
