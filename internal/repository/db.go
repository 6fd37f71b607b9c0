package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier 连接池与事务共同满足的最小查询接口
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// WithTx 在单个事务内执行 fn，fn 返回错误则回滚
func (db *DB) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateVehicles,
		migrationCreateDrivers,
		migrationCreatePurposes,
		migrationCreateMovements,
		migrationCreateFuelRecords,
		migrationCreateTankEvents,
		migrationCreatePumpEvents,
		migrationCreateSettings,
		migrationSeedPurposes,
		migrationSeedSettings,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateVehicles = `
CREATE TABLE IF NOT EXISTS vehicles (
    id BIGSERIAL PRIMARY KEY,
    plate VARCHAR(10) NOT NULL UNIQUE,
    brand VARCHAR(100),
    vtype VARCHAR(50),
    purpose VARCHAR(100),
    photo_path TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vehicles_plate ON vehicles(plate);
`

const migrationCreateDrivers = `
CREATE TABLE IF NOT EXISTS drivers (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(50) NOT NULL,
    surname VARCHAR(50),
    notes TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

const migrationCreatePurposes = `
CREATE TABLE IF NOT EXISTS purposes (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    description TEXT,
    category VARCHAR(50),
    active BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

const migrationCreateMovements = `
CREATE TABLE IF NOT EXISTS movements (
    id BIGSERIAL PRIMARY KEY,
    movement_number BIGINT NOT NULL UNIQUE,
    vehicle_id BIGINT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
    driver_id BIGINT NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
    date VARCHAR(10) NOT NULL,
    start_km DOUBLE PRECISION NOT NULL,
    end_km DOUBLE PRECISION,
    route TEXT,
    purpose VARCHAR(100),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_movements_vehicle_id ON movements(vehicle_id);
CREATE INDEX IF NOT EXISTS idx_movements_driver_id ON movements(driver_id);
CREATE INDEX IF NOT EXISTS idx_movements_date ON movements(date);
`

const migrationCreateFuelRecords = `
CREATE TABLE IF NOT EXISTS fuel_records (
    id BIGSERIAL PRIMARY KEY,
    vehicle_id BIGINT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
    driver_id BIGINT NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
    date VARCHAR(10) NOT NULL,
    liters DOUBLE PRECISION NOT NULL CHECK (liters > 0),
    mileage DOUBLE PRECISION,
    cost DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fuel_records_vehicle_id ON fuel_records(vehicle_id);
CREATE INDEX IF NOT EXISTS idx_fuel_records_date ON fuel_records(date);
`

const migrationCreateTankEvents = `
CREATE TABLE IF NOT EXISTS tank_events (
    id BIGSERIAL PRIMARY KEY,
    date VARCHAR(10) NOT NULL,
    liters DOUBLE PRECISION NOT NULL CHECK (liters > 0),
    event_type VARCHAR(10) NOT NULL CHECK (event_type IN ('fill', 'consume')),
    notes TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_tank_events_date ON tank_events(date);
`

const migrationCreatePumpEvents = `
CREATE TABLE IF NOT EXISTS pump_events (
    id BIGSERIAL PRIMARY KEY,
    date VARCHAR(10) NOT NULL,
    reading DOUBLE PRECISION NOT NULL,
    liters_dispensed DOUBLE PRECISION NOT NULL,
    vehicle_plate VARCHAR(10),
    driver_name VARCHAR(100),
    notes TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pump_events_date ON pump_events(date);
`

const migrationCreateSettings = `
CREATE TABLE IF NOT EXISTS settings (
    key VARCHAR(100) PRIMARY KEY,
    value TEXT NOT NULL,
    notes TEXT,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

// 预置出车事由
const migrationSeedPurposes = `
INSERT INTO purposes (name, description, category) VALUES
    ('Service', 'Routine service trip', 'operations'),
    ('Delivery', 'Goods or document delivery', 'operations'),
    ('Maintenance', 'Workshop or inspection trip', 'maintenance'),
    ('Training', 'Driver training', 'personnel'),
    ('Other', 'Unclassified trip', 'other')
ON CONFLICT (name) DO NOTHING;
`

// 预置设置项
const migrationSeedSettings = `
INSERT INTO settings (key, value, notes) VALUES
    ('movement_counter', '0', 'last assigned movement number'),
    ('pump_current_reading', '0', 'authoritative pump totalizer reading'),
    ('theme', 'light', 'ui theme'),
    ('app_version', '1.0.0', '')
ON CONFLICT (key) DO NOTHING;
`
