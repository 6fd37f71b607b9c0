package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetmate/internal/models"
)

// FuelRepository 加油记录数据仓库，写入走 LedgerStore 的复合事务
type FuelRepository struct {
	db *DB
}

// NewFuelRepository 创建加油仓库
func NewFuelRepository(db *DB) *FuelRepository {
	return &FuelRepository{db: db}
}

const fuelColumns = `
	f.id, f.vehicle_id, f.driver_id, f.date, f.liters, f.mileage, f.cost, f.created_at,
	v.plate, TRIM(d.name || ' ' || d.surname)
`

func scanFuelRecord(row pgx.Row) (*models.FuelRecord, error) {
	rec := &models.FuelRecord{}
	err := row.Scan(
		&rec.ID,
		&rec.VehicleID,
		&rec.DriverID,
		&rec.Date,
		&rec.Liters,
		&rec.Mileage,
		&rec.Cost,
		&rec.CreatedAt,
		&rec.VehiclePlate,
		&rec.DriverName,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID 获取加油记录
func (r *FuelRepository) GetByID(ctx context.Context, id int64) (*models.FuelRecord, error) {
	query := `
		SELECT ` + fuelColumns + `
		FROM fuel_records f
		JOIN vehicles v ON v.id = f.vehicle_id
		JOIN drivers d ON d.id = f.driver_id
		WHERE f.id = $1
	`
	rec, err := scanFuelRecord(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get fuel record: %w", err)
	}
	return rec, nil
}

// List 加油记录列表，分页，新到旧
func (r *FuelRepository) List(ctx context.Context, limit, offset int) ([]*models.FuelRecord, error) {
	query := `
		SELECT ` + fuelColumns + `
		FROM fuel_records f
		JOIN vehicles v ON v.id = f.vehicle_id
		JOIN drivers d ON d.id = f.driver_id
		ORDER BY f.date DESC, f.id DESC
		LIMIT $1 OFFSET $2
	`
	return r.listFuelRecords(ctx, query, limit, offset)
}

// ListByVehicle 车辆加油记录，分页
func (r *FuelRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.FuelRecord, error) {
	query := `
		SELECT ` + fuelColumns + `
		FROM fuel_records f
		JOIN vehicles v ON v.id = f.vehicle_id
		JOIN drivers d ON d.id = f.driver_id
		WHERE f.vehicle_id = $1
		ORDER BY f.date DESC, f.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.listFuelRecords(ctx, query, vehicleID, limit, offset)
}

// ListAll 全部加油记录（导出用）
func (r *FuelRepository) ListAll(ctx context.Context) ([]*models.FuelRecord, error) {
	query := `
		SELECT ` + fuelColumns + `
		FROM fuel_records f
		JOIN vehicles v ON v.id = f.vehicle_id
		JOIN drivers d ON d.id = f.driver_id
		ORDER BY f.date, f.id
	`
	return r.listFuelRecords(ctx, query)
}

// Count 加油记录总数
func (r *FuelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM fuel_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count fuel records: %w", err)
	}
	return count, nil
}

func (r *FuelRepository) listFuelRecords(ctx context.Context, query string, args ...any) ([]*models.FuelRecord, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fuel records: %w", err)
	}
	defer rows.Close()

	var records []*models.FuelRecord
	for rows.Next() {
		rec, err := scanFuelRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fuel record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}
