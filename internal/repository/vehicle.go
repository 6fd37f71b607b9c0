package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetmate/internal/models"
)

// VehicleRepository 车辆数据仓库
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create 创建车辆
func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (plate, brand, vtype, purpose, photo_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		v.Plate,
		v.Brand,
		v.Type,
		v.Purpose,
		v.PhotoPath,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// Update 更新车辆
func (r *VehicleRepository) Update(ctx context.Context, v *models.Vehicle) error {
	query := `
		UPDATE vehicles SET
			plate = $1,
			brand = $2,
			vtype = $3,
			purpose = $4,
			photo_path = $5,
			updated_at = NOW()
		WHERE id = $6
	`
	_, err := r.db.Pool.Exec(ctx, query,
		v.Plate,
		v.Brand,
		v.Type,
		v.Purpose,
		v.PhotoPath,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

// Delete 删除车辆，出车与加油记录级联删除
func (r *VehicleRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return nil
}

// GetByID 获取车辆
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	query := `
		SELECT id, plate, brand, vtype, purpose, photo_path, created_at, updated_at
		FROM vehicles WHERE id = $1
	`
	v := &models.Vehicle{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Plate,
		&v.Brand,
		&v.Type,
		&v.Purpose,
		&v.PhotoPath,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return v, nil
}

// GetByPlate 按车牌获取车辆
func (r *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	query := `
		SELECT id, plate, brand, vtype, purpose, photo_path, created_at, updated_at
		FROM vehicles WHERE plate = $1
	`
	v := &models.Vehicle{}
	err := r.db.Pool.QueryRow(ctx, query, plate).Scan(
		&v.ID,
		&v.Plate,
		&v.Brand,
		&v.Type,
		&v.Purpose,
		&v.PhotoPath,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get vehicle by plate: %w", err)
	}
	return v, nil
}

// List 获取车辆列表
func (r *VehicleRepository) List(ctx context.Context) ([]*models.Vehicle, error) {
	query := `
		SELECT id, plate, brand, vtype, purpose, photo_path, created_at, updated_at
		FROM vehicles ORDER BY plate
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v := &models.Vehicle{}
		err := rows.Scan(
			&v.ID,
			&v.Plate,
			&v.Brand,
			&v.Type,
			&v.Purpose,
			&v.PhotoPath,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, nil
}
