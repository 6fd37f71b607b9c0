package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetmate/internal/models"
)

// DriverRepository 驾驶员数据仓库
type DriverRepository struct {
	db *DB
}

// NewDriverRepository 创建驾驶员仓库
func NewDriverRepository(db *DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// Create 创建驾驶员
func (r *DriverRepository) Create(ctx context.Context, d *models.Driver) error {
	query := `
		INSERT INTO drivers (name, surname, notes)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Pool.QueryRow(ctx, query, d.Name, d.Surname, d.Notes).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert driver: %w", err)
	}
	return nil
}

// Update 更新驾驶员
func (r *DriverRepository) Update(ctx context.Context, d *models.Driver) error {
	query := `
		UPDATE drivers SET name = $1, surname = $2, notes = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Pool.Exec(ctx, query, d.Name, d.Surname, d.Notes, d.ID)
	if err != nil {
		return fmt.Errorf("update driver: %w", err)
	}
	return nil
}

// Delete 删除驾驶员，出车与加油记录级联删除
func (r *DriverRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM drivers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete driver: %w", err)
	}
	return nil
}

// GetByID 获取驾驶员
func (r *DriverRepository) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	query := `
		SELECT id, name, surname, notes, created_at, updated_at
		FROM drivers WHERE id = $1
	`
	d := &models.Driver{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.Surname,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return d, nil
}

// List 获取驾驶员列表
func (r *DriverRepository) List(ctx context.Context) ([]*models.Driver, error) {
	query := `
		SELECT id, name, surname, notes, created_at, updated_at
		FROM drivers ORDER BY surname, name
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		d := &models.Driver{}
		err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Surname,
			&d.Notes,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}

	return drivers, nil
}
