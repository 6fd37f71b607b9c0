package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetmate/internal/models"
)

// PurposeRepository 出车事由数据仓库
type PurposeRepository struct {
	db *DB
}

// NewPurposeRepository 创建事由仓库
func NewPurposeRepository(db *DB) *PurposeRepository {
	return &PurposeRepository{db: db}
}

// Create 创建事由
func (r *PurposeRepository) Create(ctx context.Context, p *models.Purpose) error {
	query := `
		INSERT INTO purposes (name, description, category)
		VALUES ($1, $2, $3)
		RETURNING id, active, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query, p.Name, p.Description, p.Category).
		Scan(&p.ID, &p.Active, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert purpose: %w", err)
	}
	return nil
}

// Update 更新事由
func (r *PurposeRepository) Update(ctx context.Context, p *models.Purpose) error {
	query := `
		UPDATE purposes SET name = $1, description = $2, category = $3
		WHERE id = $4
	`
	_, err := r.db.Pool.Exec(ctx, query, p.Name, p.Description, p.Category, p.ID)
	if err != nil {
		return fmt.Errorf("update purpose: %w", err)
	}
	return nil
}

// Deactivate 停用事由（软删除）
func (r *PurposeRepository) Deactivate(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `UPDATE purposes SET active = false WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deactivate purpose: %w", err)
	}
	return nil
}

// Restore 恢复事由
func (r *PurposeRepository) Restore(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `UPDATE purposes SET active = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("restore purpose: %w", err)
	}
	return nil
}

// GetByID 获取事由
func (r *PurposeRepository) GetByID(ctx context.Context, id int64) (*models.Purpose, error) {
	query := `
		SELECT id, name, description, category, active, created_at
		FROM purposes WHERE id = $1
	`
	p := &models.Purpose{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Active,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get purpose: %w", err)
	}
	return p, nil
}

// List 获取事由列表，includeInactive 为 false 时只返回启用项
func (r *PurposeRepository) List(ctx context.Context, includeInactive bool) ([]*models.Purpose, error) {
	query := `
		SELECT id, name, description, category, active, created_at
		FROM purposes WHERE active OR $1 ORDER BY category, name
	`
	rows, err := r.db.Pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list purposes: %w", err)
	}
	defer rows.Close()

	var purposes []*models.Purpose
	for rows.Next() {
		p := &models.Purpose{}
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Category,
			&p.Active,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan purpose: %w", err)
		}
		purposes = append(purposes, p)
	}

	return purposes, nil
}
