package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetmate/internal/models"
)

// MovementRepository 出车记录数据仓库
type MovementRepository struct {
	db *DB
}

// NewMovementRepository 创建出车仓库
func NewMovementRepository(db *DB) *MovementRepository {
	return &MovementRepository{db: db}
}

const movementColumns = `
	m.id, m.movement_number, m.vehicle_id, m.driver_id, m.date, m.start_km, m.end_km,
	m.route, m.purpose, m.created_at, m.updated_at,
	v.plate, TRIM(d.name || ' ' || d.surname)
`

func scanMovement(row pgx.Row) (*models.Movement, error) {
	m := &models.Movement{}
	err := row.Scan(
		&m.ID,
		&m.MovementNumber,
		&m.VehicleID,
		&m.DriverID,
		&m.Date,
		&m.StartKM,
		&m.EndKM,
		&m.Route,
		&m.Purpose,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.VehiclePlate,
		&m.DriverName,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create 插入出车记录，流水号在同一事务内从计数器原子分配
func (r *MovementRepository) Create(ctx context.Context, m *models.Movement) error {
	return r.db.WithTx(ctx, func(q Querier) error {
		counterQuery := `
			INSERT INTO settings (key, value, updated_at) VALUES ($1, '1', NOW())
			ON CONFLICT (key) DO UPDATE
			SET value = ((settings.value)::bigint + 1)::text, updated_at = NOW()
			RETURNING (value)::bigint
		`
		if err := q.QueryRow(ctx, counterQuery, models.SettingMovementCounter).Scan(&m.MovementNumber); err != nil {
			return fmt.Errorf("allocate movement number: %w", err)
		}

		insertQuery := `
			INSERT INTO movements (movement_number, vehicle_id, driver_id, date, start_km, route, purpose)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at
		`
		err := q.QueryRow(ctx, insertQuery,
			m.MovementNumber,
			m.VehicleID,
			m.DriverID,
			m.Date,
			m.StartKM,
			m.Route,
			m.Purpose,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		return nil
	})
}

// Close 登记归队里程
func (r *MovementRepository) Close(ctx context.Context, id int64, endKM float64) error {
	query := `UPDATE movements SET end_km = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.Pool.Exec(ctx, query, endKM, id); err != nil {
		return fmt.Errorf("close movement: %w", err)
	}
	return nil
}

// GetByID 获取出车记录
func (r *MovementRepository) GetByID(ctx context.Context, id int64) (*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN vehicles v ON v.id = m.vehicle_id
		JOIN drivers d ON d.id = m.driver_id
		WHERE m.id = $1
	`
	m, err := scanMovement(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ActiveByVehicle 车辆当前未归行程，没有时返回 nil
func (r *MovementRepository) ActiveByVehicle(ctx context.Context, vehicleID int64) (*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN vehicles v ON v.id = m.vehicle_id
		JOIN drivers d ON d.id = m.driver_id
		WHERE m.vehicle_id = $1 AND m.end_km IS NULL
		ORDER BY m.id DESC LIMIT 1
	`
	m, err := scanMovement(r.db.Pool.QueryRow(ctx, query, vehicleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active movement: %w", err)
	}
	return m, nil
}

// ListActive 全部未归行程
func (r *MovementRepository) ListActive(ctx context.Context) ([]*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN vehicles v ON v.id = m.vehicle_id
		JOIN drivers d ON d.id = m.driver_id
		WHERE m.end_km IS NULL
		ORDER BY m.movement_number DESC
	`
	return r.listMovements(ctx, query)
}

// ListCompleted 已归队行程，分页
func (r *MovementRepository) ListCompleted(ctx context.Context, limit, offset int) ([]*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN vehicles v ON v.id = m.vehicle_id
		JOIN drivers d ON d.id = m.driver_id
		WHERE m.end_km IS NOT NULL
		ORDER BY m.date DESC, m.movement_number DESC
		LIMIT $1 OFFSET $2
	`
	return r.listMovements(ctx, query, limit, offset)
}

// ListByVehicle 车辆出车记录，分页
func (r *MovementRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN vehicles v ON v.id = m.vehicle_id
		JOIN drivers d ON d.id = m.driver_id
		WHERE m.vehicle_id = $1
		ORDER BY m.date DESC, m.movement_number DESC
		LIMIT $2 OFFSET $3
	`
	return r.listMovements(ctx, query, vehicleID, limit, offset)
}

// ListAll 全部出车记录（导出用）
func (r *MovementRepository) ListAll(ctx context.Context) ([]*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements m
		JOIN vehicles v ON v.id = m.vehicle_id
		JOIN drivers d ON d.id = m.driver_id
		ORDER BY m.movement_number
	`
	return r.listMovements(ctx, query)
}

// CountCompleted 已归队行程总数
func (r *MovementRepository) CountCompleted(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM movements WHERE end_km IS NOT NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return count, nil
}

func (r *MovementRepository) listMovements(ctx context.Context, query string, args ...any) ([]*models.Movement, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var movements []*models.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}

	return movements, nil
}
