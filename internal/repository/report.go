package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetmate/internal/models"
)

// ReportRepository 报表聚合查询
type ReportRepository struct {
	db *DB
}

// NewReportRepository 创建报表仓库
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// MonthlyVehicleReport 车辆月度报表行
type MonthlyVehicleReport struct {
	VehicleID  int64   `json:"vehicle_id"`
	Plate      string  `json:"plate"`
	Movements  int64   `json:"movements"`
	TotalKM    float64 `json:"total_km"`
	MinKM      float64 `json:"min_km"`
	MaxKM      float64 `json:"max_km"`
	FuelLiters float64 `json:"fuel_liters"`
	Refills    int64   `json:"refills"`
	AvgRefillL float64 `json:"avg_refill_liters"`
	KMPerLiter float64 `json:"km_per_liter"`
}

// Monthly 按月汇总每辆车的出车与加油数据，month 形如 YYYY-MM。
// 未归队的出车也计入次数与里程表极值，公里数按出车时读数计。
func (r *ReportRepository) Monthly(ctx context.Context, month string) ([]*MonthlyVehicleReport, error) {
	query := `
		SELECT v.id, v.plate,
			COALESCE(mv.cnt, 0), COALESCE(mv.km, 0),
			COALESCE(mv.min_km, 0), COALESCE(mv.max_km, 0),
			COALESCE(fu.liters, 0), COALESCE(fu.cnt, 0)
		FROM vehicles v
		LEFT JOIN (
			SELECT vehicle_id, COUNT(*) AS cnt,
				SUM(COALESCE(end_km, start_km) - start_km) AS km,
				MIN(start_km) AS min_km,
				MAX(COALESCE(end_km, start_km)) AS max_km
			FROM movements
			WHERE date LIKE $1 || '%'
			GROUP BY vehicle_id
		) mv ON mv.vehicle_id = v.id
		LEFT JOIN (
			SELECT vehicle_id, SUM(liters) AS liters, COUNT(*) AS cnt
			FROM fuel_records
			WHERE date LIKE $1 || '%'
			GROUP BY vehicle_id
		) fu ON fu.vehicle_id = v.id
		ORDER BY v.plate
	`
	rows, err := r.db.Pool.Query(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	defer rows.Close()

	var report []*MonthlyVehicleReport
	for rows.Next() {
		row := &MonthlyVehicleReport{}
		err := rows.Scan(
			&row.VehicleID,
			&row.Plate,
			&row.Movements,
			&row.TotalKM,
			&row.MinKM,
			&row.MaxKM,
			&row.FuelLiters,
			&row.Refills,
		)
		if err != nil {
			return nil, fmt.Errorf("scan monthly report: %w", err)
		}
		if row.Refills > 0 {
			row.AvgRefillL = row.FuelLiters / float64(row.Refills)
		}
		if row.FuelLiters > 0 {
			row.KMPerLiter = row.TotalKM / row.FuelLiters
		}
		report = append(report, row)
	}

	return report, nil
}

// MonthlyBreakdown 驾驶员月度明细行
type MonthlyBreakdown struct {
	Month     string  `json:"month"`
	Movements int64   `json:"movements"`
	KM        float64 `json:"km"`
	Liters    float64 `json:"liters"`
	Cost      float64 `json:"cost"`
}

// PurposeBreakdown 驾驶员按事由明细行
type PurposeBreakdown struct {
	Purpose   string  `json:"purpose"`
	Movements int64   `json:"movements"`
	KM        float64 `json:"km"`
}

// VehicleBreakdown 驾驶员常用车辆行
type VehicleBreakdown struct {
	Plate     string  `json:"plate"`
	Movements int64   `json:"movements"`
	KM        float64 `json:"km"`
}

// DriverAnalytics 驾驶员行为分析
type DriverAnalytics struct {
	DriverID       int64               `json:"driver_id"`
	DriverName     string              `json:"driver_name"`
	From           string              `json:"from,omitempty"`
	To             string              `json:"to,omitempty"`
	TotalMovements int64               `json:"total_movements"`
	TotalKM        float64             `json:"total_km"`
	TotalLiters    float64             `json:"total_liters"`
	TotalCost      float64             `json:"total_cost"`
	KMPerLiter     float64             `json:"km_per_liter"`
	CostPerKM      float64             `json:"cost_per_km"`
	LitersPer100KM float64             `json:"liters_per_100km"`
	Monthly        []*MonthlyBreakdown `json:"monthly"`
	Purposes       []*PurposeBreakdown `json:"purposes"`
	Vehicles       []*VehicleBreakdown `json:"most_used_vehicles"`
}

// AnalyzeDriver 汇总单个驾驶员的出车、油耗与成本指标。
// from/to 为可选的 YYYY-MM-DD 日期范围，空串表示不限
func (r *ReportRepository) AnalyzeDriver(ctx context.Context, driver *models.Driver, from, to string) (*DriverAnalytics, error) {
	a := &DriverAnalytics{
		DriverID:   driver.ID,
		DriverName: driver.FullName(),
		From:       from,
		To:         to,
	}

	// 所有查询共用的日期范围条件，$2/$3 为空串时不过滤
	const dateRange = `($2 = '' OR date >= $2) AND ($3 = '' OR date <= $3)`

	totalsQuery := `
		SELECT COALESCE(COUNT(*), 0), COALESCE(SUM(end_km - start_km), 0)
		FROM movements WHERE driver_id = $1 AND end_km IS NOT NULL AND ` + dateRange
	if err := r.db.Pool.QueryRow(ctx, totalsQuery, driver.ID, from, to).Scan(&a.TotalMovements, &a.TotalKM); err != nil {
		return nil, fmt.Errorf("driver movement totals: %w", err)
	}

	fuelQuery := `
		SELECT COALESCE(SUM(liters), 0), COALESCE(SUM(cost), 0)
		FROM fuel_records WHERE driver_id = $1 AND ` + dateRange
	if err := r.db.Pool.QueryRow(ctx, fuelQuery, driver.ID, from, to).Scan(&a.TotalLiters, &a.TotalCost); err != nil {
		return nil, fmt.Errorf("driver fuel totals: %w", err)
	}

	if a.TotalLiters > 0 {
		a.KMPerLiter = a.TotalKM / a.TotalLiters
	}
	if a.TotalKM > 0 {
		a.CostPerKM = a.TotalCost / a.TotalKM
		a.LitersPer100KM = a.TotalLiters / a.TotalKM * 100
	}

	monthlyQuery := `
		SELECT mv.month,
			COALESCE(mv.cnt, 0), COALESCE(mv.km, 0),
			COALESCE(fu.liters, 0), COALESCE(fu.cost, 0)
		FROM (
			SELECT SUBSTR(date, 1, 7) AS month, COUNT(*) AS cnt, SUM(end_km - start_km) AS km
			FROM movements WHERE driver_id = $1 AND end_km IS NOT NULL AND ` + dateRange + `
			GROUP BY SUBSTR(date, 1, 7)
		) mv
		LEFT JOIN (
			SELECT SUBSTR(date, 1, 7) AS month, SUM(liters) AS liters, SUM(cost) AS cost
			FROM fuel_records WHERE driver_id = $1 AND ` + dateRange + `
			GROUP BY SUBSTR(date, 1, 7)
		) fu ON fu.month = mv.month
		ORDER BY mv.month DESC
	`
	rows, err := r.db.Pool.Query(ctx, monthlyQuery, driver.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("driver monthly breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		b := &MonthlyBreakdown{}
		if err := rows.Scan(&b.Month, &b.Movements, &b.KM, &b.Liters, &b.Cost); err != nil {
			return nil, fmt.Errorf("scan monthly breakdown: %w", err)
		}
		a.Monthly = append(a.Monthly, b)
	}
	rows.Close()

	purposeQuery := `
		SELECT purpose, COUNT(*), COALESCE(SUM(end_km - start_km), 0)
		FROM movements WHERE driver_id = $1 AND end_km IS NOT NULL AND ` + dateRange + `
		GROUP BY purpose ORDER BY COUNT(*) DESC
	`
	prows, err := r.db.Pool.Query(ctx, purposeQuery, driver.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("driver purpose breakdown: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		b := &PurposeBreakdown{}
		if err := prows.Scan(&b.Purpose, &b.Movements, &b.KM); err != nil {
			return nil, fmt.Errorf("scan purpose breakdown: %w", err)
		}
		a.Purposes = append(a.Purposes, b)
	}
	prows.Close()

	vehicleQuery := `
		SELECT v.plate, COUNT(*),
			COALESCE(SUM(COALESCE(m.end_km, m.start_km) - m.start_km), 0)
		FROM movements m
		JOIN vehicles v ON v.id = m.vehicle_id
		WHERE m.driver_id = $1 AND ` + dateRange + `
		GROUP BY v.plate ORDER BY COUNT(*) DESC LIMIT 5
	`
	vrows, err := r.db.Pool.Query(ctx, vehicleQuery, driver.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("driver vehicle breakdown: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		b := &VehicleBreakdown{}
		if err := vrows.Scan(&b.Plate, &b.Movements, &b.KM); err != nil {
			return nil, fmt.Errorf("scan vehicle breakdown: %w", err)
		}
		a.Vehicles = append(a.Vehicles, b)
	}

	return a, nil
}

// DriverSummary 驾驶员排行行
type DriverSummary struct {
	DriverID   int64   `json:"driver_id"`
	DriverName string  `json:"driver_name"`
	Movements  int64   `json:"movements"`
	TotalKM    float64 `json:"total_km"`
}

// DriversSummary 全体驾驶员按里程排行
func (r *ReportRepository) DriversSummary(ctx context.Context) ([]*DriverSummary, error) {
	query := `
		SELECT d.id, TRIM(d.name || ' ' || d.surname),
			COALESCE(COUNT(m.id), 0), COALESCE(SUM(m.end_km - m.start_km), 0)
		FROM drivers d
		LEFT JOIN movements m ON m.driver_id = d.id AND m.end_km IS NOT NULL
		GROUP BY d.id, d.name, d.surname
		ORDER BY COALESCE(SUM(m.end_km - m.start_km), 0) DESC
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("drivers summary: %w", err)
	}
	defer rows.Close()

	var summary []*DriverSummary
	for rows.Next() {
		s := &DriverSummary{}
		if err := rows.Scan(&s.DriverID, &s.DriverName, &s.Movements, &s.TotalKM); err != nil {
			return nil, fmt.Errorf("scan driver summary: %w", err)
		}
		summary = append(summary, s)
	}

	return summary, nil
}
