package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
	"github.com/langchou/fleetmate/internal/repository"
)

type fakeDriverStore struct {
	driver *models.Driver
}

func (f *fakeDriverStore) List(ctx context.Context) ([]*models.Driver, error) { return nil, nil }
func (f *fakeDriverStore) Create(ctx context.Context, d *models.Driver) error { return nil }
func (f *fakeDriverStore) GetByID(ctx context.Context, id int64) (*models.Driver, error) {
	return f.driver, nil
}
func (f *fakeDriverStore) Update(ctx context.Context, d *models.Driver) error { return nil }
func (f *fakeDriverStore) Delete(ctx context.Context, id int64) error         { return nil }

type fakeReportStore struct {
	monthly   []*repository.MonthlyVehicleReport
	analytics *repository.DriverAnalytics
	gotFrom   string
	gotTo     string
}

func (f *fakeReportStore) Monthly(ctx context.Context, month string) ([]*repository.MonthlyVehicleReport, error) {
	return f.monthly, nil
}

func (f *fakeReportStore) AnalyzeDriver(ctx context.Context, driver *models.Driver, from, to string) (*repository.DriverAnalytics, error) {
	f.gotFrom = from
	f.gotTo = to
	return f.analytics, nil
}

func (f *fakeReportStore) DriversSummary(ctx context.Context) ([]*repository.DriverSummary, error) {
	return nil, nil
}

func newReportTestRouter(reports *fakeReportStore, drivers *fakeDriverStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		logger:     zap.NewNop(),
		driverRepo: drivers,
		reportRepo: reports,
	}
	r := gin.New()
	r.GET("/api/drivers/:id/analytics", h.GetDriverAnalytics)
	r.GET("/api/exports/monthly.csv", h.ExportMonthlyCSV)
	return r
}

func TestExportMonthlyCSVIncludesOdometerBounds(t *testing.T) {
	reports := &fakeReportStore{
		monthly: []*repository.MonthlyVehicleReport{
			{
				VehicleID:  1,
				Plate:      "AB123CD",
				Movements:  3,
				TotalKM:    345.5,
				MinKM:      12000,
				MaxKM:      12345.5,
				FuelLiters: 40,
				Refills:    1,
			},
		},
	}
	r := newReportTestRouter(reports, &fakeDriverStore{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/exports/monthly.csv?month=2026-08", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "min_km,max_km")
	assert.Contains(t, body, "12000.0,12345.5")
}

func TestDriverAnalyticsMostUsedVehicles(t *testing.T) {
	reports := &fakeReportStore{
		analytics: &repository.DriverAnalytics{
			DriverID:   7,
			DriverName: "Mario Rossi",
			Vehicles: []*repository.VehicleBreakdown{
				{Plate: "AB123CD", Movements: 4, KM: 320},
				{Plate: "EF456GH", Movements: 1, KM: 50},
			},
		},
	}
	drivers := &fakeDriverStore{driver: &models.Driver{ID: 7, Name: "Mario", Surname: "Rossi"}}
	r := newReportTestRouter(reports, drivers)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/drivers/7/analytics", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"most_used_vehicles"`)
	assert.Contains(t, body, "AB123CD")
}

func TestDriverAnalyticsDateRange(t *testing.T) {
	reports := &fakeReportStore{analytics: &repository.DriverAnalytics{DriverID: 7}}
	drivers := &fakeDriverStore{driver: &models.Driver{ID: 7, Name: "Mario", Surname: "Rossi"}}
	r := newReportTestRouter(reports, drivers)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/drivers/7/analytics?from=2026-01-01&to=2026-06-30", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-01-01", reports.gotFrom)
	assert.Equal(t, "2026-06-30", reports.gotTo)

	// 非法日期直接拒绝
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/drivers/7/analytics?from=01-01-2026", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
