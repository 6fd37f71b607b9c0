package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetMonthlyReport 获取车辆月度报表，month 形如 YYYY-MM，缺省为当月
func (h *Handler) GetMonthlyReport(c *gin.Context) {
	month := c.DefaultQuery("month", time.Now().Format("2006-01"))
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected YYYY-MM"})
		return
	}

	report, err := h.reportRepo.Monthly(c.Request.Context(), month)
	if err != nil {
		h.logger.Error("Failed to build monthly report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build monthly report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  report,
		"month": month,
	})
}

// csvWriter 准备 CSV 下载响应并写入表头
func csvWriter(c *gin.Context, filename string, header []string) *csv.Writer {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(c.Writer)
	w.Write(header)
	return w
}

// ExportMovementsCSV 导出全部出车记录
func (h *Handler) ExportMovementsCSV(c *gin.Context) {
	movements, err := h.movementRepo.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to export movements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export movements"})
		return
	}

	w := csvWriter(c, "movements.csv", []string{
		"movement_number", "date", "plate", "driver", "start_km", "end_km", "distance_km", "route", "purpose",
	})
	for _, m := range movements {
		endKM := ""
		distance := ""
		if m.EndKM != nil {
			endKM = strconv.FormatFloat(*m.EndKM, 'f', 1, 64)
			distance = strconv.FormatFloat(m.DistanceKM(), 'f', 1, 64)
		}
		w.Write([]string{
			strconv.FormatInt(m.MovementNumber, 10),
			m.Date,
			m.VehiclePlate,
			m.DriverName,
			strconv.FormatFloat(m.StartKM, 'f', 1, 64),
			endKM,
			distance,
			m.Route,
			m.Purpose,
		})
	}
	w.Flush()
}

// ExportFuelCSV 导出全部加油记录
func (h *Handler) ExportFuelCSV(c *gin.Context) {
	records, err := h.fuelRepo.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to export fuel records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export fuel records"})
		return
	}

	w := csvWriter(c, "fuel_records.csv", []string{
		"date", "plate", "driver", "liters", "mileage", "cost",
	})
	for _, rec := range records {
		mileage := ""
		if rec.Mileage != nil {
			mileage = strconv.FormatFloat(*rec.Mileage, 'f', 1, 64)
		}
		w.Write([]string{
			rec.Date,
			rec.VehiclePlate,
			rec.DriverName,
			strconv.FormatFloat(rec.Liters, 'f', 1, 64),
			mileage,
			strconv.FormatFloat(rec.Cost, 'f', 2, 64),
		})
	}
	w.Flush()
}

// ExportMonthlyCSV 导出车辆月度报表
func (h *Handler) ExportMonthlyCSV(c *gin.Context) {
	month := c.DefaultQuery("month", time.Now().Format("2006-01"))
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected YYYY-MM"})
		return
	}

	report, err := h.reportRepo.Monthly(c.Request.Context(), month)
	if err != nil {
		h.logger.Error("Failed to export monthly report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export monthly report"})
		return
	}

	w := csvWriter(c, fmt.Sprintf("monthly_%s.csv", month), []string{
		"plate", "movements", "total_km", "min_km", "max_km", "fuel_liters", "refills", "avg_refill_liters", "km_per_liter",
	})
	for _, row := range report {
		w.Write([]string{
			row.Plate,
			strconv.FormatInt(row.Movements, 10),
			strconv.FormatFloat(row.TotalKM, 'f', 1, 64),
			strconv.FormatFloat(row.MinKM, 'f', 1, 64),
			strconv.FormatFloat(row.MaxKM, 'f', 1, 64),
			strconv.FormatFloat(row.FuelLiters, 'f', 1, 64),
			strconv.FormatInt(row.Refills, 10),
			strconv.FormatFloat(row.AvgRefillL, 'f', 1, 64),
			strconv.FormatFloat(row.KMPerLiter, 'f', 2, 64),
		})
	}
	w.Flush()
}
