package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"khaja/internal/models/response_models"
	"khaja/internal/services"
	"khaja/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardController struct {
	dashboardService services.DashboardService
	exportService    services.ExportServiceInterface
}

func NewDashboardController(dashboardService services.DashboardService, exportService services.ExportServiceInterface) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
		exportService:    exportService,
	}
}

// GetDashboard godoc
// @Summary Get dashboard report
// @Description KPIs, accounts by role, subscriptions and projects by status, plan mix with MRR, and recent ledger entries
// @Tags Admin
// @Produce json
// @Param start     query string false "RFC3339 start (e.g. 2025-10-01T00:00:00Z)"
// @Param end       query string false "RFC3339 end   (e.g. 2025-10-19T23:59:59Z)"
// @Param last_days query int    false "Relative lookback in days (mutually exclusive with start/end). Default 30"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (p *DashboardController) GetDashboard(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	report, err := p.dashboardService.BuildDashboard(c.Request.Context(), response_models.TimeRange{Start: start, End: end})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, report, "Dashboard data fetched successfully")
}

// ExportTransactions godoc
// @Summary Export the ledger
// @Description Spreadsheet of ledger entries dated inside the window, with a total row
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start     query string false "RFC3339 start"
// @Param end       query string false "RFC3339 end"
// @Param last_days query int    false "Relative lookback in days. Default 30"
// @Success 200 {file} file
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/transactions/export [get]
func (p *DashboardController) ExportTransactions(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	buf, err := p.exportService.LedgerWorkbook(c.Request.Context(), start, end)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("ledger_%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// parseWindow reads either last_days or an RFC3339 start/end pair. A missing bound defaults
// to now, and to 30 days before the end.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	var (
		start, end time.Time
		err        error
	)

	startStr := c.Query("start")
	endStr := c.Query("end")
	lastDaysStr := c.Query("last_days")

	if lastDaysStr != "" && (startStr != "" || endStr != "") {
		utils.RespondError(c, http.StatusBadRequest, "provide either last_days or start/end (not both)")
		return start, end, false
	}

	switch {
	case lastDaysStr != "":
		d, convErr := strconv.Atoi(lastDaysStr)
		if convErr != nil || d <= 0 {
			utils.RespondError(c, http.StatusBadRequest, "last_days must be a positive integer")
			return start, end, false
		}
		end = time.Now().UTC()
		start = end.AddDate(0, 0, -d)

	default:
		if startStr != "" {
			start, err = time.Parse(time.RFC3339, startStr)
			if err != nil {
				utils.RespondError(c, http.StatusBadRequest, "start must be RFC3339 (e.g. 2025-10-01T00:00:00Z)")
				return start, end, false
			}
		}
		if endStr != "" {
			end, err = time.Parse(time.RFC3339, endStr)
			if err != nil {
				utils.RespondError(c, http.StatusBadRequest, "end must be RFC3339 (e.g. 2025-10-19T23:59:59Z)")
				return start, end, false
			}
		}
		if end.IsZero() {
			end = time.Now().UTC()
		}
		if start.IsZero() {
			start = end.AddDate(0, 0, -30)
		}
	}

	if start.After(end) {
		start, end = end, start
	}
	return start, end, true
}
