package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

func (h *ReportHandler) sendFile(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}

// @Summary Withdrawal Slip PDF
// @Description Download a printable slip for a withdrawal with signature lines
// @Tags Reports
// @Produce application/pdf
// @Param withdrawal_id path int true "Withdrawal ID"
// @Success 200 {file} file "slip"
// @Security BearerAuth
// @Router /reports/withdrawals/{withdrawal_id}/slip [get]
func (h *ReportHandler) WithdrawalSlip(c *gin.Context) {
	data, filename, err := h.reportService.WithdrawalSlipPDF(c.Request.Context(), middleware.Actor(c), idParam(c, "withdrawal_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "application/pdf")
}

// @Summary Budget Statement PDF
// @Description Download an employee's budget statement with expenses and adjustments
// @Tags Reports
// @Produce application/pdf
// @Param employee_id path int true "Employee ID"
// @Success 200 {file} file "statement"
// @Security BearerAuth
// @Router /reports/employees/{employee_id}/budget [get]
func (h *ReportHandler) BudgetStatement(c *gin.Context) {
	data, filename, err := h.reportService.BudgetStatementPDF(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "application/pdf")
}

// @Summary Tank Report PDF
// @Description Download a tank report with its level and refill history
// @Tags Reports
// @Produce application/pdf
// @Param tank_id path int true "Tank ID"
// @Success 200 {file} file "report"
// @Security BearerAuth
// @Router /reports/fuel/tanks/{tank_id} [get]
func (h *ReportHandler) TankReport(c *gin.Context) {
	data, filename, err := h.reportService.TankReportPDF(c.Request.Context(), middleware.Actor(c), idParam(c, "tank_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "application/pdf")
}

// @Summary Export Withdrawals
// @Description Download withdrawals as an Excel workbook (Staff)
// @Tags Reports
// @Produce application/octet-stream
// @Param employee_id query int false "Filter by employee"
// @Param from query string false "From date (RFC3339)"
// @Param to query string false "To date (RFC3339)"
// @Success 200 {file} file "workbook"
// @Security BearerAuth
// @Router /reports/withdrawals/export [get]
func (h *ReportHandler) ExportWithdrawals(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["employee_id"] = c.Query("employee_id")
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	data, filename, err := h.exportService.WithdrawalsXLSX(c.Request.Context(), middleware.Actor(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "application/octet-stream")
}

// @Summary Export Expenses
// @Description Download an employee's expenses as an Excel workbook (Staff)
// @Tags Reports
// @Produce application/octet-stream
// @Param employee_id path int true "Employee ID"
// @Success 200 {file} file "workbook"
// @Security BearerAuth
// @Router /reports/employees/{employee_id}/expenses/export [get]
func (h *ReportHandler) ExportExpenses(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	data, filename, err := h.exportService.ExpensesXLSX(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"), query)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "application/octet-stream")
}

// @Summary Export Fuel Usages
// @Description Download fuel usages as an Excel workbook (Staff)
// @Tags Reports
// @Produce application/octet-stream
// @Param tank_id query int false "Filter by tank"
// @Param vehicle_id query int false "Filter by vehicle"
// @Success 200 {file} file "workbook"
// @Security BearerAuth
// @Router /reports/fuel/usages/export [get]
func (h *ReportHandler) ExportFuelUsages(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["tank_id"] = c.Query("tank_id")
	query.Filters["vehicle_id"] = c.Query("vehicle_id")
	query.Filters["project"] = c.Query("project")
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	data, filename, err := h.exportService.FuelUsagesXLSX(c.Request.Context(), middleware.Actor(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "application/octet-stream")
}

// @Summary Export Audit Log
// @Description Download the audit trail as CSV (Admin)
// @Tags Reports
// @Produce text/csv
// @Param action query string false "Filter by action"
// @Param entity query string false "Filter by entity type"
// @Success 200 {file} file "csv"
// @Security BearerAuth
// @Router /reports/audit/export [get]
func (h *ReportHandler) ExportAudit(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["action"] = c.Query("action")
	query.Filters["entity"] = c.Query("entity")
	query.Filters["user_id"] = c.Query("user_id")
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	data, filename, err := h.exportService.AuditCSV(c.Request.Context(), middleware.Actor(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "text/csv")
}

// @Summary Depot Inventory PDF
// @Description Download a depot's product inventory with outstanding quantities (Staff)
// @Tags Reports
// @Produce application/pdf
// @Param depot_id path int true "Depot ID"
// @Success 200 {file} file "inventory"
// @Security BearerAuth
// @Router /reports/depots/{depot_id}/inventory [get]
func (h *ReportHandler) DepotInventory(c *gin.Context) {
	data, filename, err := h.reportService.DepotInventoryPDF(c.Request.Context(), middleware.Actor(c), idParam(c, "depot_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.sendFile(c, data, filename, "application/pdf")
}
