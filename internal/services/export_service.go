package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// ExportService produces spreadsheet exports of the ledgers. Every export
// is audited with the EXPORT action.
type ExportService struct {
	stockSvc  *StockService
	budgetSvc *BudgetService
	fuelSvc   *FuelService
	audit     *AuditService
}

func NewExportService(stockSvc *StockService, budgetSvc *BudgetService, fuelSvc *FuelService, audit *AuditService) *ExportService {
	return &ExportService{
		stockSvc:  stockSvc,
		budgetSvc: budgetSvc,
		fuelSvc:   fuelSvc,
		audit:     audit,
	}
}

// exportQuery widens a list query to cover the full filtered set.
func exportQuery(query *repository.ListQuery) *repository.ListQuery {
	q := *query
	q.Page = 1
	q.PerPage = 10000
	return &q
}

// WithdrawalsXLSX exports withdrawals, one row per line. Staff only.
func (s *ExportService) WithdrawalsXLSX(ctx context.Context, actor Actor, query *repository.ListQuery) ([]byte, string, error) {
	headers, _, err := s.stockSvc.ListWithdrawals(ctx, actor, exportQuery(query))
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Withdrawals"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"ID", "Date", "Employee", "Product", "Quantity", "Unit", "Notes"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 2
	for _, header := range headers {
		employeeName := ""
		if header.Employee != nil {
			employeeName = header.Employee.Name
		}
		for _, item := range header.Items {
			productName, unit := "", ""
			if item.Product != nil {
				productName = item.Product.Name
				unit = item.Product.Unit
			}
			values := []interface{}{
				header.ID, header.Date.Format("2006-01-02"), employeeName,
				productName, item.Quantity, unit, header.Notes,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	s.audit.Log(ctx, actor, models.ActionExport, "WithdrawalHeader", "",
		fmt.Sprintf("exported %d withdrawals to xlsx", len(headers)))

	filename := fmt.Sprintf("withdrawals_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExpensesXLSX exports one employee's expenses. Staff only.
func (s *ExportService) ExpensesXLSX(ctx context.Context, actor Actor, employeeID uint, query *repository.ListQuery) ([]byte, string, error) {
	if !actor.IsStaff() {
		return nil, "", ErrUnauthorized
	}
	expenses, _, err := s.budgetSvc.ListExpenses(ctx, actor, employeeID, exportQuery(query))
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Expenses"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"ID", "Date", "Description", "Amount"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	total := 0
	for i, expense := range expenses {
		values := []interface{}{
			expense.ID, expense.Date.Format("2006-01-02"), expense.Description, expense.Amount,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		total += expense.Amount
	}
	totalRow := len(expenses) + 2
	cell, _ := excelize.CoordinatesToCellName(3, totalRow)
	_ = f.SetCellValue(sheet, cell, "Total")
	cell, _ = excelize.CoordinatesToCellName(4, totalRow)
	_ = f.SetCellValue(sheet, cell, total)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	s.audit.Log(ctx, actor, models.ActionExport, "Expense", itoa(employeeID),
		fmt.Sprintf("exported %d expenses to xlsx", len(expenses)))

	filename := fmt.Sprintf("expenses_%d_%s.xlsx", employeeID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// FuelUsagesXLSX exports fuel usages. Staff only.
func (s *ExportService) FuelUsagesXLSX(ctx context.Context, actor Actor, query *repository.ListQuery) ([]byte, string, error) {
	if !actor.IsStaff() {
		return nil, "", ErrUnauthorized
	}
	usages, _, err := s.fuelSvc.ListUsages(ctx, exportQuery(query))
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Fuel Usages"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"ID", "Date", "Amount", "Vehicle", "Operator", "Project"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, usage := range usages {
		plate, operator := "", ""
		if usage.Vehicle != nil {
			plate = usage.Vehicle.Plate
		}
		if usage.Operator != nil {
			operator = usage.Operator.Name
		}
		values := []interface{}{
			usage.ID, usage.Date.Format("2006-01-02"), usage.Amount, plate, operator, usage.Project,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	s.audit.Log(ctx, actor, models.ActionExport, "FuelUsage", "",
		fmt.Sprintf("exported %d fuel usages to xlsx", len(usages)))

	filename := fmt.Sprintf("fuel_usages_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// AuditCSV exports the audit trail. Admin only.
func (s *ExportService) AuditCSV(ctx context.Context, actor Actor, query *repository.ListQuery) ([]byte, string, error) {
	if !actor.IsAdmin() {
		return nil, "", ErrUnauthorized
	}
	logs, _, err := s.audit.List(ctx, actor, exportQuery(query))
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"ID", "Timestamp", "User", "Action", "Entity", "EntityID", "Description", "IP"})
	for _, log := range logs {
		user := ""
		if log.User != nil {
			user = log.User.Email
		}
		_ = writer.Write([]string{
			fmt.Sprintf("%d", log.ID),
			log.CreatedAt.Format(time.RFC3339),
			user,
			log.Action,
			log.Entity,
			log.EntityID,
			log.Description,
			log.IPAddress,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	s.audit.Log(ctx, actor, models.ActionExport, "AuditLog", "",
		fmt.Sprintf("exported %d audit records to csv", len(logs)))

	filename := fmt.Sprintf("audit_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
