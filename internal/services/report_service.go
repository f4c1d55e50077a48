package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/krosit/flota-api/internal/repository"
)

// ReportService renders PDF documents: withdrawal slips, budget statements,
// tank reports and depot inventories.
type ReportService struct {
	withdrawalRepo repository.WithdrawalRepository
	budgetRepo     repository.BudgetRepository
	fuelRepo       repository.FuelRepository
	employeeRepo   repository.EmployeeRepository
	depotRepo      repository.DepotRepository
	productRepo    repository.ProductRepository
}

func NewReportService(withdrawalRepo repository.WithdrawalRepository, budgetRepo repository.BudgetRepository, fuelRepo repository.FuelRepository, employeeRepo repository.EmployeeRepository, depotRepo repository.DepotRepository, productRepo repository.ProductRepository) *ReportService {
	return &ReportService{
		withdrawalRepo: withdrawalRepo,
		budgetRepo:     budgetRepo,
		fuelRepo:       fuelRepo,
		employeeRepo:   employeeRepo,
		depotRepo:      depotRepo,
		productRepo:    productRepo,
	}
}

func newReportPDF(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(120, 10, title)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 10, time.Now().Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
	pdf.Ln(4)
	return pdf
}

func pdfTableHeader(pdf *gofpdf.Fpdf, widths []float64, labels []string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(224, 224, 224)
	for i, label := range labels {
		pdf.CellFormat(widths[i], 8, label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
}

// WithdrawalSlipPDF renders one withdrawal as a signable slip. Staff only.
func (s *ReportService) WithdrawalSlipPDF(ctx context.Context, actor Actor, headerID uint) ([]byte, string, error) {
	if !actor.IsStaff() {
		return nil, "", ErrUnauthorized
	}
	header, err := s.withdrawalRepo.FindHeaderByID(ctx, headerID)
	if err != nil {
		return nil, "", notFoundOr(err)
	}

	pdf := newReportPDF(fmt.Sprintf("Withdrawal #%d", header.ID))

	pdf.SetFont("Arial", "", 11)
	employeeName := ""
	if header.Employee != nil {
		employeeName = header.Employee.Name
	}
	pdf.CellFormat(0, 7, fmt.Sprintf("Employee: %s", employeeName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Date: %s", header.Date.Format("2006-01-02")), "", 1, "L", false, 0, "")
	if header.Notes != "" {
		pdf.CellFormat(0, 7, fmt.Sprintf("Notes: %s", header.Notes), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{90, 30, 30, 40}
	pdfTableHeader(pdf, widths, []string{"Product", "Quantity", "Unit", "Type"})
	for _, item := range header.Items {
		name, unit, itemType := "", "", ""
		if item.Product != nil {
			name = item.Product.Name
			unit = item.Product.Unit
			itemType = item.Product.ItemType
		}
		pdf.CellFormat(widths[0], 8, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, unit, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 8, itemType, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(16)
	pdf.CellFormat(90, 8, "Handed over: ______________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(90, 8, "Received: ______________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("withdrawal_%d.pdf", header.ID)
	return buf.Bytes(), filename, nil
}

// BudgetStatementPDF renders an employee's balance with recent expenses
// and adjustments. Staff only.
func (s *ReportService) BudgetStatementPDF(ctx context.Context, actor Actor, employeeID uint) ([]byte, string, error) {
	if !actor.IsStaff() {
		return nil, "", ErrUnauthorized
	}
	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, "", notFoundOr(err)
	}
	budget, err := s.budgetRepo.GetOrCreate(ctx, employeeID)
	if err != nil {
		return nil, "", err
	}

	query := repository.NewListQuery()
	query.PerPage = 100
	expenses, _, err := s.budgetRepo.ListExpenses(ctx, employeeID, query)
	if err != nil {
		return nil, "", err
	}
	adjustments, _, err := s.budgetRepo.ListAdjustments(ctx, employeeID, query)
	if err != nil {
		return nil, "", err
	}

	pdf := newReportPDF(fmt.Sprintf("Budget statement: %s", employee.Name))

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Current balance: %d", budget.Balance), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Expenses", "", 1, "L", false, 0, "")
	widths := []float64{30, 120, 40}
	pdfTableHeader(pdf, widths, []string{"Date", "Description", "Amount"})
	for _, expense := range expenses {
		pdf.CellFormat(widths[0], 8, expense.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, expense.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 8, fmt.Sprintf("%d", expense.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Adjustments", "", 1, "L", false, 0, "")
	pdfTableHeader(pdf, widths, []string{"Date", "Note", "Delta"})
	for _, adjustment := range adjustments {
		pdf.CellFormat(widths[0], 8, adjustment.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, adjustment.Note, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 8, fmt.Sprintf("%+d", adjustment.Delta()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("budget_%d.pdf", employeeID)
	return buf.Bytes(), filename, nil
}

// TankReportPDF renders a tank's level with its refills. Staff only.
func (s *ReportService) TankReportPDF(ctx context.Context, actor Actor, tankID uint) ([]byte, string, error) {
	if !actor.IsStaff() {
		return nil, "", ErrUnauthorized
	}
	tank, err := s.fuelRepo.FindTankByID(ctx, tankID)
	if err != nil {
		return nil, "", notFoundOr(err)
	}
	level, err := s.fuelRepo.TankLevel(ctx, tankID)
	if err != nil {
		return nil, "", err
	}

	query := repository.NewListQuery()
	query.PerPage = 100
	query.Filters["tank_id"] = itoa(tankID)
	entries, _, err := s.fuelRepo.ListEntries(ctx, query)
	if err != nil {
		return nil, "", err
	}

	pdf := newReportPDF(fmt.Sprintf("Tank report: %s", tank.Name))

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Level: %d / capacity %d", level, tank.Capacity), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{30, 40, 60, 30, 30}
	pdfTableHeader(pdf, widths, []string{"Date", "Amount", "Supplier", "Status", "Closed"})
	for _, entry := range entries {
		closed := ""
		if entry.ClosedAt != nil {
			closed = entry.ClosedAt.Format("2006-01-02")
		}
		pdf.CellFormat(widths[0], 8, entry.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, fmt.Sprintf("%d", entry.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, entry.Supplier, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 8, entry.Status(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 8, closed, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("tank_%d.pdf", tankID)
	return buf.Bytes(), filename, nil
}

// DepotInventoryPDF lists a depot's products with their stock and the
// quantity currently held by employees. Staff only.
func (s *ReportService) DepotInventoryPDF(ctx context.Context, actor Actor, depotID uint) ([]byte, string, error) {
	if !actor.IsStaff() {
		return nil, "", ErrUnauthorized
	}
	depot, err := s.depotRepo.FindByID(ctx, depotID)
	if err != nil {
		return nil, "", notFoundOr(err)
	}

	query := repository.NewListQuery()
	query.PerPage = 10000
	products, _, err := s.productRepo.ListByDepot(ctx, depotID, query)
	if err != nil {
		return nil, "", err
	}
	productIDs := make([]uint, len(products))
	for i, product := range products {
		productIDs[i] = product.ID
	}
	outstanding, err := s.productRepo.Outstanding(ctx, productIDs)
	if err != nil {
		return nil, "", err
	}

	pdf := newReportPDF(fmt.Sprintf("Inventory: %s", depot.Name))

	widths := []float64{60, 25, 20, 25, 30, 30}
	pdfTableHeader(pdf, widths, []string{"Product", "Type", "Unit", "Price", "In stock", "Outstanding"})
	for _, product := range products {
		pdf.CellFormat(widths[0], 8, product.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, product.ItemType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 8, product.Unit, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 8, fmt.Sprintf("%d", product.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 8, fmt.Sprintf("%d", product.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 8, fmt.Sprintf("%d", outstanding[product.ID]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("depot_%d_inventory.pdf", depotID)
	return buf.Bytes(), filename, nil
}
