package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/services"
)

type BudgetHandler struct {
	budgetService *services.BudgetService
}

func NewBudgetHandler(budgetService *services.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// @Summary Record Expense
// @Description Book an expense against an employee's budget (Staff). The balance may go negative.
// @Tags Budget
// @Accept json
// @Produce json
// @Param request body services.ExpenseInput true "Expense"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /expenses [post]
func (h *BudgetHandler) CreateExpense(c *gin.Context) {
	var input services.ExpenseInput
	if err := BindNestedOrFlat(c, "expense", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, budget, err := h.budgetService.RecordExpense(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": expense, "budget": budget})
}

// @Summary List Expenses
// @Description Get a paginated list of an employee's expenses
// @Tags Budget
// @Accept json
// @Produce json
// @Param employee_id path int true "Employee ID"
// @Param from query string false "From date (RFC3339)"
// @Param to query string false "To date (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /employees/{employee_id}/expenses [get]
func (h *BudgetHandler) IndexExpenses(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	expenses, total, err := h.budgetService.ListExpenses(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses, "pagination": pagination(query, total)})
}

// @Summary Adjust Budget
// @Description Credit or debit an employee's budget balance (Admin)
// @Tags Budget
// @Accept json
// @Produce json
// @Param request body services.AdjustmentInput true "Adjustment"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /budget_adjustments [post]
func (h *BudgetHandler) CreateAdjustment(c *gin.Context) {
	var input services.AdjustmentInput
	if err := BindNestedOrFlat(c, "adjustment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adjustment, budget, err := h.budgetService.Adjust(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"adjustment": adjustment, "budget": budget})
}

// @Summary List Adjustments
// @Description Get a paginated list of an employee's budget adjustments (Staff)
// @Tags Budget
// @Accept json
// @Produce json
// @Param employee_id path int true "Employee ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /employees/{employee_id}/budget_adjustments [get]
func (h *BudgetHandler) IndexAdjustments(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	adjustments, total, err := h.budgetService.ListAdjustments(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments, "pagination": pagination(query, total)})
}
