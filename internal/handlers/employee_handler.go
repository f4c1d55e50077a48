package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/services"
)

type EmployeeHandler struct {
	employeeService *services.EmployeeService
	stockService    *services.StockService
	budgetService   *services.BudgetService
}

func NewEmployeeHandler(employeeService *services.EmployeeService, stockService *services.StockService, budgetService *services.BudgetService) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService: employeeService,
		stockService:    stockService,
		budgetService:   budgetService,
	}
}

// @Summary List Employees
// @Description Get a paginated list of employees (Staff)
// @Tags Employees
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param active query bool false "Filter by active"
// @Param have_budget query bool false "Filter by budget flag"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /employees [get]
func (h *EmployeeHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["active"] = c.Query("active")
	query.Filters["have_budget"] = c.Query("have_budget")

	employees, total, err := h.employeeService.List(c.Request.Context(), middleware.Actor(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, e := range employees {
		responses = append(responses, e.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"employees": responses, "pagination": pagination(query, total)})
}

// @Summary Get Employee
// @Description Get an employee by ID
// @Tags Employees
// @Accept json
// @Produce json
// @Param employee_id path int true "Employee ID"
// @Success 200 {object} models.EmployeeResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /employees/{employee_id} [get]
func (h *EmployeeHandler) Show(c *gin.Context) {
	employee, err := h.employeeService.GetByID(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employee.ToResponse()})
}

// @Summary Current Employee
// @Description Get the employee record linked to the authenticated user
// @Tags Employees
// @Accept json
// @Produce json
// @Success 200 {object} models.EmployeeResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /employees/me [get]
func (h *EmployeeHandler) Me(c *gin.Context) {
	employee, err := h.employeeService.GetForActor(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employee.ToResponse()})
}

// @Summary Create Employee
// @Description Register a new employee (Staff)
// @Tags Employees
// @Accept json
// @Produce json
// @Param request body services.EmployeeInput true "Employee"
// @Success 201 {object} models.EmployeeResponse
// @Security BearerAuth
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var input services.EmployeeInput
	if err := BindNestedOrFlat(c, "employee", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employee, err := h.employeeService.Create(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"employee": employee.ToResponse()})
}

// @Summary Update Employee
// @Description Update an employee (Staff)
// @Tags Employees
// @Accept json
// @Produce json
// @Param employee_id path int true "Employee ID"
// @Param request body services.EmployeeInput true "Employee"
// @Success 200 {object} models.EmployeeResponse
// @Security BearerAuth
// @Router /employees/{employee_id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var input services.EmployeeInput
	if err := BindNestedOrFlat(c, "employee", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employee, err := h.employeeService.Update(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employee.ToResponse()})
}

// @Summary Employee Outstanding Items
// @Description Get the returnable items an employee still holds
// @Tags Employees
// @Accept json
// @Produce json
// @Param employee_id path int true "Employee ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /employees/{employee_id}/outstanding [get]
func (h *EmployeeHandler) Outstanding(c *gin.Context) {
	items, err := h.stockService.Outstanding(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Employee Budget Balance
// @Description Get the employee's budget balance
// @Tags Employees
// @Accept json
// @Produce json
// @Param employee_id path int true "Employee ID"
// @Success 200 {object} models.EmployeeBudget
// @Security BearerAuth
// @Router /employees/{employee_id}/budget [get]
func (h *EmployeeHandler) Budget(c *gin.Context) {
	budget, err := h.budgetService.Balance(c.Request.Context(), middleware.Actor(c), idParam(c, "employee_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// @Summary Employees With Budget
// @Description List active employees participating in the budget scheme (Staff)
// @Tags Employees
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /employees/with_budget [get]
func (h *EmployeeHandler) WithBudget(c *gin.Context) {
	employees, err := h.employeeService.ListWithBudget(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}
