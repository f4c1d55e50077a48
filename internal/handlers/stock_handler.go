package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/services"
)

type StockHandler struct {
	stockService *services.StockService
}

func NewStockHandler(stockService *services.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// @Summary List Withdrawals
// @Description Get a paginated list of stock withdrawals (Staff)
// @Tags Stock
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param employee_id query int false "Filter by employee"
// @Param from query string false "From date (RFC3339)"
// @Param to query string false "To date (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /withdrawals [get]
func (h *StockHandler) IndexWithdrawals(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["employee_id"] = c.Query("employee_id")
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	withdrawals, total, err := h.stockService.ListWithdrawals(c.Request.Context(), middleware.Actor(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals, "pagination": pagination(query, total)})
}

// @Summary Get Withdrawal
// @Description Get a withdrawal with its lines
// @Tags Stock
// @Accept json
// @Produce json
// @Param withdrawal_id path int true "Withdrawal ID"
// @Success 200 {object} models.WithdrawalHeader
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /withdrawals/{withdrawal_id} [get]
func (h *StockHandler) ShowWithdrawal(c *gin.Context) {
	header, err := h.stockService.GetWithdrawal(c.Request.Context(), middleware.Actor(c), idParam(c, "withdrawal_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": header})
}

// @Summary Create Withdrawal
// @Description Hand products to an employee. All lines succeed or none do. (Staff)
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body services.WithdrawInput true "Withdrawal"
// @Success 201 {object} models.WithdrawalHeader
// @Failure 422 {object} map[string]string "insufficient stock"
// @Security BearerAuth
// @Router /withdrawals [post]
func (h *StockHandler) CreateWithdrawal(c *gin.Context) {
	var input services.WithdrawInput
	if err := BindNestedOrFlat(c, "withdrawal", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header, err := h.stockService.Withdraw(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": header})
}

// @Summary List Returns
// @Description Get a paginated list of stock returns (Staff)
// @Tags Stock
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param employee_id query int false "Filter by employee"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /returns [get]
func (h *StockHandler) IndexReturns(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["employee_id"] = c.Query("employee_id")
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	returns, total, err := h.stockService.ListReturns(c.Request.Context(), middleware.Actor(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"returns": returns, "pagination": pagination(query, total)})
}

// @Summary Get Return
// @Description Get a return with its lines
// @Tags Stock
// @Accept json
// @Produce json
// @Param return_id path int true "Return ID"
// @Success 200 {object} models.ReturnHeader
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /returns/{return_id} [get]
func (h *StockHandler) ShowReturn(c *gin.Context) {
	header, err := h.stockService.GetReturn(c.Request.Context(), middleware.Actor(c), idParam(c, "return_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"return": header})
}

// @Summary Create Return
// @Description Book returnable items back into stock against an employee's withdrawals. (Staff)
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body services.ReturnInput true "Return"
// @Success 201 {object} models.ReturnHeader
// @Failure 422 {object} map[string]string "return exceeds outstanding"
// @Security BearerAuth
// @Router /returns [post]
func (h *StockHandler) CreateReturn(c *gin.Context) {
	var input services.ReturnInput
	if err := BindNestedOrFlat(c, "return", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header, err := h.stockService.Return(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"return": header})
}

// @Summary Product Holders
// @Description List employees holding unreturned quantities of a product (Staff)
// @Tags Stock
// @Produce json
// @Param product_id path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /products/{product_id}/holders [get]
func (h *StockHandler) ProductHolders(c *gin.Context) {
	holders, err := h.stockService.ProductHolders(c.Request.Context(), middleware.Actor(c), idParam(c, "product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holders": holders})
}
