package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/services"
)

type DepotHandler struct {
	depotService *services.DepotService
}

func NewDepotHandler(depotService *services.DepotService) *DepotHandler {
	return &DepotHandler{depotService: depotService}
}

// @Summary List Depots
// @Description Get a paginated list of depots
// @Tags Depots
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /depots [get]
func (h *DepotHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["active"] = c.Query("active")

	depots, total, err := h.depotService.ListDepots(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"depots": depots, "pagination": pagination(query, total)})
}

// @Summary Get Depot
// @Description Get a depot by ID
// @Tags Depots
// @Accept json
// @Produce json
// @Param depot_id path int true "Depot ID"
// @Success 200 {object} models.Depot
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /depots/{depot_id} [get]
func (h *DepotHandler) Show(c *gin.Context) {
	depot, err := h.depotService.GetDepot(c.Request.Context(), idParam(c, "depot_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"depot": depot})
}

// @Summary Create Depot
// @Description Register a new depot (Staff)
// @Tags Depots
// @Accept json
// @Produce json
// @Param request body services.DepotInput true "Depot"
// @Success 201 {object} models.Depot
// @Security BearerAuth
// @Router /depots [post]
func (h *DepotHandler) Create(c *gin.Context) {
	var input services.DepotInput
	if err := BindNestedOrFlat(c, "depot", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	depot, err := h.depotService.CreateDepot(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"depot": depot})
}

// @Summary Update Depot
// @Description Update a depot (Staff)
// @Tags Depots
// @Accept json
// @Produce json
// @Param depot_id path int true "Depot ID"
// @Param request body services.DepotInput true "Depot"
// @Success 200 {object} models.Depot
// @Security BearerAuth
// @Router /depots/{depot_id} [put]
func (h *DepotHandler) Update(c *gin.Context) {
	var input services.DepotInput
	if err := BindNestedOrFlat(c, "depot", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	depot, err := h.depotService.UpdateDepot(c.Request.Context(), middleware.Actor(c), idParam(c, "depot_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"depot": depot})
}

// @Summary List Depot Products
// @Description Get a paginated list of a depot's products with live stock and outstanding quantities
// @Tags Products
// @Accept json
// @Produce json
// @Param depot_id path int true "Depot ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /depots/{depot_id}/products [get]
func (h *DepotHandler) Products(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["item_type"] = c.Query("item_type")

	products, total, err := h.depotService.ListProducts(c.Request.Context(), idParam(c, "depot_id"), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "pagination": pagination(query, total)})
}

// @Summary Search Products
// @Description Search products across all depots
// @Tags Products
// @Accept json
// @Produce json
// @Param search query string false "Search by name"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /products [get]
func (h *DepotHandler) SearchProducts(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["item_type"] = c.Query("item_type")

	products, total, err := h.depotService.SearchProducts(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "pagination": pagination(query, total)})
}

// @Summary Get Product
// @Description Get a product with live stock and outstanding quantity
// @Tags Products
// @Accept json
// @Produce json
// @Param product_id path int true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /products/{product_id} [get]
func (h *DepotHandler) ShowProduct(c *gin.Context) {
	product, outstanding, err := h.depotService.GetProduct(c.Request.Context(), idParam(c, "product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product.ToResponse(outstanding)})
}

// @Summary Create Product
// @Description Add a product to a depot (Staff)
// @Tags Products
// @Accept json
// @Produce json
// @Param depot_id path int true "Depot ID"
// @Param request body services.ProductInput true "Product"
// @Success 201 {object} models.Product
// @Security BearerAuth
// @Router /depots/{depot_id}/products [post]
func (h *DepotHandler) CreateProduct(c *gin.Context) {
	var input services.ProductInput
	if err := BindNestedOrFlat(c, "product", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.depotService.CreateProduct(c.Request.Context(), middleware.Actor(c), idParam(c, "depot_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// @Summary Update Product
// @Description Update a product's catalog fields (Staff). Stock changes go through add_stock, withdrawals and returns.
// @Tags Products
// @Accept json
// @Produce json
// @Param product_id path int true "Product ID"
// @Param request body services.ProductInput true "Product"
// @Success 200 {object} models.Product
// @Security BearerAuth
// @Router /products/{product_id} [put]
func (h *DepotHandler) UpdateProduct(c *gin.Context) {
	var input services.ProductInput
	if err := BindNestedOrFlat(c, "product", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.depotService.UpdateProduct(c.Request.Context(), middleware.Actor(c), idParam(c, "product_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// @Summary Delete Product
// @Description Remove a product from the catalog (Staff)
// @Tags Products
// @Accept json
// @Produce json
// @Param product_id path int true "Product ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /products/{product_id} [delete]
func (h *DepotHandler) DeleteProduct(c *gin.Context) {
	if err := h.depotService.DeleteProduct(c.Request.Context(), middleware.Actor(c), idParam(c, "product_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

type AddStockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// @Summary Add Stock
// @Description Book a stock intake for a product (Staff)
// @Tags Products
// @Accept json
// @Produce json
// @Param product_id path int true "Product ID"
// @Param request body AddStockRequest true "Quantity"
// @Success 200 {object} models.Product
// @Security BearerAuth
// @Router /products/{product_id}/add_stock [post]
func (h *DepotHandler) AddStock(c *gin.Context) {
	var req AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}

	product, err := h.depotService.AddStock(c.Request.Context(), middleware.Actor(c), idParam(c, "product_id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
