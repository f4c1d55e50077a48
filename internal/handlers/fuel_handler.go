package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/services"
)

type FuelHandler struct {
	fuelService *services.FuelService
}

func NewFuelHandler(fuelService *services.FuelService) *FuelHandler {
	return &FuelHandler{fuelService: fuelService}
}

// @Summary List Tanks
// @Description Get all fuel tanks with their derived levels and open refills
// @Tags Fuel
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /fuel/tanks [get]
func (h *FuelHandler) IndexTanks(c *gin.Context) {
	tanks, err := h.fuelService.ListTanks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tanks": tanks})
}

// @Summary Get Tank
// @Description Get a tank with its derived level and open refill
// @Tags Fuel
// @Accept json
// @Produce json
// @Param tank_id path int true "Tank ID"
// @Success 200 {object} services.TankStatus
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /fuel/tanks/{tank_id} [get]
func (h *FuelHandler) ShowTank(c *gin.Context) {
	status, err := h.fuelService.GetTank(c.Request.Context(), idParam(c, "tank_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tank": status})
}

// @Summary Create Tank
// @Description Register a fuel tank (Staff)
// @Tags Fuel
// @Accept json
// @Produce json
// @Param request body services.TankInput true "Tank"
// @Success 201 {object} models.FuelTank
// @Security BearerAuth
// @Router /fuel/tanks [post]
func (h *FuelHandler) CreateTank(c *gin.Context) {
	var input services.TankInput
	if err := BindNestedOrFlat(c, "tank", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tank, err := h.fuelService.CreateTank(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tank": tank})
}

// @Summary Update Tank
// @Description Update a fuel tank (Staff)
// @Tags Fuel
// @Accept json
// @Produce json
// @Param tank_id path int true "Tank ID"
// @Param request body services.TankInput true "Tank"
// @Success 200 {object} models.FuelTank
// @Security BearerAuth
// @Router /fuel/tanks/{tank_id} [put]
func (h *FuelHandler) UpdateTank(c *gin.Context) {
	var input services.TankInput
	if err := BindNestedOrFlat(c, "tank", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tank, err := h.fuelService.UpdateTank(c.Request.Context(), middleware.Actor(c), idParam(c, "tank_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tank": tank})
}

// @Summary List Refills
// @Description Get a paginated list of refills
// @Tags Fuel
// @Accept json
// @Produce json
// @Param tank_id query int false "Filter by tank"
// @Param status query string false "open or closed"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /fuel/refills [get]
func (h *FuelHandler) IndexRefills(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["tank_id"] = c.Query("tank_id")
	query.Filters["status"] = c.Query("status")
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	entries, total, err := h.fuelService.ListEntries(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refills": entries, "pagination": pagination(query, total)})
}

// @Summary Get Refill
// @Description Get a refill with the fuel drawn against it
// @Tags Fuel
// @Accept json
// @Produce json
// @Param refill_id path int true "Refill ID"
// @Success 200 {object} services.EntryDetail
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /fuel/refills/{refill_id} [get]
func (h *FuelHandler) ShowRefill(c *gin.Context) {
	detail, err := h.fuelService.GetEntry(c.Request.Context(), idParam(c, "refill_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refill": detail})
}

// @Summary Record Refill
// @Description Open a new refill on a tank (Staff). A tank can only have one open refill.
// @Tags Fuel
// @Accept json
// @Produce json
// @Param request body services.RefillInput true "Refill"
// @Success 201 {object} models.FuelEntry
// @Failure 409 {object} map[string]string "tank already has an open refill"
// @Security BearerAuth
// @Router /fuel/refills [post]
func (h *FuelHandler) CreateRefill(c *gin.Context) {
	var input services.RefillInput
	if err := BindNestedOrFlat(c, "refill", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.fuelService.RecordRefill(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"refill": entry})
}

// @Summary Close Refill
// @Description Close a tank's open refill, booking any residual as a reconciliation usage (Staff)
// @Tags Fuel
// @Accept json
// @Produce json
// @Param refill_id path int true "Refill ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "refill already closed"
// @Failure 422 {object} map[string]string "reconciliation entities missing"
// @Security BearerAuth
// @Router /fuel/refills/{refill_id}/close [post]
func (h *FuelHandler) CloseRefill(c *gin.Context) {
	entry, residual, err := h.fuelService.CloseRefill(c.Request.Context(), middleware.Actor(c), idParam(c, "refill_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refill": entry, "residual": residual})
}

// @Summary List Usages
// @Description Get a paginated list of fuel usages
// @Tags Fuel
// @Accept json
// @Produce json
// @Param tank_id query int false "Filter by tank"
// @Param vehicle_id query int false "Filter by vehicle"
// @Param operator_id query int false "Filter by operator"
// @Param project query string false "Filter by project"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /fuel/usages [get]
func (h *FuelHandler) IndexUsages(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["tank_id"] = c.Query("tank_id")
	query.Filters["vehicle_id"] = c.Query("vehicle_id")
	query.Filters["operator_id"] = c.Query("operator_id")
	query.Filters["project"] = c.Query("project")
	query.Filters["from"] = c.Query("from")
	query.Filters["to"] = c.Query("to")

	usages, total, err := h.fuelService.ListUsages(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usages": usages, "pagination": pagination(query, total)})
}

// @Summary Record Usage
// @Description Draw fuel from a tank against its open refill (Staff). The level may dip below zero only within the configured tolerance.
// @Tags Fuel
// @Accept json
// @Produce json
// @Param request body services.UsageInput true "Usage"
// @Success 201 {object} models.FuelUsage
// @Failure 409 {object} map[string]string "no open refill"
// @Failure 422 {object} map[string]string "tank floor exceeded"
// @Security BearerAuth
// @Router /fuel/usages [post]
func (h *FuelHandler) CreateUsage(c *gin.Context) {
	var input services.UsageInput
	if err := BindNestedOrFlat(c, "usage", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	usage, err := h.fuelService.RecordUsage(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"usage": usage})
}

// @Summary Vehicle Fuel Report
// @Description Fuel usages for a vehicle grouped by the refill they were charged against (Staff)
// @Tags Fuel
// @Produce json
// @Param vehicle_id path int true "Vehicle ID"
// @Success 200 {object} services.VehicleReport
// @Security BearerAuth
// @Router /fuel/vehicles/{vehicle_id}/report [get]
func (h *FuelHandler) VehicleReport(c *gin.Context) {
	report, err := h.fuelService.VehicleUsageReport(c.Request.Context(), middleware.Actor(c), idParam(c, "vehicle_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
