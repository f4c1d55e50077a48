package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krosit/flota-api/internal/middleware"
	"github.com/krosit/flota-api/internal/services"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// @Summary List Vehicles
// @Description Get a paginated list of vehicles
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Search by plate, chassis or description"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /vehicles [get]
func (h *VehicleHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["active"] = c.Query("active")

	vehicles, total, err := h.vehicleService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles, "pagination": pagination(query, total)})
}

// @Summary Get Vehicle
// @Description Get a vehicle by ID
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param vehicle_id path int true "Vehicle ID"
// @Success 200 {object} models.Vehicle
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /vehicles/{vehicle_id} [get]
func (h *VehicleHandler) Show(c *gin.Context) {
	vehicle, err := h.vehicleService.GetByID(c.Request.Context(), idParam(c, "vehicle_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// @Summary Create Vehicle
// @Description Register a new vehicle (Staff)
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param request body services.VehicleInput true "Vehicle"
// @Success 201 {object} models.Vehicle
// @Security BearerAuth
// @Router /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	var input services.VehicleInput
	if err := BindNestedOrFlat(c, "vehicle", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle})
}

// @Summary Update Vehicle
// @Description Update a vehicle (Staff)
// @Tags Vehicles
// @Accept json
// @Produce json
// @Param vehicle_id path int true "Vehicle ID"
// @Param request body services.VehicleInput true "Vehicle"
// @Success 200 {object} models.Vehicle
// @Security BearerAuth
// @Router /vehicles/{vehicle_id} [put]
func (h *VehicleHandler) Update(c *gin.Context) {
	var input services.VehicleInput
	if err := BindNestedOrFlat(c, "vehicle", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), middleware.Actor(c), idParam(c, "vehicle_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// @Summary Vehicle Document Alerts
// @Description List vehicle documents expiring within the alert window (Staff)
// @Tags Vehicles
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /vehicles/document_alerts [get]
func (h *VehicleHandler) DocumentAlerts(c *gin.Context) {
	alerts, err := h.vehicleService.DocumentAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
