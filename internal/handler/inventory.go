package handler

import (
	"net/http"

	"novapos/internal/apierror"
	"novapos/internal/dto"
	"novapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// AdjustStock godoc
// @Summary      Manually adjust a product's stock
// @Description  Applies a signed delta to the on-hand quantity and records a stock movement with the operator's notes.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Product UUID"
// @Param        body body dto.AdjustStockRequest true "Adjustment"
// @Success      200 {object} dto.ProductResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/products/{id}/stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list movements"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StockAlerts godoc
// @Summary      Products at or below their minimum stock level
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.StockAlertResponse
// @Router       /v1/inventory/alerts [get]
func (h *InventoryHandler) StockAlerts(c *gin.Context) {
	resp, err := h.svc.StockAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to fetch stock alerts"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
