package handler

import (
	"net/http"

	"novapos/internal/apierror"
	"novapos/internal/dto"
	"novapos/internal/service"

	"github.com/gin-gonic/gin"
)

type WooCommerceHandler struct{ svc service.WooCommerceService }

func NewWooCommerceHandler(svc service.WooCommerceService) *WooCommerceHandler {
	return &WooCommerceHandler{svc: svc}
}

// GetConnection godoc
// @Summary      Current WooCommerce connection settings
// @Description  The consumer secret is never returned.
// @Tags         woocommerce
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ConnectionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/woocommerce/connection [get]
func (h *WooCommerceHandler) GetConnection(c *gin.Context) {
	resp, err := h.svc.GetConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("No store connection configured"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveConnection godoc
// @Summary      Create or replace the WooCommerce connection
// @Tags         woocommerce
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SaveConnectionRequest true "Connection"
// @Success      200 {object} dto.ConnectionResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/woocommerce/connection [put]
func (h *WooCommerceHandler) SaveConnection(c *gin.Context) {
	var req dto.SaveConnectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SaveConnection(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TestConnection godoc
// @Summary      Probe a store's REST API with the given credentials
// @Description  Nothing is persisted; only the probe result is reported.
// @Tags         woocommerce
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.TestConnectionRequest true "Credentials"
// @Success      200 {object} map[string]bool
// @Failure      502 {object} apierror.APIError
// @Router       /v1/woocommerce/test [post]
func (h *WooCommerceHandler) TestConnection(c *gin.Context) {
	var req dto.TestConnectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.TestConnection(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SyncProducts godoc
// @Summary      Pull the store's product catalog now
// @Tags         woocommerce
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ProductSyncResult
// @Failure      502 {object} apierror.APIError
// @Router       /v1/woocommerce/sync/products [post]
func (h *WooCommerceHandler) SyncProducts(c *gin.Context) {
	result, err := h.svc.SyncProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncOrders godoc
// @Summary      Pull the store's orders now
// @Tags         woocommerce
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.OrderSyncResult
// @Failure      502 {object} apierror.APIError
// @Router       /v1/woocommerce/sync/orders [post]
func (h *WooCommerceHandler) SyncOrders(c *gin.Context) {
	result, err := h.svc.SyncOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, result)
}
