package handler

import (
	"net/http"
	"strconv"

	"novapos/internal/apierror"
	"novapos/internal/dto"
	"novapos/internal/repository"

	"github.com/gin-gonic/gin"
)

// ReportsHandler serves read-only aggregations straight from the repository.
type ReportsHandler struct{ repo repository.ReportRepository }

func NewReportsHandler(repo repository.ReportRepository) *ReportsHandler {
	return &ReportsHandler{repo: repo}
}

// DailySales godoc
// @Summary      Completed sales grouped by day
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "From date YYYY-MM-DD"
// @Param        to   query string false "To date YYYY-MM-DD"
// @Success      200 {array} dto.DailySales
// @Router       /v1/reports/daily-sales [get]
func (h *ReportsHandler) DailySales(c *gin.Context) {
	var filter dto.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	rows, err := h.repo.DailySales(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to build report"))
		return
	}
	c.JSON(http.StatusOK, rows)
}

// TopProducts godoc
// @Summary      Best-selling products by units sold
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from  query string false "From date YYYY-MM-DD"
// @Param        to    query string false "To date YYYY-MM-DD"
// @Param        limit query int    false "Rows to return (default 10)"
// @Success      200 {array} dto.TopProduct
// @Router       /v1/reports/top-products [get]
func (h *ReportsHandler) TopProducts(c *gin.Context) {
	var filter dto.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	rows, err := h.repo.TopProducts(c.Request.Context(), filter, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to build report"))
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportsHandler) StockValuation(c *gin.Context) {
	row, err := h.repo.StockValuation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to build report"))
		return
	}
	c.JSON(http.StatusOK, row)
}
