package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"novapos/internal/apierror"
	"novapos/internal/dto"
	"novapos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const lookupCacheTTL = 4 * time.Hour

// LookupHandler serves the POS screen's fast SKU lookup. Responses are cached
// in Redis; the cache is best-effort and read-only traffic only.
type LookupHandler struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewLookupHandler(repo repository.ProductRepository, rdb *redis.Client) *LookupHandler {
	return &LookupHandler{repo: repo, rdb: rdb}
}

// BySKU godoc
// @Summary      Fast product lookup by SKU
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        sku path string true "SKU"
// @Success      200 {object} dto.ProductLookupResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/lookup/{sku} [get]
func (h *LookupHandler) BySKU(c *gin.Context) {
	sku := c.Param("sku")
	ctx := c.Request.Context()
	cacheKey := "lookup:" + sku

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.ProductLookupResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	p, err := h.repo.FindBySKU(ctx, sku)
	if err != nil || !p.Active {
		c.JSON(http.StatusNotFound, apierror.New("Product not found"))
		return
	}

	var category *string
	if p.Category != nil {
		category = &p.Category.Name
	}
	resp := dto.ProductLookupResponse{
		ID:       p.ID.String(),
		SKU:      p.SKU,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: category,
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, lookupCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
