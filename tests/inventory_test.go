package tests

import (
	"context"
	"testing"

	"novapos/internal/dto"
	"novapos/internal/model"
	"novapos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildInventorySvc() (service.InventoryService, *stubProductRepo, *stubMovementRepo) {
	productRepo := newStubProductRepo()
	movementRepo := &stubMovementRepo{}
	return service.NewInventoryService(productRepo, movementRepo), productRepo, movementRepo
}

func TestAdjustStock_Increase(t *testing.T) {
	svc, productRepo, movementRepo := buildInventorySvc()
	p := seedProduct(productRepo, "Paper A4", "PA-001", 5, 10)

	resp, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Delta: 20,
		Notes: "restock from warehouse",
	})
	require.NoError(t, err)

	assert.Equal(t, 30, resp.Stock)
	require.Len(t, movementRepo.movements, 1)
	mov := movementRepo.movements[0]
	assert.Equal(t, model.MovementIn, mov.MovementType)
	assert.Equal(t, 20, mov.Quantity)
	assert.Equal(t, "restock from warehouse", *mov.Notes)
	// Manual adjustments reference no transaction
	assert.Nil(t, mov.ReferenceType)
	assert.Nil(t, mov.ReferenceID)
}

func TestAdjustStock_Decrease(t *testing.T) {
	svc, productRepo, movementRepo := buildInventorySvc()
	p := seedProduct(productRepo, "Toner", "TN-001", 50, 8)

	resp, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{
		Delta: -3,
		Notes: "damaged units",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Stock)
	require.Len(t, movementRepo.movements, 1)
	// Quantity is always positive; direction lives in the movement type
	assert.Equal(t, model.MovementOut, movementRepo.movements[0].MovementType)
	assert.Equal(t, 3, movementRepo.movements[0].Quantity)
}

func TestAdjustStock_ZeroDeltaRejected(t *testing.T) {
	svc, productRepo, _ := buildInventorySvc()
	p := seedProduct(productRepo, "Stapler", "ST-001", 12, 4)

	_, err := svc.AdjustStock(context.Background(), p.ID, dto.AdjustStockRequest{Delta: 0})
	assert.ErrorContains(t, err, "non-zero")
}

func TestAdjustStock_UnknownProduct(t *testing.T) {
	svc, _, movementRepo := buildInventorySvc()

	_, err := svc.AdjustStock(context.Background(), uuid.New(), dto.AdjustStockRequest{Delta: 1})
	assert.ErrorContains(t, err, "product not found")
	assert.Empty(t, movementRepo.movements)
}

func TestStockAlerts(t *testing.T) {
	svc, productRepo, _ := buildInventorySvc()

	low := seedProduct(productRepo, "Low Item", "LOW-001", 10, 2)
	low.MinStock = 5
	ok := seedProduct(productRepo, "Healthy Item", "OK-001", 10, 50)
	ok.MinStock = 5
	inactive := seedProduct(productRepo, "Gone Item", "GONE-001", 10, 0)
	inactive.Active = false

	alerts, err := svc.StockAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "LOW-001", alerts[0].SKU)
	assert.Equal(t, 2, alerts[0].Stock)
	assert.Equal(t, 5, alerts[0].MinStock)
}
