package service

import (
	"context"
	"errors"
	"time"

	"novapos/internal/dto"
	"novapos/internal/model"
	"novapos/internal/repository"

	"github.com/google/uuid"
)

// InventoryService covers stock operations outside the sale/purchase paths:
// manual adjustments, the movement audit trail, and low-stock alerts.
type InventoryService interface {
	AdjustStock(ctx context.Context, productID uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error)
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

func NewInventoryService(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository) InventoryService {
	return &inventoryService{productRepo: productRepo, movementRepo: movementRepo}
}

// AdjustStock applies a signed manual delta and appends a movement row with
// no reference transaction, only the operator's note.
func (s *inventoryService) AdjustStock(ctx context.Context, productID uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	if req.Delta == 0 {
		return nil, errors.New("delta must be non-zero")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, errors.New("product not found")
	}

	if err := s.productRepo.AdjustStock(ctx, productID, req.Delta); err != nil {
		return nil, err
	}

	movType := model.MovementIn
	qty := req.Delta
	if req.Delta < 0 {
		movType = model.MovementOut
		qty = -req.Delta
	}
	notes := req.Notes
	mov := &model.StockMovement{
		ProductID:    productID,
		MovementType: movType,
		Quantity:     qty,
		Notes:        &notes,
	}
	if err := s.movementRepo.Create(ctx, mov); err != nil {
		return nil, err
	}

	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	movements, total, err := s.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, movementToResponse(&movements[i]))
	}
	return &dto.MovementListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *inventoryService) StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error) {
	products, err := s.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.StockAlertResponse, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, dto.StockAlertResponse{
			ProductID: p.ID.String(),
			SKU:       p.SKU,
			Name:      p.Name,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
		})
	}
	return alerts, nil
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	name := ""
	if m.Product != nil {
		name = m.Product.Name
	}
	var refID *string
	if m.ReferenceID != nil {
		id := m.ReferenceID.String()
		refID = &id
	}
	return dto.MovementResponse{
		ID:            m.ID.String(),
		ProductID:     m.ProductID.String(),
		Product:       name,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		ReferenceType: m.ReferenceType,
		ReferenceID:   refID,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
}
