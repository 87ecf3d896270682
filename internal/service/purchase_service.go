package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"novapos/internal/dto"
	"novapos/internal/model"
	"novapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseService interface {
	CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
	ListPurchases(ctx context.Context, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error)
}

type purchaseService struct {
	repo         repository.PurchaseRepository
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

func NewPurchaseService(
	repo repository.PurchaseRepository,
	supplierRepo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
) PurchaseService {
	return &purchaseService{
		repo:         repo,
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
	}
}

func GeneratePurchaseNumber() string {
	return fmt.Sprintf("PURCH-%d-%d", time.Now().UnixMilli(), rand.Intn(1000))
}

// CreatePurchase mirrors checkout with the stock direction inverted: the
// header and items commit in one transaction, then each line increments
// stock and appends an "in" movement, best-effort. Intake lines carry the
// unit cost agreed with the supplier rather than the catalog price.
func (s *purchaseService) CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier_id: %w", err)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, errors.New("supplier not found")
	}

	resolved := make([]resolvedLine, 0, len(req.Items))
	cart := make([]CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		p, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", item.ProductID)
		}
		resolved = append(resolved, resolvedLine{
			productID: pid,
			name:      p.Name,
			price:     item.Price,
			quantity:  item.Quantity,
		})
		cart = append(cart, CartLine{UnitPrice: item.Price, Quantity: item.Quantity})
	}

	totals := CalculatePurchaseTotals(cart)

	purchase := model.Purchase{
		PurchaseNumber: GeneratePurchaseNumber(),
		SupplierID:     supplierID,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		Status:         model.SaleCompleted,
		Notes:          req.Notes,
	}
	for _, r := range resolved {
		purchase.Items = append(purchase.Items, model.PurchaseItem{
			ProductID: r.productID,
			Quantity:  r.quantity,
			Price:     r.price,
			Total:     r.price.Mul(decimal.NewFromInt(int64(r.quantity))).Round(2),
		})
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, &purchase)
	})
	if txErr != nil {
		return nil, txErr
	}

	applyStockMovements(ctx, s.productRepo, s.movementRepo, purchase.ID, model.ReferencePurchase, model.MovementIn, resolved)

	resp := purchaseToResponse(&purchase)
	resp.Supplier = &supplier.Name
	for i, r := range resolved {
		resp.Items[i].Product = r.name
	}
	return resp, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("purchase not found")
	}
	return purchaseToResponse(purchase), nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	purchases, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		items = append(items, *purchaseToResponse(&purchases[i]))
	}
	return &dto.PurchaseListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func purchaseToResponse(p *model.Purchase) *dto.PurchaseResponse {
	items := make([]dto.PurchaseItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.PurchaseItemResponse{
			ProductID: item.ProductID.String(),
			Product:   name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Total:     item.Total,
		})
	}
	var supplierName *string
	if p.Supplier != nil {
		supplierName = &p.Supplier.Name
	}
	return &dto.PurchaseResponse{
		ID:             p.ID.String(),
		PurchaseNumber: p.PurchaseNumber,
		SupplierID:     p.SupplierID.String(),
		Supplier:       supplierName,
		Items:          items,
		Subtotal:       p.Subtotal,
		Tax:            p.Tax,
		Total:          p.Total,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}
