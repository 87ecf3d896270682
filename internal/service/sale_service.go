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
	"novapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo         repository.SaleRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	movementRepo repository.StockMovementRepository
	dispatcher   *worker.Dispatcher
}

func NewSaleService(
	repo repository.SaleRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	movementRepo repository.StockMovementRepository,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		repo:         repo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		movementRepo: movementRepo,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// GenerateSaleNumber builds the human-readable natural key for a POS sale.
// Orders pulled from WooCommerce use "WC-{order_id}" instead.
func GenerateSaleNumber() string {
	return fmt.Sprintf("SALE-%d-%d", time.Now().UnixMilli(), rand.Intn(1000))
}

// ── Checkout ─────────────────────────────────────────────────────────────────
// 1. Resolve the customer (loyalty balance drives the discount).
// 2. Resolve each cart line against the catalog, snapshotting prices.
// 3. Compute totals and validate cash tendered.
// 4. TX: insert header + items. A header failure aborts the whole checkout.
// 5. After commit, per line: decrement stock and append a movement row.
//    These are best-effort — a failed line is logged and skipped, never
//    rolling back the recorded sale.
// 6. Credit loyalty points (1 per unit) and dispatch the receipt job.

func (s *saleService) Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*dto.SaleResponse, error) {
	// 1. Customer is optional; walk-in sales carry no discount and earn no points.
	var customer *model.Customer
	var customerID *uuid.UUID
	loyaltyPoints := 0
	if req.CustomerID != nil && *req.CustomerID != "" {
		cid, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer_id: %w", err)
		}
		customer, err = s.customerRepo.FindByID(ctx, cid)
		if err != nil {
			return nil, errors.New("customer not found")
		}
		customerID = &cid
		loyaltyPoints = customer.LoyaltyPoints
	}

	// 2. Resolve products and snapshot prices (pre-flight, outside TX).
	resolved := make([]resolvedLine, 0, len(req.Items))
	cart := make([]CartLine, 0, len(req.Items))
	totalUnits := 0

	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		p, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", item.ProductID)
		}
		if !p.Active {
			return nil, fmt.Errorf("product %s is inactive and cannot be sold", p.Name)
		}
		if p.Stock < item.Quantity {
			// Over-selling is tolerated; the stock counter may go negative
			// and is reconciled against the movement trail later.
			log.Warn().
				Str("product_id", pid.String()).
				Int("stock", p.Stock).
				Int("requested", item.Quantity).
				Msg("checkout exceeds available stock")
		}
		resolved = append(resolved, resolvedLine{
			productID: pid,
			name:      p.Name,
			price:     p.Price,
			quantity:  item.Quantity,
		})
		cart = append(cart, CartLine{UnitPrice: p.Price, Quantity: item.Quantity})
		totalUnits += item.Quantity
	}

	// 3. Totals and cash validation.
	totals := CalculateTotals(cart, loyaltyPoints)

	change := decimal.Zero
	if req.PaymentMethod == model.PaymentCash && req.CashReceived != nil {
		if req.CashReceived.LessThan(totals.Total) {
			return nil, errors.New("cash received is less than the total due")
		}
		change = req.CashReceived.Sub(totals.Total)
	}

	// 4. Header + items in one transaction.
	sale := model.Sale{
		SaleNumber:    GenerateSaleNumber(),
		UserID:        userID,
		CustomerID:    customerID,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		Total:         totals.Total,
		PaymentMethod: req.PaymentMethod,
		Status:        model.SaleCompleted,
		Notes:         req.Notes,
	}
	for _, r := range resolved {
		sale.Items = append(sale.Items, model.SaleItem{
			ProductID: r.productID,
			Quantity:  r.quantity,
			Price:     r.price,
			Total:     r.price.Mul(decimal.NewFromInt(int64(r.quantity))).Round(2),
		})
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, &sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	// 5. Best-effort stock adjustment and audit trail, one row per line.
	applyStockMovements(ctx, s.productRepo, s.movementRepo, sale.ID, model.ReferenceSale, model.MovementOut, resolved)

	// 6. Loyalty credit: 1 point per unit, never debited.
	if customerID != nil && totalUnits > 0 {
		if err := s.customerRepo.AddLoyaltyPoints(ctx, *customerID, totalUnits); err != nil {
			log.Error().Err(err).
				Str("customer_id", customerID.String()).
				Int("points", totalUnits).
				Msg("loyalty credit failed")
		}
	}

	// Receipt job is fire & forget.
	if s.dispatcher != nil {
		payload := map[string]interface{}{"sale_id": sale.ID.String()}
		if customer != nil && customer.Email != nil && *customer.Email != "" {
			payload["email"] = *customer.Email
		}
		_ = s.dispatcher.EnqueueReceipt(ctx, payload)
	}

	resp := saleToResponse(&sale)
	resp.DiscountPercent = totals.DiscountPercent
	resp.Change = change
	if customerID != nil {
		resp.PointsEarned = totalUnits
	}
	if customer != nil {
		resp.Customer = &customer.Name
	}
	for i, r := range resolved {
		resp.Items[i].Product = r.name
	}
	return resp, nil
}

// resolvedLine is a cart line after catalog resolution. Shared by the sale
// and purchase recorders, which differ only in stock direction.
type resolvedLine struct {
	productID uuid.UUID
	name      string
	price     decimal.Decimal
	quantity  int
}

// applyStockMovements decrements or increments product stock and appends the
// matching audit row, per line. Failures are logged and skipped: the recorded
// sale or purchase stands even when a line's counters could not be updated.
func applyStockMovements(
	ctx context.Context,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	refID uuid.UUID,
	refType, movType string,
	lines []resolvedLine,
) {
	for _, l := range lines {
		delta := l.quantity
		if movType == model.MovementOut {
			delta = -l.quantity
		}
		if err := productRepo.AdjustStock(ctx, l.productID, delta); err != nil {
			log.Error().Err(err).
				Str("product_id", l.productID.String()).
				Int("delta", delta).
				Msg("stock adjustment failed, line skipped")
			continue
		}
		ref := refID
		rt := refType
		mov := &model.StockMovement{
			ProductID:     l.productID,
			MovementType:  movType,
			Quantity:      l.quantity,
			ReferenceType: &rt,
			ReferenceID:   &ref,
		}
		if err := movementRepo.Create(ctx, mov); err != nil {
			log.Error().Err(err).
				Str("product_id", l.productID.String()).
				Msg("stock movement insert failed")
		}
	}
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("sale not found")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ProductID: item.ProductID.String(),
			Product:   name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Total:     item.Total,
		})
	}
	var customerID *string
	if s.CustomerID != nil {
		cid := s.CustomerID.String()
		customerID = &cid
	}
	var customerName *string
	if s.Customer != nil {
		customerName = &s.Customer.Name
	}
	return &dto.SaleResponse{
		ID:            s.ID.String(),
		SaleNumber:    s.SaleNumber,
		CustomerID:    customerID,
		Customer:      customerName,
		Items:         items,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Tax:           s.Tax,
		Total:         s.Total,
		Change:        decimal.Zero,
		PaymentMethod: s.PaymentMethod,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}
