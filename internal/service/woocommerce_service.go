package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"novapos/internal/dto"
	"novapos/internal/infra"
	"novapos/internal/model"
	"novapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// syncPageSize is the per_page used for both catalog and order pagination.
const syncPageSize = 100

// ErrNoConnection is returned when a sync runs without a configured store.
var ErrNoConnection = errors.New("no active WooCommerce connection")

// WooFetcher is the remote-store surface the synchronizer consumes.
// infra.WooClient is the production implementation.
type WooFetcher interface {
	Products(ctx context.Context, page, perPage int) ([]infra.WooProduct, error)
	Orders(ctx context.Context, page, perPage int) ([]infra.WooOrder, error)
	Ping(ctx context.Context) error
}

type WooCommerceService interface {
	GetConnection(ctx context.Context) (*dto.ConnectionResponse, error)
	SaveConnection(ctx context.Context, req dto.SaveConnectionRequest) (*dto.ConnectionResponse, error)
	TestConnection(ctx context.Context, req dto.TestConnectionRequest) error
	SyncProducts(ctx context.Context) (*dto.ProductSyncResult, error)
	SyncOrders(ctx context.Context) (*dto.OrderSyncResult, error)
}

type wooCommerceService struct {
	repo         repository.WooCommerceRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	customerRepo repository.CustomerRepository
	saleRepo     repository.SaleRepository
	userRepo     repository.UserRepository
	cb           *infra.CircuitBreaker

	// newClient is swappable so tests can stub the remote store.
	newClient func(creds infra.WooCredentials) WooFetcher
}

func NewWooCommerceService(
	repo repository.WooCommerceRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	customerRepo repository.CustomerRepository,
	saleRepo repository.SaleRepository,
	userRepo repository.UserRepository,
	cb *infra.CircuitBreaker,
) WooCommerceService {
	return NewWooCommerceServiceWithFactory(repo, productRepo, categoryRepo, customerRepo, saleRepo, userRepo, cb,
		func(creds infra.WooCredentials) WooFetcher {
			return infra.NewWooClient(creds)
		})
}

// NewWooCommerceServiceWithFactory lets callers control how remote clients
// are built. Tests substitute a canned fetcher here.
func NewWooCommerceServiceWithFactory(
	repo repository.WooCommerceRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	customerRepo repository.CustomerRepository,
	saleRepo repository.SaleRepository,
	userRepo repository.UserRepository,
	cb *infra.CircuitBreaker,
	newClient func(creds infra.WooCredentials) WooFetcher,
) WooCommerceService {
	return &wooCommerceService{
		repo:         repo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		customerRepo: customerRepo,
		saleRepo:     saleRepo,
		userRepo:     userRepo,
		cb:           cb,
		newClient:    newClient,
	}
}

// ── Connection management ────────────────────────────────────────────────────

func (s *wooCommerceService) GetConnection(ctx context.Context) (*dto.ConnectionResponse, error) {
	conn, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, ErrNoConnection
	}
	return connectionToResponse(conn), nil
}

func (s *wooCommerceService) SaveConnection(ctx context.Context, req dto.SaveConnectionRequest) (*dto.ConnectionResponse, error) {
	conn := &model.WooCommerceConnection{
		StoreURL:       strings.TrimRight(req.StoreURL, "/"),
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
		SyncProducts:   req.SyncProducts,
		SyncOrders:     req.SyncOrders,
	}
	if err := s.repo.Save(ctx, conn); err != nil {
		return nil, err
	}
	return connectionToResponse(conn), nil
}

// TestConnection probes the store with the submitted credentials without
// persisting anything.
func (s *wooCommerceService) TestConnection(ctx context.Context, req dto.TestConnectionRequest) error {
	client := s.newClient(infra.WooCredentials{
		StoreURL:       strings.TrimRight(req.StoreURL, "/"),
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
	})
	return client.Ping(ctx)
}

func (s *wooCommerceService) activeClient(ctx context.Context) (WooFetcher, *model.WooCommerceConnection, error) {
	conn, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, nil, ErrNoConnection
	}
	client := s.newClient(infra.WooCredentials{
		StoreURL:       conn.StoreURL,
		ConsumerKey:    conn.ConsumerKey,
		ConsumerSecret: conn.ConsumerSecret,
	})
	return client, conn, nil
}

// ── Product sync ─────────────────────────────────────────────────────────────
// Pulls the full remote catalog page by page and upserts by SKU. Products
// without a remote SKU get the synthesized "WC-{id}" key, which makes repeat
// runs idempotent. The first remote category is looked up or created by name.

func (s *wooCommerceService) SyncProducts(ctx context.Context) (*dto.ProductSyncResult, error) {
	client, conn, err := s.activeClient(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.ProductSyncResult{}
	for page := 1; ; page++ {
		var wooProducts []infra.WooProduct
		fetchErr := s.protect(func() error {
			var err error
			wooProducts, err = client.Products(ctx, page, syncPageSize)
			return err
		})
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch products page %d: %w", page, fetchErr)
		}
		if len(wooProducts) == 0 {
			break
		}

		for i := range wooProducts {
			created, err := s.upsertProduct(ctx, &wooProducts[i])
			if err != nil {
				log.Error().Err(err).Str("sku", wooProducts[i].SKU).Msg("wc_sync: product upsert failed")
				continue
			}
			result.Total++
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		if len(wooProducts) < syncPageSize {
			break
		}
	}

	if err := s.repo.TouchLastSync(ctx, conn, time.Now()); err != nil {
		log.Warn().Err(err).Msg("wc_sync: failed to update last_sync")
	}
	return result, nil
}

func (s *wooCommerceService) upsertProduct(ctx context.Context, wp *infra.WooProduct) (created bool, err error) {
	sku := wp.SKU
	if sku == "" {
		sku = fmt.Sprintf("WC-%d", wp.ID)
	}

	var categoryID *uuid.UUID
	if len(wp.Categories) > 0 {
		id, err := s.resolveCategory(ctx, wp.Categories[0].Name)
		if err != nil {
			log.Warn().Err(err).Str("category", wp.Categories[0].Name).Msg("wc_sync: category resolve failed")
		} else {
			categoryID = id
		}
	}

	price := infra.DecimalField(wp.Price)
	cost := infra.DecimalField(wp.RegularPrice)
	if cost.IsZero() {
		cost = price
	}
	stock := 0
	if wp.StockQty != nil {
		stock = *wp.StockQty
	}

	var description *string
	if wp.Description != "" {
		description = &wp.Description
	}
	var imageURL *string
	if len(wp.Images) > 0 && wp.Images[0].Src != "" {
		imageURL = &wp.Images[0].Src
	}
	var barcode *string
	if wp.SKU != "" {
		barcode = &wp.SKU
	}

	existing, findErr := s.productRepo.FindBySKU(ctx, sku)
	if findErr == nil {
		existing.Name = wp.Name
		existing.Description = description
		existing.CategoryID = categoryID
		existing.Price = price
		existing.Cost = cost
		existing.Stock = stock
		existing.Barcode = barcode
		existing.ImageURL = imageURL
		existing.Active = wp.Status == "publish"
		return false, s.productRepo.Update(ctx, existing)
	}

	p := &model.Product{
		SKU:         sku,
		Name:        wp.Name,
		Description: description,
		CategoryID:  categoryID,
		Price:       price,
		Cost:        cost,
		Stock:       stock,
		MinStock:    0,
		Barcode:     barcode,
		ImageURL:    imageURL,
		Active:      wp.Status == "publish",
	}
	return true, s.productRepo.Create(ctx, p)
}

func (s *wooCommerceService) resolveCategory(ctx context.Context, name string) (*uuid.UUID, error) {
	if existing, err := s.categoryRepo.FindByName(ctx, name); err == nil {
		return &existing.ID, nil
	}
	c := &model.Category{Name: name, Active: true}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return &c.ID, nil
}

// ── Order sync ───────────────────────────────────────────────────────────────
// Pulls completed orders page by page. The synthesized sale number
// "WC-{order_id}" is the idempotency key: an order whose number already
// exists locally is skipped, never re-processed. Totals come from the
// order's own reported figures, not recomputed locally, and imported sales
// touch neither stock nor the movement trail — the store already accounted
// for its own inventory.

func (s *wooCommerceService) SyncOrders(ctx context.Context) (*dto.OrderSyncResult, error) {
	client, conn, err := s.activeClient(ctx)
	if err != nil {
		return nil, err
	}

	// Imported sales are attributed to the oldest admin account.
	syncUser, err := s.userRepo.FindOldestByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, errors.New("no admin user to attribute synced orders")
	}

	result := &dto.OrderSyncResult{}
	for page := 1; ; page++ {
		var orders []infra.WooOrder
		fetchErr := s.protect(func() error {
			var err error
			orders, err = client.Orders(ctx, page, syncPageSize)
			return err
		})
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch orders page %d: %w", page, fetchErr)
		}
		if len(orders) == 0 {
			break
		}

		for i := range orders {
			order := &orders[i]
			result.Total++
			synced, err := s.importOrder(ctx, order, syncUser.ID)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("order %d: %v", order.ID, err))
				continue
			}
			if synced {
				result.Synced++
			} else {
				result.Skipped++
			}
		}

		if len(orders) < syncPageSize {
			break
		}
	}

	if err := s.repo.TouchLastSync(ctx, conn, time.Now()); err != nil {
		log.Warn().Err(err).Msg("wc_sync: failed to update last_sync")
	}
	return result, nil
}

func (s *wooCommerceService) importOrder(ctx context.Context, order *infra.WooOrder, userID uuid.UUID) (bool, error) {
	saleNumber := fmt.Sprintf("WC-%d", order.ID)

	exists, err := s.saleRepo.ExistsByNumber(ctx, saleNumber)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	customerID, err := s.resolveOrderCustomer(ctx, order)
	if err != nil {
		return false, err
	}

	total := infra.DecimalField(order.Total)
	tax := infra.DecimalField(order.TotalTax)
	subtotal := total.Sub(tax)

	status := model.SalePending
	if order.Status == "completed" {
		status = model.SaleCompleted
	}

	sale := model.Sale{
		SaleNumber:    saleNumber,
		UserID:        userID,
		CustomerID:    customerID,
		Subtotal:      subtotal,
		Discount:      decimal.Zero,
		Tax:           tax,
		Total:         total,
		PaymentMethod: mapPaymentMethod(order.PaymentMethod),
		Status:        status,
	}

	// Lines whose SKU has no local match are dropped, not errored.
	for _, item := range order.LineItems {
		sku := item.SKU
		if sku == "" {
			sku = fmt.Sprintf("WC-%d", item.ProductID)
		}
		p, err := s.productRepo.FindBySKU(ctx, sku)
		if err != nil || !p.Active {
			continue
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		sale.Items = append(sale.Items, model.SaleItem{
			ProductID: p.ID,
			Quantity:  qty,
			Price:     item.Price,
			Total:     infra.DecimalField(item.Total),
		})
	}

	txErr := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		return s.saleRepo.Create(ctx, tx, &sale)
	})
	if txErr != nil {
		return false, txErr
	}
	return true, nil
}

func (s *wooCommerceService) resolveOrderCustomer(ctx context.Context, order *infra.WooOrder) (*uuid.UUID, error) {
	email := order.Billing.Email
	if email == "" {
		return nil, nil
	}

	if existing, err := s.customerRepo.FindByEmail(ctx, email); err == nil {
		return &existing.ID, nil
	}

	name := strings.TrimSpace(order.Billing.FirstName + " " + order.Billing.LastName)
	if name == "" {
		name = email
	}
	var phone *string
	if order.Billing.Phone != "" {
		phone = &order.Billing.Phone
	}
	var address *string
	if addr := strings.Trim(strings.TrimSpace(order.Billing.Address1+", "+order.Billing.City), ", "); addr != "" {
		address = &addr
	}

	c := &model.Customer{
		Name:    name,
		Email:   &email,
		Phone:   phone,
		Address: address,
		Active:  true,
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return &c.ID, nil
}

// protect routes a remote call through the circuit breaker when one is wired.
func (s *wooCommerceService) protect(fn func() error) error {
	if s.cb == nil {
		return fn()
	}
	return s.cb.Execute(fn)
}

// mapPaymentMethod translates WooCommerce gateway identifiers to the local
// payment enum. Unrecognized gateways default to cash.
func mapPaymentMethod(wcMethod string) string {
	switch strings.ToLower(wcMethod) {
	case "bacs", "cheque":
		return model.PaymentTransfer
	case "paypal", "stripe", "card":
		return model.PaymentCard
	case "cod":
		return model.PaymentCash
	default:
		return model.PaymentCash
	}
}

func connectionToResponse(conn *model.WooCommerceConnection) *dto.ConnectionResponse {
	var lastSync *string
	if conn.LastSync != nil {
		ts := conn.LastSync.Format(time.RFC3339)
		lastSync = &ts
	}
	return &dto.ConnectionResponse{
		ID:           conn.ID.String(),
		StoreURL:     conn.StoreURL,
		ConsumerKey:  conn.ConsumerKey,
		SyncProducts: conn.SyncProducts,
		SyncOrders:   conn.SyncOrders,
		LastSync:     lastSync,
		Active:       conn.Active,
	}
}
