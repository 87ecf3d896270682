package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"novapos/internal/dto"
	"novapos/internal/model"
	"novapos/internal/repository"
	"novapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubProductRepo is an in-memory ProductRepository for testing.
type stubProductRepo struct {
	products   map[uuid.UUID]*model.Product
	bySKU      map[string]*model.Product
	failAdjust bool
	created    int
	updated    int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		bySKU:    make(map[string]*model.Product),
	}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	r.bySKU[p.SKU] = p
	r.created++
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	p, ok := r.bySKU[sku]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListLowStock(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Active && p.Stock <= p.MinStock {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	r.bySKU[p.SKU] = p
	r.updated++
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (r *stubProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if p, ok := r.products[id]; ok {
		p.Active = true
	}
	return nil
}

func (r *stubProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	if r.failAdjust {
		return errors.New("adjust failed")
	}
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubMovementRepo captures created movement rows for assertion.
type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, _ dto.MovementFilter) ([]model.StockMovement, int64, error) {
	return r.movements, int64(len(r.movements)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// stubCustomerRepo tracks loyalty credits.
type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
	byEmail   map[string]*model.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{
		customers: make(map[uuid.UUID]*model.Customer),
		byEmail:   make(map[string]*model.Customer),
	}
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	if c.Email != nil {
		r.byEmail[*c.Email] = c
	}
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) FindByEmail(_ context.Context, email string) (*model.Customer, error) {
	c, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) List(_ context.Context, _ dto.CustomerFilter) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if c, ok := r.customers[id]; ok {
		c.Active = false
	}
	return nil
}

func (r *stubCustomerRepo) AddLoyaltyPoints(_ context.Context, id uuid.UUID, points int) error {
	c, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LoyaltyPoints += points
	return nil
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// stubSaleRepo stores created sales in memory.
type stubSaleRepo struct {
	sales      map[uuid.UUID]*model.Sale
	byNumber   map[string]*model.Sale
	failCreate bool
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{
		sales:    make(map[uuid.UUID]*model.Sale),
		byNumber: make(map[string]*model.Sale),
	}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if r.failCreate {
		return errors.New("insert failed")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].SaleID = s.ID
	}
	r.sales[s.ID] = s
	r.byNumber[s.SaleNumber] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) ExistsByNumber(_ context.Context, saleNumber string) (bool, error) {
	_, ok := r.byNumber[saleNumber]
	return ok, nil
}

func (r *stubSaleRepo) List(_ context.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func seedProduct(repo *stubProductRepo, name, sku string, price float64, stock int) *model.Product {
	p := &model.Product{
		ID:     uuid.New(),
		SKU:    sku,
		Name:   name,
		Price:  decimal.NewFromFloat(price),
		Stock:  stock,
		Active: true,
	}
	repo.products[p.ID] = p
	repo.bySKU[sku] = p
	return p
}

func buildSaleSvc() (service.SaleService, *stubSaleRepo, *stubProductRepo, *stubCustomerRepo, *stubMovementRepo) {
	saleRepo := newStubSaleRepo()
	productRepo := newStubProductRepo()
	customerRepo := newStubCustomerRepo()
	movementRepo := &stubMovementRepo{}

	svc := service.NewSaleService(saleRepo, productRepo, customerRepo, movementRepo, nil)
	return svc, saleRepo, productRepo, customerRepo, movementRepo
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCheckout_WalkIn(t *testing.T) {
	svc, saleRepo, productRepo, _, movementRepo := buildSaleSvc()
	p := seedProduct(productRepo, "Keyboard", "KB-001", 25000, 10)

	resp, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 3}},
		PaymentMethod: model.PaymentCard,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.SaleNumber, "SALE-"))
	assert.Equal(t, "75000", resp.Subtotal.String())
	assert.Equal(t, int64(0), resp.DiscountPercent)
	assert.Equal(t, "14250", resp.Tax.String())
	assert.Equal(t, "89250", resp.Total.String())
	assert.Equal(t, 0, resp.PointsEarned)

	// Stock decremented and one out-movement per line
	assert.Equal(t, 7, p.Stock)
	require.Len(t, movementRepo.movements, 1)
	assert.Equal(t, model.MovementOut, movementRepo.movements[0].MovementType)
	assert.Equal(t, 3, movementRepo.movements[0].Quantity)
	assert.Equal(t, model.ReferenceSale, *movementRepo.movements[0].ReferenceType)

	stored, err := saleRepo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, model.SaleCompleted, stored.Status)
}

func TestCheckout_LoyaltyDiscountAndCredit(t *testing.T) {
	svc, _, productRepo, customerRepo, _ := buildSaleSvc()
	p := seedProduct(productRepo, "Monitor", "MON-001", 25000, 10)

	customer := &model.Customer{ID: uuid.New(), Name: "Ana Torres", LoyaltyPoints: 250, Active: true}
	customerRepo.customers[customer.ID] = customer

	cid := customer.ID.String()
	resp, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 2}},
		CustomerID:    &cid,
		PaymentMethod: model.PaymentTransfer,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.DiscountPercent)
	assert.Equal(t, "1000", resp.Discount.String())
	assert.Equal(t, "58310", resp.Total.String())
	assert.Equal(t, 2, resp.PointsEarned)

	// One point per unit, credited on top of the existing balance
	assert.Equal(t, 252, customer.LoyaltyPoints)
}

func TestCheckout_CashInsufficient(t *testing.T) {
	svc, _, productRepo, _, _ := buildSaleSvc()
	p := seedProduct(productRepo, "Mouse", "MS-001", 100, 10)

	cash := decimal.NewFromInt(100) // total is 119 after tax
	_, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod: model.PaymentCash,
		CashReceived:  &cash,
	})
	assert.ErrorContains(t, err, "cash received")
}

func TestCheckout_CashChange(t *testing.T) {
	svc, _, productRepo, _, _ := buildSaleSvc()
	p := seedProduct(productRepo, "Cable", "CB-001", 100, 10)

	cash := decimal.NewFromInt(150)
	resp, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod: model.PaymentCash,
		CashReceived:  &cash,
	})
	require.NoError(t, err)
	assert.Equal(t, "119", resp.Total.String())
	assert.Equal(t, "31", resp.Change.String())
}

func TestCheckout_InactiveProductRejected(t *testing.T) {
	svc, _, productRepo, _, _ := buildSaleSvc()
	p := seedProduct(productRepo, "Discontinued", "OLD-001", 50, 10)
	p.Active = false

	_, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorContains(t, err, "inactive")
}

func TestCheckout_OverSellTolerated(t *testing.T) {
	// Requesting more than on hand still records the sale; the counter
	// goes negative and is reconciled against the movement trail later.
	svc, _, productRepo, _, movementRepo := buildSaleSvc()
	p := seedProduct(productRepo, "Scarce", "SC-001", 10, 2)

	resp, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 5}},
		PaymentMethod: model.PaymentCard,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, -3, p.Stock)
	assert.Len(t, movementRepo.movements, 1)
}

func TestCheckout_StockFailureDoesNotAbortSale(t *testing.T) {
	svc, saleRepo, productRepo, _, movementRepo := buildSaleSvc()
	p := seedProduct(productRepo, "Widget", "WD-001", 10, 5)
	productRepo.failAdjust = true

	resp, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod: model.PaymentCard,
	})
	require.NoError(t, err)

	// Sale persists; the failed line gets neither a stock change nor a movement.
	_, findErr := saleRepo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	assert.NoError(t, findErr)
	assert.Equal(t, 5, p.Stock)
	assert.Empty(t, movementRepo.movements)
}

func TestCheckout_HeaderFailureAborts(t *testing.T) {
	svc, saleRepo, productRepo, _, movementRepo := buildSaleSvc()
	p := seedProduct(productRepo, "Gadget", "GD-001", 10, 5)
	saleRepo.failCreate = true

	_, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 2}},
		PaymentMethod: model.PaymentCard,
	})
	require.Error(t, err)

	// Nothing else happened: no stock change, no movements
	assert.Equal(t, 5, p.Stock)
	assert.Empty(t, movementRepo.movements)
}

func TestCheckout_UnknownCustomer(t *testing.T) {
	svc, _, productRepo, _, _ := buildSaleSvc()
	p := seedProduct(productRepo, "Thing", "TH-001", 10, 5)

	cid := uuid.New().String()
	_, err := svc.Checkout(context.Background(), uuid.New(), dto.CheckoutRequest{
		Items:         []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		CustomerID:    &cid,
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorContains(t, err, "customer not found")
}
