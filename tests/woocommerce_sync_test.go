package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"novapos/internal/dto"
	"novapos/internal/infra"
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

type stubCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
	byName     map[string]*model.Category
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{
		categories: make(map[uuid.UUID]*model.Category),
		byName:     make(map[string]*model.Category),
	}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.categories[c.ID] = c
	r.byName[c.Name] = c
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCategoryRepo) FindByName(_ context.Context, name string) (*model.Category, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	r.categories[c.ID] = c
	r.byName[c.Name] = c
	return nil
}

func (r *stubCategoryRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if c, ok := r.categories[id]; ok {
		c.Active = false
	}
	return nil
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

type stubWooRepo struct {
	conn    *model.WooCommerceConnection
	touched int
}

func (r *stubWooRepo) FindActive(_ context.Context) (*model.WooCommerceConnection, error) {
	if r.conn == nil || !r.conn.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return r.conn, nil
}

func (r *stubWooRepo) Save(_ context.Context, conn *model.WooCommerceConnection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	conn.Active = true
	r.conn = conn
	return nil
}

func (r *stubWooRepo) TouchLastSync(_ context.Context, conn *model.WooCommerceConnection, at time.Time) error {
	conn.LastSync = &at
	r.touched++
	return nil
}

var _ repository.WooCommerceRepository = (*stubWooRepo)(nil)

// stubFetcher serves canned store pages in place of the remote REST API.
type stubFetcher struct {
	productPages [][]infra.WooProduct
	orderPages   [][]infra.WooOrder
	err          error
}

func (f *stubFetcher) Products(_ context.Context, page, _ int) ([]infra.WooProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	if page > len(f.productPages) {
		return nil, nil
	}
	return f.productPages[page-1], nil
}

func (f *stubFetcher) Orders(_ context.Context, page, _ int) ([]infra.WooOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	if page > len(f.orderPages) {
		return nil, nil
	}
	return f.orderPages[page-1], nil
}

func (f *stubFetcher) Ping(_ context.Context) error { return f.err }

var _ service.WooFetcher = (*stubFetcher)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

type wooTestEnv struct {
	svc          service.WooCommerceService
	wooRepo      *stubWooRepo
	productRepo  *stubProductRepo
	categoryRepo *stubCategoryRepo
	customerRepo *stubCustomerRepo
	saleRepo     *stubSaleRepo
	userRepo     *stubUserRepo
	movementRepo *stubMovementRepo
}

func buildWooEnv(fetcher *stubFetcher, connected bool) *wooTestEnv {
	env := &wooTestEnv{
		wooRepo:      &stubWooRepo{},
		productRepo:  newStubProductRepo(),
		categoryRepo: newStubCategoryRepo(),
		customerRepo: newStubCustomerRepo(),
		saleRepo:     newStubSaleRepo(),
		userRepo:     newStubUserRepo(),
		movementRepo: &stubMovementRepo{},
	}
	if connected {
		env.wooRepo.conn = &model.WooCommerceConnection{
			ID:           uuid.New(),
			StoreURL:     "https://shop.test",
			ConsumerKey:  "ck_test",
			ConsumerSecret: "cs_test",
			SyncProducts: true,
			SyncOrders:   true,
			Active:       true,
		}
	}
	env.svc = service.NewWooCommerceServiceWithFactory(
		env.wooRepo,
		env.productRepo,
		env.categoryRepo,
		env.customerRepo,
		env.saleRepo,
		env.userRepo,
		nil,
		func(_ infra.WooCredentials) service.WooFetcher { return fetcher },
	)
	return env
}

func wooProduct(id int64, sku, name, price string) infra.WooProduct {
	return infra.WooProduct{
		ID:     id,
		SKU:    sku,
		Name:   name,
		Status: "publish",
		Price:  price,
	}
}

// ── Connection tests ──────────────────────────────────────────────────────────

func TestSaveConnection_NormalizesURLAndHidesSecret(t *testing.T) {
	env := buildWooEnv(&stubFetcher{}, false)

	resp, err := env.svc.SaveConnection(context.Background(), dto.SaveConnectionRequest{
		StoreURL:       "https://shop.test/",
		ConsumerKey:    "ck_live",
		ConsumerSecret: "cs_live",
		SyncProducts:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test", resp.StoreURL)
	assert.Equal(t, "ck_live", resp.ConsumerKey)
	// The secret is persisted but never echoed back
	assert.Equal(t, "cs_live", env.wooRepo.conn.ConsumerSecret)
}

func TestGetConnection_None(t *testing.T) {
	env := buildWooEnv(&stubFetcher{}, false)

	_, err := env.svc.GetConnection(context.Background())
	assert.ErrorIs(t, err, service.ErrNoConnection)
}

func TestTestConnection_ProbeFails(t *testing.T) {
	env := buildWooEnv(&stubFetcher{err: errors.New("401 Unauthorized")}, false)

	err := env.svc.TestConnection(context.Background(), dto.TestConnectionRequest{
		StoreURL:       "https://shop.test",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	assert.Error(t, err)
	// A probe never persists anything
	assert.Nil(t, env.wooRepo.conn)
}

// ── Product sync tests ────────────────────────────────────────────────────────

func TestSyncProducts_CreateThenUpdate(t *testing.T) {
	fetcher := &stubFetcher{productPages: [][]infra.WooProduct{{
		wooProduct(101, "KB-001", "Keyboard", "25000"),
		wooProduct(102, "MS-001", "Mouse", "8000"),
	}}}
	env := buildWooEnv(fetcher, true)

	result, err := env.svc.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, env.wooRepo.touched)

	// Second run matches by SKU: updates, never duplicates
	fetcher.productPages[0][0].Name = "Mechanical Keyboard"
	result, err = env.svc.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Updated)
	assert.Len(t, env.productRepo.products, 2)

	p, err := env.productRepo.FindBySKU(context.Background(), "KB-001")
	require.NoError(t, err)
	assert.Equal(t, "Mechanical Keyboard", p.Name)
}

func TestSyncProducts_MissingSKUFallback(t *testing.T) {
	fetcher := &stubFetcher{productPages: [][]infra.WooProduct{{
		wooProduct(777, "", "No SKU Item", "100"),
	}}}
	env := buildWooEnv(fetcher, true)

	_, err := env.svc.SyncProducts(context.Background())
	require.NoError(t, err)

	p, err := env.productRepo.FindBySKU(context.Background(), "WC-777")
	require.NoError(t, err)
	assert.Equal(t, "No SKU Item", p.Name)
	assert.Nil(t, p.Barcode)
}

func TestSyncProducts_CategoryResolvedByName(t *testing.T) {
	wp := wooProduct(201, "HD-001", "Headset", "12000")
	wp.Categories = append(wp.Categories, struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}{ID: 9, Name: "Peripherals"})

	fetcher := &stubFetcher{productPages: [][]infra.WooProduct{{wp}}}
	env := buildWooEnv(fetcher, true)

	_, err := env.svc.SyncProducts(context.Background())
	require.NoError(t, err)

	cat, err := env.categoryRepo.FindByName(context.Background(), "Peripherals")
	require.NoError(t, err)

	p, _ := env.productRepo.FindBySKU(context.Background(), "HD-001")
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, cat.ID, *p.CategoryID)

	// Re-running reuses the category instead of creating another
	_, err = env.svc.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, env.categoryRepo.categories, 1)
}

func TestSyncProducts_DraftDeactivates(t *testing.T) {
	wp := wooProduct(301, "DR-001", "Draft Item", "50")
	wp.Status = "draft"
	fetcher := &stubFetcher{productPages: [][]infra.WooProduct{{wp}}}
	env := buildWooEnv(fetcher, true)

	_, err := env.svc.SyncProducts(context.Background())
	require.NoError(t, err)

	p, _ := env.productRepo.FindBySKU(context.Background(), "DR-001")
	assert.False(t, p.Active)
}

func TestSyncProducts_NoConnection(t *testing.T) {
	env := buildWooEnv(&stubFetcher{}, false)

	_, err := env.svc.SyncProducts(context.Background())
	assert.ErrorIs(t, err, service.ErrNoConnection)
}

func TestSyncProducts_FetchFailureAborts(t *testing.T) {
	env := buildWooEnv(&stubFetcher{err: errors.New("store unreachable")}, true)

	_, err := env.svc.SyncProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, env.wooRepo.touched)
}

// ── Order sync tests ──────────────────────────────────────────────────────────

func wooOrder(id int64, email, payment string, total, tax string) infra.WooOrder {
	var o infra.WooOrder
	o.ID = id
	o.Status = "completed"
	o.Total = total
	o.TotalTax = tax
	o.PaymentMethod = payment
	o.Billing.FirstName = "Carlos"
	o.Billing.LastName = "Gómez"
	o.Billing.Email = email
	return o
}

func TestSyncOrders_ImportAndIdempotent(t *testing.T) {
	order := wooOrder(5001, "carlos@mail.test", "paypal", "1190", "190")
	order.LineItems = []infra.WooLineItem{
		{ProductID: 101, SKU: "KB-001", Quantity: 1, Price: decimal.NewFromInt(1000), Total: "1000"},
	}
	fetcher := &stubFetcher{orderPages: [][]infra.WooOrder{{order}}}
	env := buildWooEnv(fetcher, true)
	seedUser(env.userRepo, "admin@shop.test", "pw", model.RoleAdmin)
	seedProduct(env.productRepo, "Keyboard", "KB-001", 1000, 10)

	result, err := env.svc.SyncOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 0, result.Skipped)

	sale, ok := env.saleRepo.byNumber["WC-5001"]
	require.True(t, ok)
	assert.Equal(t, model.PaymentCard, sale.PaymentMethod)
	assert.Equal(t, model.SaleCompleted, sale.Status)
	// Totals come from the order's own figures: subtotal = total − tax
	assert.Equal(t, "1000", sale.Subtotal.String())
	assert.Equal(t, "190", sale.Tax.String())
	assert.True(t, sale.Discount.IsZero())
	assert.Len(t, sale.Items, 1)

	// Customer created from billing data
	c, err := env.customerRepo.FindByEmail(context.Background(), "carlos@mail.test")
	require.NoError(t, err)
	assert.Equal(t, "Carlos Gómez", c.Name)
	require.NotNil(t, sale.CustomerID)
	assert.Equal(t, c.ID, *sale.CustomerID)

	// Imported sales never touch stock or the movement trail
	p, _ := env.productRepo.FindBySKU(context.Background(), "KB-001")
	assert.Equal(t, 10, p.Stock)
	assert.Empty(t, env.movementRepo.movements)

	// Second run skips the already-imported order
	result, err = env.svc.SyncOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, env.saleRepo.sales, 1)
}

func TestSyncOrders_ExistingCustomerReused(t *testing.T) {
	order := wooOrder(5002, "ana@mail.test", "cod", "119", "19")
	fetcher := &stubFetcher{orderPages: [][]infra.WooOrder{{order}}}
	env := buildWooEnv(fetcher, true)
	seedUser(env.userRepo, "admin@shop.test", "pw", model.RoleAdmin)

	email := "ana@mail.test"
	existing := &model.Customer{ID: uuid.New(), Name: "Ana Torres", Email: &email, Active: true}
	env.customerRepo.customers[existing.ID] = existing
	env.customerRepo.byEmail[email] = existing

	_, err := env.svc.SyncOrders(context.Background())
	require.NoError(t, err)

	sale := env.saleRepo.byNumber["WC-5002"]
	require.NotNil(t, sale)
	assert.Equal(t, existing.ID, *sale.CustomerID)
	assert.Equal(t, model.PaymentCash, sale.PaymentMethod)
	assert.Len(t, env.customerRepo.customers, 1)
}

func TestSyncOrders_UnmatchedSKUDropped(t *testing.T) {
	order := wooOrder(5003, "", "bacs", "238", "38")
	order.LineItems = []infra.WooLineItem{
		{ProductID: 900, SKU: "GHOST-SKU", Quantity: 2, Price: decimal.NewFromInt(100), Total: "200"},
	}
	fetcher := &stubFetcher{orderPages: [][]infra.WooOrder{{order}}}
	env := buildWooEnv(fetcher, true)
	seedUser(env.userRepo, "admin@shop.test", "pw", model.RoleAdmin)

	result, err := env.svc.SyncOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)

	// Header imported with the gateway mapped to transfer; the unmatched
	// line is silently dropped and no customer is created without an email.
	sale := env.saleRepo.byNumber["WC-5003"]
	require.NotNil(t, sale)
	assert.Equal(t, model.PaymentTransfer, sale.PaymentMethod)
	assert.Empty(t, sale.Items)
	assert.Nil(t, sale.CustomerID)
}

func TestSyncOrders_NoAdminUser(t *testing.T) {
	fetcher := &stubFetcher{orderPages: [][]infra.WooOrder{}}
	env := buildWooEnv(fetcher, true)

	_, err := env.svc.SyncOrders(context.Background())
	assert.ErrorContains(t, err, "no admin user")
}
