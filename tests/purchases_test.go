package tests

import (
	"context"
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

type stubPurchaseRepo struct {
	purchases map[uuid.UUID]*model.Purchase
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{purchases: make(map[uuid.UUID]*model.Purchase)}
}

func (r *stubPurchaseRepo) Create(_ context.Context, _ *gorm.DB, p *model.Purchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Items {
		if p.Items[i].ID == uuid.Nil {
			p.Items[i].ID = uuid.New()
		}
		p.Items[i].PurchaseID = p.ID
	}
	r.purchases[p.ID] = p
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPurchaseRepo) List(_ context.Context, _ dto.PurchaseFilter) ([]model.Purchase, int64, error) {
	var out []model.Purchase
	for _, p := range r.purchases {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseRepository = (*stubPurchaseRepo)(nil)

type stubSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSupplierRepo) List(_ context.Context, includeInactive bool) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, s := range r.suppliers {
		if s.Active || includeInactive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSupplierRepo) Update(_ context.Context, s *model.Supplier) error {
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if s, ok := r.suppliers[id]; ok {
		s.Active = false
	}
	return nil
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func buildPurchaseSvc() (service.PurchaseService, *stubPurchaseRepo, *stubSupplierRepo, *stubProductRepo, *stubMovementRepo) {
	purchaseRepo := newStubPurchaseRepo()
	supplierRepo := newStubSupplierRepo()
	productRepo := newStubProductRepo()
	movementRepo := &stubMovementRepo{}

	svc := service.NewPurchaseService(purchaseRepo, supplierRepo, productRepo, movementRepo)
	return svc, purchaseRepo, supplierRepo, productRepo, movementRepo
}

func seedSupplier(repo *stubSupplierRepo, name string) *model.Supplier {
	s := &model.Supplier{ID: uuid.New(), Name: name, Active: true}
	repo.suppliers[s.ID] = s
	return s
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreatePurchase_StockIncrease(t *testing.T) {
	svc, purchaseRepo, supplierRepo, productRepo, movementRepo := buildPurchaseSvc()
	sup := seedSupplier(supplierRepo, "Mayorista Norte")
	p := seedProduct(productRepo, "Notebook", "NB-001", 500, 10)

	resp, err := svc.CreatePurchase(context.Background(), dto.CreatePurchaseRequest{
		SupplierID: sup.ID.String(),
		Items: []dto.PurchaseItemRequest{
			{ProductID: p.ID.String(), Quantity: 5, Price: decimal.NewFromInt(200)},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.PurchaseNumber, "PURCH-"))
	// Intake tax is 19% of the full subtotal, no discount ever
	assert.Equal(t, "1000", resp.Subtotal.String())
	assert.Equal(t, "190", resp.Tax.String())
	assert.Equal(t, "1190", resp.Total.String())

	// Stock incremented and one in-movement recorded
	assert.Equal(t, 15, p.Stock)
	require.Len(t, movementRepo.movements, 1)
	assert.Equal(t, model.MovementIn, movementRepo.movements[0].MovementType)
	assert.Equal(t, 5, movementRepo.movements[0].Quantity)
	assert.Equal(t, model.ReferencePurchase, *movementRepo.movements[0].ReferenceType)

	stored, err := purchaseRepo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	// Lines carry the agreed unit cost, not the catalog sale price
	assert.Equal(t, "200", stored.Items[0].Price.String())
}

func TestCreatePurchase_UnknownSupplier(t *testing.T) {
	svc, _, _, productRepo, _ := buildPurchaseSvc()
	p := seedProduct(productRepo, "Tablet", "TB-001", 300, 0)

	_, err := svc.CreatePurchase(context.Background(), dto.CreatePurchaseRequest{
		SupplierID: uuid.New().String(),
		Items: []dto.PurchaseItemRequest{
			{ProductID: p.ID.String(), Quantity: 1, Price: decimal.NewFromInt(100)},
		},
	})
	assert.ErrorContains(t, err, "supplier")
}

func TestCreatePurchase_UnknownProduct(t *testing.T) {
	svc, _, supplierRepo, _, movementRepo := buildPurchaseSvc()
	sup := seedSupplier(supplierRepo, "Distribuidora Sur")

	_, err := svc.CreatePurchase(context.Background(), dto.CreatePurchaseRequest{
		SupplierID: sup.ID.String(),
		Items: []dto.PurchaseItemRequest{
			{ProductID: uuid.New().String(), Quantity: 1, Price: decimal.NewFromInt(100)},
		},
	})
	require.Error(t, err)
	assert.Empty(t, movementRepo.movements)
}
