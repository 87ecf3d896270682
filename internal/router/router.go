package router

import (
	"time"

	"novapos/internal/config"
	"novapos/internal/handler"
	"novapos/internal/infra"
	"novapos/internal/middleware"
	"novapos/internal/model"
	"novapos/internal/repository"
	"novapos/internal/service"
	"novapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, wooCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	wooRepo := repository.NewWooCommerceRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	customerSvc := service.NewCustomerService(customerRepo)
	supplierSvc := service.NewSupplierService(supplierRepo)
	inventorySvc := service.NewInventoryService(productRepo, movementRepo)
	saleSvc := service.NewSaleService(saleRepo, productRepo, customerRepo, movementRepo, dispatcher)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, supplierRepo, productRepo, movementRepo)
	wooSvc := service.NewWooCommerceService(wooRepo, productRepo, categoryRepo, customerRepo, saleRepo, userRepo, wooCB)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	salesH := handler.NewSalesHandler(saleSvc)
	purchasesH := handler.NewPurchasesHandler(purchaseSvc)
	wooH := handler.NewWooCommerceHandler(wooSvc)
	reportsH := handler.NewReportsHandler(reportRepo)
	lookupH := handler.NewLookupHandler(productRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, wooCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)

		// POS floor — any authenticated staff member
		pos := middleware.RequirePermission(func(p model.Permissions) bool { return p.UsePOS })
		v1.POST("/sales", pos, salesH.Checkout)
		v1.GET("/sales", pos, salesH.List)
		v1.GET("/sales/:id", pos, salesH.Get)
		v1.GET("/lookup/:sku", pos, lookupH.BySKU)

		// Catalog — all staff can read, manager+ can write
		v1.GET("/products", pos, productsH.List)
		v1.GET("/products/:id", pos, productsH.Get)
		v1.GET("/categories", pos, categoriesH.List)

		catalogWrite := middleware.RequirePermission(func(p model.Permissions) bool { return p.ManageProducts })
		prods := v1.Group("/products", catalogWrite)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
			prods.PATCH("/:id/reactivate", productsH.Reactivate)
		}
		cats := v1.Group("/categories", catalogWrite)
		{
			cats.POST("", categoriesH.Create)
			cats.PUT("/:id", categoriesH.Update)
			cats.DELETE("/:id", categoriesH.Deactivate)
		}

		// Stock
		stock := middleware.RequirePermission(func(p model.Permissions) bool { return p.AdjustStock })
		v1.POST("/products/:id/stock", stock, inventoryH.AdjustStock)
		inv := v1.Group("/inventory", stock)
		{
			inv.GET("/movements", inventoryH.ListMovements)
			inv.GET("/alerts", inventoryH.StockAlerts)
		}

		// CRM
		crm := middleware.RequirePermission(func(p model.Permissions) bool { return p.ManageCustomers })
		v1.GET("/customers", pos, customersH.List)
		v1.GET("/customers/:id", pos, customersH.Get)
		customers := v1.Group("/customers", crm)
		{
			customers.POST("", customersH.Create)
			customers.PUT("/:id", customersH.Update)
			customers.DELETE("/:id", customersH.Deactivate)
		}

		// Suppliers and purchasing
		suppliers := v1.Group("/suppliers", middleware.RequirePermission(func(p model.Permissions) bool { return p.ManageSuppliers }))
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.PUT("/:id", suppliersH.Update)
			suppliers.DELETE("/:id", suppliersH.Deactivate)
		}
		purchases := v1.Group("/purchases", middleware.RequirePermission(func(p model.Permissions) bool { return p.CreatePurchases }))
		{
			purchases.POST("", purchasesH.Create)
			purchases.GET("", purchasesH.List)
			purchases.GET("/:id", purchasesH.Get)
		}

		// Reports
		reports := v1.Group("/reports", middleware.RequirePermission(func(p model.Permissions) bool { return p.ViewReports }))
		{
			reports.GET("/daily-sales", reportsH.DailySales)
			reports.GET("/top-products", reportsH.TopProducts)
			reports.GET("/stock-valuation", reportsH.StockValuation)
		}

		// Staff management — admin only
		users := v1.Group("/users", middleware.RequirePermission(func(p model.Permissions) bool { return p.ManageStaff }))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}

		// WooCommerce integration — admin only
		woo := v1.Group("/woocommerce", middleware.RequirePermission(func(p model.Permissions) bool { return p.ManageWooCommerce }))
		{
			woo.GET("/connection", wooH.GetConnection)
			woo.PUT("/connection", wooH.SaveConnection)
			woo.POST("/test", wooH.TestConnection)
			woo.POST("/sync/products", wooH.SyncProducts)
			woo.POST("/sync/orders", wooH.SyncOrders)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
