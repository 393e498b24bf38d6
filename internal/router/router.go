package router

import (
	"net/http"

	"pos_backoffice/internal/config"
	"pos_backoffice/internal/handlers"
	"pos_backoffice/internal/middleware"
	"pos_backoffice/internal/pricing"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/internal/services"
	"pos_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth      services.AuthService
	Products  services.ProductService
	Inventory services.InventoryService
	Orders    services.OrderService
	Shifts    services.ShiftService
	Days      services.DayService
	Reports   services.ReportService
	Customers services.CustomerService
	Tables    services.TableService
	Settings  services.SettingService
}

// NewServices wires every service to one store. A nil notifier disables
// status notifications for web orders.
func NewServices(store repositories.Store, tokens *utils.TokenIssuer, cfg *config.Config, notifier services.StatusNotifier) Services {
	defaults := pricing.Policy{ServiceChargeRate: cfg.ServiceChargeRate, TaxRate: cfg.TaxRate}
	return Services{
		Auth:      services.NewAuthService(store, tokens),
		Products:  services.NewProductService(store),
		Inventory: services.NewInventoryService(store, cfg.StockPolicy),
		Orders:    services.NewOrderService(store, defaults, cfg.StockPolicy, notifier),
		Shifts:    services.NewShiftService(store, cfg.TransferWebOrders),
		Days:      services.NewDayService(store),
		Reports:   services.NewReportService(store),
		Customers: services.NewCustomerService(store),
		Tables:    services.NewTableService(store),
		Settings:  services.NewSettingService(store),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc Services, tokens *utils.TokenIssuer) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	productHandler := handlers.NewProductHandler(svc.Products)
	inventoryHandler := handlers.NewInventoryHandler(svc.Inventory)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	shiftHandler := handlers.NewShiftHandler(svc.Shifts)
	dayHandler := handlers.NewDayHandler(svc.Days)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	customerHandler := handlers.NewCustomerHandler(svc.Customers)
	tableHandler := handlers.NewTableHandler(svc.Tables)
	settingHandler := handlers.NewSettingHandler(svc.Settings)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")
	apiV1.POST("/auth/login", authHandler.LoginUser)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		SetupAuthRoutes(authenticated, authHandler)
		SetupDayRoutes(authenticated, dayHandler)
		SetupShiftRoutes(authenticated, shiftHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupExternalOrderRoutes(authenticated, orderHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
		SetupTableRoutes(authenticated, tableHandler)
		SetupSettingsRoutes(authenticated, settingHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}
