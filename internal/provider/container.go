package provider

import (
	"github.com/freshbasket/freshbasket/internal/cache"
	"github.com/freshbasket/freshbasket/internal/config"
	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/queue"
	"github.com/freshbasket/freshbasket/internal/repository"
	"github.com/freshbasket/freshbasket/internal/service"
)

// Container wires repositories and services for the HTTP server and worker.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	ProductRepo      repository.ProductRepository
	OrderRepo        repository.OrderRepository
	SlotRepo         repository.DeliverySlotRepository
	ZoneRepo         repository.DeliveryZoneRepository
	VoucherRepo      repository.VoucherRepository
	VoucherUsageRepo repository.VoucherUsageRepository

	// Services
	Gateway         service.PaymentGateway
	VoucherService  *service.VoucherService
	DeliveryService *service.DeliveryService
	OrderService    *service.OrderService
	EmailService    *service.EmailService
	CRMService      *service.CRMService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SlotRepo = repository.NewDeliverySlotRepository(db)
	c.ZoneRepo = repository.NewDeliveryZoneRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.VoucherUsageRepo = repository.NewVoucherUsageRepository(db)
}

func (c *Container) initServices() {
	c.Gateway = service.NewStripeGateway(c.Config.Payment)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.VoucherUsageRepo)
	c.DeliveryService = service.NewDeliveryService(c.ZoneRepo, c.SlotRepo)
	c.EmailService = service.NewEmailService(&c.Config.Notification.Email)
	c.CRMService = service.NewCRMService(c.Config.Notification.CRMBaseURL)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.UserRepo,
		c.ProductRepo,
		c.SlotRepo,
		c.VoucherRepo,
		c.VoucherUsageRepo,
		c.VoucherService,
		c.DeliveryService,
		c.Gateway,
		c.QueueClient,
		c.Config.Payment.Currency,
		c.Config.Order.MaxItems,
	)
}
