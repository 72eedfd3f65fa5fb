package provider

import (
	"github.com/variant-next/internal/cache"
	"github.com/variant-next/internal/config"
	"github.com/variant-next/internal/logger"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/queue"
	"github.com/variant-next/internal/repository"
	"github.com/variant-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ProductRepo     repository.ProductRepository
	FeatureRepo     repository.FeatureRepository
	CombinationRepo repository.CombinationRepository
	CartRepo        repository.CartRepository

	// Services
	AuthService     *service.AuthService
	CatalogService  *service.CatalogService
	VariantService  *service.VariantService
	OverrideService *service.OverrideService
	CartService     *service.CartService
}

// NewContainer 初始化容器
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
	c.ProductRepo = repository.NewProductRepository(db)
	c.FeatureRepo = repository.NewFeatureRepository(db)
	c.CombinationRepo = repository.NewCombinationRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config.Admin)
	c.CatalogService = service.NewCatalogService(c.ProductRepo)
	c.VariantService = service.NewVariantService(c.CombinationRepo)
	c.OverrideService = service.NewOverrideService(c.ProductRepo, c.CombinationRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.VariantService, c.QueueClient, c.Config.Cart)
}
