package worker

import (
	"context"
	"errors"
	"time"

	"github.com/variant-next/internal/config"
	"github.com/variant-next/internal/constants"
	"github.com/variant-next/internal/logger"
	"github.com/variant-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	purgeInterval time.Duration
	purgeBatch    int
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, cartCfg config.CartConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	intervalMinutes := cartCfg.PurgeIntervalMinutes
	if intervalMinutes <= 0 {
		intervalMinutes = constants.DefaultCartPurgeIntervalMins
	}
	batch := cartCfg.PurgeBatchSize
	if batch <= 0 {
		batch = constants.DefaultCartPurgeBatchSize
	}
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		purgeInterval: time.Duration(intervalMinutes) * time.Minute,
		purgeBatch:    batch,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CartService != nil {
		go s.runCartPurgeLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runCartPurgeLoop 周期清理过期匿名购物车
func (s *Service) runCartPurgeLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.CartService == nil {
		return
	}
	runOnce := func() {
		purged, err := s.consumer.CartService.PurgeExpired(s.purgeBatch)
		if err != nil {
			logger.Warnw("worker_cart_purge_loop_failed", "error", err)
			return
		}
		if purged > 0 {
			logger.Infow("worker_cart_purge_loop_done", "purged", purged)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
