package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/variant-next/internal/logger"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/provider"
	"github.com/variant-next/internal/queue"
	"github.com/variant-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLowStockAlert, c.handleLowStockAlert)
	mux.HandleFunc(queue.TaskCartPurge, c.handleCartPurge)
}

// handleLowStockAlert 低库存告警落地：校验组合仍可解析并以 Warn 级别记录。
// 告警是尽力而为的通知，解析失败（商品已下架等）直接丢弃任务。
func (c *Consumer) handleLowStockAlert(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_low_stock_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LowStockAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_low_stock_unmarshal_failed", "error", err)
		return err
	}
	if payload.ProductID == 0 || payload.Signature == "" {
		logger.Debugw("worker_low_stock_skip_invalid_payload", "product_id", payload.ProductID)
		return nil
	}

	product, err := c.ProductRepo.GetByID(payload.ProductID)
	if err != nil {
		logger.Warnw("worker_low_stock_fetch_product_failed", "product_id", payload.ProductID, "error", err)
		return err
	}
	if product == nil || !product.IsActive {
		logger.Debugw("worker_low_stock_skip_product_unavailable", "product_id", payload.ProductID)
		return nil
	}

	selection := service.SelectionFromSignature(models.ParseSignature(payload.Signature))
	resolved, err := c.VariantService.Resolve(product, selection)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSelection) || errors.Is(err, service.ErrProductUnavailable) {
			logger.Debugw("worker_low_stock_skip_unresolvable", "product_id", payload.ProductID, "signature", payload.Signature)
			return nil
		}
		logger.Warnw("worker_low_stock_resolve_failed", "product_id", payload.ProductID, "signature", payload.Signature, "error", err)
		return err
	}

	logger.Warnw("low_stock_alert",
		"product_id", payload.ProductID,
		"slug", product.Slug,
		"signature", payload.Signature,
		"remaining_at_enqueue", payload.Remaining,
		"remaining_now", resolved.AvailableStock,
	)
	return nil
}

// handleCartPurge 清理过期匿名购物车
func (c *Consumer) handleCartPurge(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_cart_purge_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartPurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_purge_unmarshal_failed", "error", err)
		return err
	}
	purged, err := c.CartService.PurgeExpired(payload.BatchSize)
	if err != nil {
		logger.Warnw("worker_cart_purge_failed", "error", err)
		return err
	}
	if purged > 0 {
		logger.Infow("worker_cart_purge_done", "purged", purged)
	}
	return nil
}
