package queue

import (
	"encoding/json"

	"github.com/variant-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLowStockAlert 低库存告警任务
	TaskLowStockAlert = constants.TaskLowStockAlert
	// TaskCartPurge 过期购物车清理任务
	TaskCartPurge = constants.TaskCartPurge
)

// LowStockAlertPayload 低库存告警任务载荷
type LowStockAlertPayload struct {
	ProductID uint   `json:"product_id"`
	Signature string `json:"signature"`
	Remaining int    `json:"remaining"`
}

// CartPurgePayload 过期购物车清理任务载荷
type CartPurgePayload struct {
	BatchSize int `json:"batch_size"`
}

// NewLowStockAlertTask 创建低库存告警任务
func NewLowStockAlertTask(payload LowStockAlertPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockAlert, body), nil
}

// NewCartPurgeTask 创建过期购物车清理任务
func NewCartPurgeTask(payload CartPurgePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartPurge, body), nil
}
