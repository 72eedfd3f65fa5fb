package service

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/variant-next/internal/config"
	"github.com/variant-next/internal/constants"
	"github.com/variant-next/internal/logger"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/queue"
	"github.com/variant-next/internal/repository"

	"github.com/google/uuid"
)

// lineLockStripes 行级互斥锁分片数。同一 (cart, product, signature) 的并发变更
// 串行执行，读取-计算-写回不会互相覆盖。
const lineLockStripes = 64

// MutateInput 购物车行变更入参
type MutateInput struct {
	CartToken   string           // 购物车令牌，为空时创建新购物车
	UserID      uint             // 用户ID（0 表示匿名）
	ProductID   uint             // 商品ID
	Selection   models.Selection // 规格选择
	Mode        string           // increment/decrement/set/clear/max
	Value       int              // 数量参数（clear 模式忽略）
	IgnoreStock bool             // 跳过库存钳制（管理端代下单等场景）
}

// MutateResult 购物车行变更结果
type MutateResult struct {
	CartToken        string       `json:"cart_token"`
	Signature        string       `json:"signature"`
	PreviousQuantity int          `json:"previous_quantity"`
	NewQuantity      int          `json:"new_quantity"`
	Removed          bool         `json:"removed"`           // 行已删除（数量归零）
	UnitPrice        models.Money `json:"unit_price"`        // 本次解析的单价
	LineTotal        models.Money `json:"line_total"`        // 单价 × 新数量
	AvailableStock   int          `json:"available_stock"`   // 可用库存（-1 不限量）
	StockClamped     bool         `json:"stock_clamped"`     // 目标数量被库存上限钳制（非错误信号）
	PriceClamped     bool         `json:"price_clamped"`     // 单价为负被钳制到 0
}

// CartLineView 购物车行视图（读取时重新解析，单价不落库）
type CartLineView struct {
	LineID     uint         `json:"line_id"`
	ProductID  uint         `json:"product_id"`
	Slug       string       `json:"slug"`
	Signature  string       `json:"signature"`
	Quantity   int          `json:"quantity"`
	UnitPrice  models.Money `json:"unit_price"`
	LineTotal  models.Money `json:"line_total"`
	Stock      int          `json:"stock"` // 当前可用库存（-1 不限量）
	Overbought bool         `json:"overbought"` // 数量已超过当前库存（观测性提示）
}

// CartSummary 购物车聚合结果
type CartSummary struct {
	CartToken       string         `json:"cart_token"`
	Lines           []CartLineView `json:"lines"`
	Subtotal        models.Money   `json:"subtotal"`
	TotalQuantity   int            `json:"total_quantity"`
	UnresolvedLines []uint         `json:"unresolved_lines,omitempty"` // 无法解析的行ID（商品下架、取值被删等）
}

// CartService 购物车服务：行变更、聚合与匿名购物车生命周期
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	variantSvc  *VariantService
	queueClient *queue.Client
	cfg         config.CartConfig

	lineLocks [lineLockStripes]sync.Mutex
}

// NewCartService 创建购物车服务
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	variantSvc *VariantService,
	queueClient *queue.Client,
	cfg config.CartConfig,
) *CartService {
	if cfg.AnonymousTTLHours <= 0 {
		cfg.AnonymousTTLHours = constants.DefaultAnonymousCartTTLHours
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = constants.DefaultLowStockThreshold
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		variantSvc:  variantSvc,
		queueClient: queueClient,
		cfg:         cfg,
	}
}

// GetOrCreate 按令牌获取购物车；令牌为空或不存在时创建新购物车。
// 匿名购物车带过期时间，每次访问续期。
func (s *CartService) GetOrCreate(token string, userID uint) (*models.Cart, error) {
	if token != "" {
		cart, err := s.cartRepo.GetByToken(token)
		if err != nil {
			return nil, err
		}
		if cart != nil && !s.expired(cart) {
			return cart, nil
		}
	}

	expiresAt := s.anonymousExpiry()
	cart := &models.Cart{
		Token:  uuid.NewString(),
		UserID: userID,
	}
	if userID == 0 {
		cart.ExpiresAt = &expiresAt
	}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Get 按令牌获取购物车，不存在或已过期返回 ErrCartNotFound
func (s *CartService) Get(token string) (*models.Cart, error) {
	if token == "" {
		return nil, ErrCartNotFound
	}
	cart, err := s.cartRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if cart == nil || s.expired(cart) {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// Mutate 变更购物车行数量。
// 目标数量统一规约：increment/decrement 相对当前值，set 取绝对值，
// clear 归零，max 取当前值与入参的较大者；负结果钳制为 0，归零即删行。
// 库存钳制是观测性行为：目标超出库存上限时压到上限并置 StockClamped，
// 不报错，真正的扣减发生在下单流程。
func (s *CartService) Mutate(input MutateInput) (*MutateResult, error) {
	if !constants.IsMutateMode(input.Mode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMutateMode, input.Mode)
	}
	if input.Value < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, input.Value)
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductUnavailable
	}
	resolved, err := s.variantSvc.Resolve(product, input.Selection)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreate(input.CartToken, input.UserID)
	if err != nil {
		return nil, err
	}

	signature := resolved.Signature.String()
	lock := s.lineLock(cart.ID, input.ProductID, signature)
	lock.Lock()
	defer lock.Unlock()

	line, err := s.cartRepo.GetLine(cart.ID, input.ProductID, signature)
	if err != nil {
		return nil, err
	}
	current := 0
	if line != nil {
		current = line.Quantity
	}

	target := applyMutateMode(current, input.Mode, input.Value)
	if target < 0 {
		target = 0
	}

	result := &MutateResult{
		CartToken:        cart.Token,
		Signature:        signature,
		PreviousQuantity: current,
		UnitPrice:        resolved.UnitPrice,
		AvailableStock:   resolved.AvailableStock,
		PriceClamped:     resolved.PriceClamped,
	}

	ceiling := s.stockCeiling(resolved, input.IgnoreStock)
	if ceiling >= 0 && target > ceiling {
		target = ceiling
		result.StockClamped = true
	}

	if target == 0 {
		if line != nil {
			if err := s.cartRepo.DeleteLine(cart.ID, input.ProductID, signature); err != nil {
				return nil, err
			}
		}
		result.NewQuantity = 0
		result.Removed = true
	} else {
		save := &models.CartLine{
			CartID:    cart.ID,
			ProductID: input.ProductID,
			Signature: signature,
			Quantity:  target,
		}
		if err := s.cartRepo.SaveLine(save); err != nil {
			return nil, err
		}
		result.NewQuantity = target
		result.LineTotal = resolved.UnitPrice.MulQuantity(target)
	}

	s.touch(cart)
	s.maybeAlertLowStock(input.ProductID, resolved)
	return result, nil
}

// Total 聚合购物车：逐行重新解析取当前单价。无法解析的行（商品下架、
// 取值被删等）不计入小计，行ID 收集进 UnresolvedLines，并与部分聚合
// 结果一起返回 ErrProductUnavailable，调用方自行决定如何向用户呈现。
func (s *CartService) Total(token string) (*CartSummary, error) {
	cart, err := s.Get(token)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		CartToken: cart.Token,
		Lines:     make([]CartLineView, 0, len(cart.Lines)),
	}
	products := make(map[uint]*models.Product)
	for _, line := range cart.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			product, err = s.productRepo.GetByID(line.ProductID)
			if err != nil {
				return nil, err
			}
			products[line.ProductID] = product
		}
		if product == nil || !product.IsActive {
			summary.UnresolvedLines = append(summary.UnresolvedLines, line.ID)
			continue
		}

		selection := SelectionFromSignature(models.ParseSignature(line.Signature))
		resolved, err := s.variantSvc.Resolve(product, selection)
		if err != nil {
			logger.Warnw("cart_line_unresolved",
				"cart_id", cart.ID,
				"line_id", line.ID,
				"product_id", line.ProductID,
				"signature", line.Signature,
				"error", err,
			)
			summary.UnresolvedLines = append(summary.UnresolvedLines, line.ID)
			continue
		}

		view := CartLineView{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Slug:      product.Slug,
			Signature: line.Signature,
			Quantity:  line.Quantity,
			UnitPrice: resolved.UnitPrice,
			LineTotal: resolved.UnitPrice.MulQuantity(line.Quantity),
			Stock:     resolved.AvailableStock,
		}
		if resolved.DecreasesStock &&
			resolved.AvailableStock != constants.StockUnlimited &&
			line.Quantity > resolved.AvailableStock {
			view.Overbought = true
		}
		summary.Lines = append(summary.Lines, view)
		summary.Subtotal = summary.Subtotal.Add(view.LineTotal)
		summary.TotalQuantity += line.Quantity
	}

	s.touch(cart)
	if len(summary.UnresolvedLines) > 0 {
		return summary, ErrProductUnavailable
	}
	return summary, nil
}

// Clear 清空购物车
func (s *CartService) Clear(token string) error {
	cart, err := s.Get(token)
	if err != nil {
		return err
	}
	return s.cartRepo.ClearLines(cart.ID)
}

// PurgeExpired 清理过期匿名购物车，由后台任务周期调用
func (s *CartService) PurgeExpired(batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = s.cfg.PurgeBatchSize
	}
	if batchSize <= 0 {
		batchSize = constants.DefaultCartPurgeBatchSize
	}
	return s.cartRepo.PurgeExpired(time.Now(), batchSize)
}

// stockCeiling 返回钳制上限，-1 表示不钳制
func (s *CartService) stockCeiling(resolved *ResolvedVariant, ignoreStock bool) int {
	if ignoreStock || !resolved.DecreasesStock || resolved.ContinueSelling {
		return -1
	}
	if resolved.AvailableStock == constants.StockUnlimited {
		return -1
	}
	return resolved.AvailableStock
}

// maybeAlertLowStock 解析出的库存低于阈值时发低库存告警（尽力而为，不阻塞变更）
func (s *CartService) maybeAlertLowStock(productID uint, resolved *ResolvedVariant) {
	if !resolved.DecreasesStock || resolved.AvailableStock == constants.StockUnlimited {
		return
	}
	if resolved.AvailableStock > s.cfg.LowStockThreshold {
		return
	}
	err := s.queueClient.EnqueueLowStockAlert(queue.LowStockAlertPayload{
		ProductID: productID,
		Signature: resolved.Signature.String(),
		Remaining: resolved.AvailableStock,
	})
	if err != nil {
		logger.Warnw("low_stock_alert_enqueue_failed",
			"product_id", productID,
			"signature", resolved.Signature.String(),
			"error", err,
		)
	}
}

// touch 续期购物车（匿名购物车顺延过期时间）
func (s *CartService) touch(cart *models.Cart) {
	var expiresAt *time.Time
	if cart.IsAnonymous() {
		t := s.anonymousExpiry()
		expiresAt = &t
	}
	if err := s.cartRepo.Touch(cart.ID, expiresAt); err != nil {
		logger.Debugw("cart_touch_failed", "cart_id", cart.ID, "error", err)
	}
}

func (s *CartService) anonymousExpiry() time.Time {
	return time.Now().Add(time.Duration(s.cfg.AnonymousTTLHours) * time.Hour)
}

func (s *CartService) expired(cart *models.Cart) bool {
	return cart.ExpiresAt != nil && cart.ExpiresAt.Before(time.Now())
}

func (s *CartService) lineLock(cartID, productID uint, signature string) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%d:%s", cartID, productID, signature)
	return &s.lineLocks[h.Sum32()%lineLockStripes]
}

func applyMutateMode(current int, mode string, value int) int {
	switch mode {
	case constants.MutateModeIncrement:
		return current + value
	case constants.MutateModeDecrement:
		return current - value
	case constants.MutateModeSet:
		return value
	case constants.MutateModeClear:
		return 0
	case constants.MutateModeMax:
		if value > current {
			return value
		}
		return current
	}
	return current
}
