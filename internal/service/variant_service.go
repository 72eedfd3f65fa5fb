package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/variant-next/internal/cache"
	"github.com/variant-next/internal/constants"
	"github.com/variant-next/internal/logger"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/repository"
)

// overrideCacheTTL 覆盖记录缓存时长。记录读多写少，写入路径会主动失效。
const overrideCacheTTL = 30 * time.Second

// ResolvedVariant 组合解析结果
type ResolvedVariant struct {
	UnitPrice       models.Money                `json:"unit_price"`       // 单价（已含增量，不为负）
	AvailableStock  int                         `json:"available_stock"`  // 可用库存（-1 表示不限量）
	DecreasesStock  bool                        `json:"decreases_stock"`  // 该组合是否占用库存
	ContinueSelling bool                        `json:"continue_selling"` // 售罄后是否继续销售
	Signature       models.CombinationSignature `json:"-"`                // 规范化组合签名
	PriceClamped    bool                        `json:"price_clamped"`    // 价格为负被钳制到 0（数据完整性告警）
	OverrideID      uint                        `json:"-"`                // 命中的覆盖记录 ID（0 表示回退计价）
}

// VariantService 组合解析服务：校验选择、构造签名、查覆盖记录并计算价格与库存
type VariantService struct {
	combinationRepo repository.CombinationRepository
}

// NewVariantService 创建组合解析服务
func NewVariantService(combinationRepo repository.CombinationRepository) *VariantService {
	return &VariantService{combinationRepo: combinationRepo}
}

// Resolve 解析选择对应的价格与库存。
// 覆盖记录命中时整体取代各取值的增量与库存；未命中则回退为
// 基础价 + 取值增量之和，库存取占用库存取值中的最小值。
func (s *VariantService) Resolve(product *models.Product, selection models.Selection) (*ResolvedVariant, error) {
	if product == nil || product.ID == 0 || !product.IsActive {
		return nil, ErrProductUnavailable
	}
	selected, err := validateSelection(product, selection)
	if err != nil {
		return nil, err
	}

	signature := models.BuildSignature(selection)
	override, err := s.matchOverride(product.ID, signature)
	if err != nil {
		return nil, err
	}

	result := &ResolvedVariant{Signature: signature}
	if override != nil {
		result.OverrideID = override.ID
		result.UnitPrice = product.BasePrice.Add(override.AdditionalPrice)
		result.AvailableStock = stockOrUnlimited(override.Stock)
		result.DecreasesStock = override.DecreasesStock
		result.ContinueSelling = override.ContinueSelling
	} else {
		price := product.BasePrice
		stock := constants.StockUnlimited
		decreases := false
		continueSelling := true
		limited := 0
		for _, value := range selected {
			price = price.Add(value.AdditionalPrice)
			if !value.DecreasesStock {
				continue
			}
			decreases = true
			if value.Stock == nil {
				continue
			}
			limited++
			if stock == constants.StockUnlimited || *value.Stock < stock {
				stock = *value.Stock
			}
			if !value.ContinueSelling {
				continueSelling = false
			}
		}
		result.UnitPrice = price
		result.AvailableStock = stock
		result.DecreasesStock = decreases
		// 只有存在限量取值时 continue_selling 才有意义
		result.ContinueSelling = limited > 0 && continueSelling
	}

	if result.UnitPrice.IsNegative() {
		logger.Warnw("variant_price_clamped",
			"product_id", product.ID,
			"signature", signature.String(),
			"raw_price", result.UnitPrice.Minor(),
		)
		result.UnitPrice = 0
		result.PriceClamped = true
	}
	return result, nil
}

// matchOverride 按签名精确匹配覆盖记录并按作用域裁决：
// group 优先于 single；同作用域出现多条命中视为数据完整性问题。
func (s *VariantService) matchOverride(productID uint, signature models.CombinationSignature) (*models.CombinationOverride, error) {
	if signature.IsEmpty() {
		return nil, nil
	}
	candidates, err := s.lookupOverrides(productID, signature)
	if err != nil {
		return nil, err
	}

	var group, single []models.CombinationOverride
	for i := range candidates {
		switch candidates[i].Scope {
		case constants.OverrideScopeGroup:
			group = append(group, candidates[i])
		case constants.OverrideScopeSingle:
			single = append(single, candidates[i])
		}
	}
	if len(group) > 1 {
		return nil, fmt.Errorf("%w: product %d signature %s", ErrAmbiguousOverride, productID, signature.String())
	}
	if len(group) == 1 {
		return &group[0], nil
	}
	if len(single) > 1 {
		return nil, fmt.Errorf("%w: product %d signature %s", ErrAmbiguousOverride, productID, signature.String())
	}
	if len(single) == 1 {
		return &single[0], nil
	}
	return nil, nil
}

// lookupOverrides 查覆盖记录，优先走缓存（写路径通过 InvalidateOverrideCache 失效）
func (s *VariantService) lookupOverrides(productID uint, signature models.CombinationSignature) ([]models.CombinationOverride, error) {
	ctx := context.Background()
	cacheKey := overrideCacheKey(productID, signature)

	var cached []models.CombinationOverride
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	candidates, err := s.combinationRepo.LookupBySignature(productID, signature)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, cacheKey, candidates, overrideCacheTTL); err != nil {
		logger.Debugw("override_cache_set_failed", "key", cacheKey, "error", err)
	}
	return candidates, nil
}

// InvalidateOverrideCache 覆盖记录写入后的缓存失效
func InvalidateOverrideCache(productID uint, signature models.CombinationSignature) {
	if err := cache.Del(context.Background(), overrideCacheKey(productID, signature)); err != nil {
		logger.Debugw("override_cache_del_failed", "product_id", productID, "error", err)
	}
}

func overrideCacheKey(productID uint, signature models.CombinationSignature) string {
	return fmt.Sprintf("override:%d:%s", productID, signature.String())
}

// validateSelection 校验选择的归属与形状，返回选中取值列表（按属性求值顺序）。
func validateSelection(product *models.Product, selection models.Selection) ([]models.FeatureValue, error) {
	features := make(map[uint]*models.Feature, len(product.Features))
	for i := range product.Features {
		features[product.Features[i].ID] = &product.Features[i]
	}

	for featureID := range selection {
		if _, ok := features[featureID]; !ok {
			return nil, fmt.Errorf("%w: feature %d does not belong to product %d", ErrInvalidSelection, featureID, product.ID)
		}
	}

	var selected []models.FeatureValue
	for i := range product.Features {
		feature := &product.Features[i]
		if !constants.IsFeatureType(feature.Type) {
			return nil, fmt.Errorf("%w: feature %q has unknown type %q", ErrFeatureTypeInvalid, feature.Name, feature.Type)
		}

		keys := dedupeKeys(selection[feature.ID])
		if len(keys) == 0 {
			if feature.Required {
				return nil, fmt.Errorf("%w: feature %q", ErrMissingRequiredFeature, feature.Name)
			}
			continue
		}
		if feature.Type != constants.FeatureTypeMultiSelect && len(keys) > 1 {
			return nil, fmt.Errorf("%w: feature %q accepts a single value", ErrInvalidSelection, feature.Name)
		}
		if feature.Type == constants.FeatureTypeMultiSelect {
			if feature.MinLimit != nil && len(keys) < *feature.MinLimit {
				return nil, fmt.Errorf("%w: feature %q requires at least %d values", ErrInvalidSelection, feature.Name, *feature.MinLimit)
			}
			if feature.MaxLimit != nil && len(keys) > *feature.MaxLimit {
				return nil, fmt.Errorf("%w: feature %q allows at most %d values", ErrInvalidSelection, feature.Name, *feature.MaxLimit)
			}
		}
		for _, key := range keys {
			value := feature.FindValue(key)
			if value == nil {
				return nil, fmt.Errorf("%w: value %q not defined under feature %q", ErrInvalidSelection, key, feature.Name)
			}
			selected = append(selected, *value)
		}
	}
	return selected, nil
}

func dedupeKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keys))
	result := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	return result
}

// SelectionFromSignature 由持久化签名重建选择（聚合器按行重解析时使用）
func SelectionFromSignature(signature models.CombinationSignature) models.Selection {
	selection := make(models.Selection)
	for _, token := range signature.Tokens() {
		parts := strings.SplitN(token, ":", 2)
		if len(parts) != 2 {
			continue
		}
		featureID, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil || featureID == 0 {
			continue
		}
		selection[uint(featureID)] = append(selection[uint(featureID)], parts[1])
	}
	return selection
}

func stockOrUnlimited(stock *int) int {
	if stock == nil {
		return constants.StockUnlimited
	}
	if *stock < 0 {
		return 0
	}
	return *stock
}
