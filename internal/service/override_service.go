package service

import (
	"fmt"

	"github.com/variant-next/internal/constants"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/repository"
)

// OverrideService 组合覆盖记录维护服务（管理端）
type OverrideService struct {
	productRepo     repository.ProductRepository
	combinationRepo repository.CombinationRepository
}

// NewOverrideService 创建覆盖记录服务
func NewOverrideService(
	productRepo repository.ProductRepository,
	combinationRepo repository.CombinationRepository,
) *OverrideService {
	return &OverrideService{
		productRepo:     productRepo,
		combinationRepo: combinationRepo,
	}
}

// OverrideUpsertInput 覆盖记录写入入参
type OverrideUpsertInput struct {
	ProductID       uint             // 商品ID
	Scope           string           // group/single
	Selection       models.Selection // 目标组合
	AdditionalPrice models.Money     // 相对基础价的增量（可为负）
	Stock           *int             // nil 表示不限量
	DecreasesStock  bool
	ContinueSelling bool
}

// Upsert 写入覆盖记录。同键重复写入为最后写入者胜出，
// 目标组合须通过与购物车一致的选择校验。
func (s *OverrideService) Upsert(input OverrideUpsertInput) (*models.CombinationOverride, error) {
	if input.Scope != constants.OverrideScopeGroup && input.Scope != constants.OverrideScopeSingle {
		return nil, fmt.Errorf("%w: %q", ErrOverrideScopeInvalid, input.Scope)
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	if _, err := validateSelection(product, input.Selection); err != nil {
		return nil, err
	}
	signature := models.BuildSignature(input.Selection)
	if signature.IsEmpty() {
		return nil, fmt.Errorf("%w: empty selection", ErrInvalidSelection)
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, fmt.Errorf("%w: stock %d", ErrInvalidQuantity, *input.Stock)
	}

	override := &models.CombinationOverride{
		ProductID:       input.ProductID,
		Scope:           input.Scope,
		Signature:       signature.String(),
		AdditionalPrice: input.AdditionalPrice,
		Stock:           input.Stock,
		DecreasesStock:  input.DecreasesStock,
		ContinueSelling: input.ContinueSelling,
	}
	if err := s.combinationRepo.Upsert(override); err != nil {
		return nil, err
	}
	InvalidateOverrideCache(input.ProductID, signature)
	return override, nil
}

// List 商品的全部覆盖记录
func (s *OverrideService) List(productID uint) ([]models.CombinationOverride, error) {
	if productID == 0 {
		return nil, ErrNotFound
	}
	return s.combinationRepo.ListByProduct(productID)
}

// Remove 删除覆盖记录
func (s *OverrideService) Remove(productID uint, scope string, rawSignature string) error {
	if scope != constants.OverrideScopeGroup && scope != constants.OverrideScopeSingle {
		return fmt.Errorf("%w: %q", ErrOverrideScopeInvalid, scope)
	}
	signature := models.ParseSignature(rawSignature)
	if signature.IsEmpty() {
		return fmt.Errorf("%w: empty signature", ErrInvalidSelection)
	}
	if err := s.combinationRepo.Remove(productID, scope, signature); err != nil {
		return err
	}
	InvalidateOverrideCache(productID, signature)
	return nil
}
