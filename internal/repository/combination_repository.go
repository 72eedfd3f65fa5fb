package repository

import (
	"errors"
	"time"

	"github.com/variant-next/internal/models"

	"gorm.io/gorm"
)

// CombinationRepository 组合覆盖记录数据访问接口。
// 查询一律以规范化签名做精确匹配，部分/超集匹配不命中。
type CombinationRepository interface {
	ListByProduct(productID uint) ([]models.CombinationOverride, error)
	LookupBySignature(productID uint, signature models.CombinationSignature) ([]models.CombinationOverride, error)
	Upsert(override *models.CombinationOverride) error
	Remove(productID uint, scope string, signature models.CombinationSignature) error
	ReserveStock(overrideID uint, quantity int) (int64, error)
	ReleaseStock(overrideID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) CombinationRepository
}

// GormCombinationRepository GORM 实现
type GormCombinationRepository struct {
	db *gorm.DB
}

// NewCombinationRepository 创建组合覆盖仓库
func NewCombinationRepository(db *gorm.DB) *GormCombinationRepository {
	return &GormCombinationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCombinationRepository) WithTx(tx *gorm.DB) CombinationRepository {
	if tx == nil {
		return r
	}
	return &GormCombinationRepository{db: tx}
}

// ListByProduct 按商品获取全部覆盖记录
func (r *GormCombinationRepository) ListByProduct(productID uint) ([]models.CombinationOverride, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	var overrides []models.CombinationOverride
	if err := r.db.Where("product_id = ?", productID).Order("scope ASC, id ASC").Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}

// LookupBySignature 按签名精确查找覆盖记录。
// 同一签名下 group 与 single 两条记录都可能存在，精确取舍由服务层裁决。
func (r *GormCombinationRepository) LookupBySignature(productID uint, signature models.CombinationSignature) ([]models.CombinationOverride, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	if signature.IsEmpty() {
		return nil, nil
	}
	var overrides []models.CombinationOverride
	err := r.db.
		Where("product_id = ? AND signature = ?", productID, signature.String()).
		Order("scope ASC, id ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}

// Upsert 写入覆盖记录，按 (product_id, scope, signature) 最后写入者胜出
func (r *GormCombinationRepository) Upsert(override *models.CombinationOverride) error {
	if override == nil || override.ProductID == 0 {
		return errors.New("invalid override")
	}
	sig := models.ParseSignature(override.Signature)
	if sig.IsEmpty() {
		return errors.New("invalid override signature")
	}
	override.Signature = sig.String()

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CombinationOverride
		err := tx.Where("product_id = ? AND scope = ? AND signature = ?",
			override.ProductID, override.Scope, override.Signature).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(override).Error
		}
		if err != nil {
			return err
		}
		updates := map[string]interface{}{
			"additional_price": override.AdditionalPrice,
			"stock":            override.Stock,
			"decreases_stock":  override.DecreasesStock,
			"continue_selling": override.ContinueSelling,
			"updated_at":       time.Now(),
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		override.ID = existing.ID
		return nil
	})
}

// Remove 删除覆盖记录
func (r *GormCombinationRepository) Remove(productID uint, scope string, signature models.CombinationSignature) error {
	if productID == 0 || signature.IsEmpty() {
		return errors.New("invalid override key")
	}
	return r.db.
		Where("product_id = ? AND scope = ? AND signature = ?", productID, scope, signature.String()).
		Delete(&models.CombinationOverride{}).Error
}

// ReserveStock 原子扣减覆盖记录库存：仅当剩余库存足够时成功。
// 由下单流程调用，购物车变更只做观测性校验。
func (r *GormCombinationRepository) ReserveStock(overrideID uint, quantity int) (int64, error) {
	if overrideID == 0 || quantity <= 0 {
		return 0, errors.New("invalid reserve args")
	}
	result := r.db.Model(&models.CombinationOverride{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", overrideID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	return result.RowsAffected, result.Error
}

// ReleaseStock 原子回补覆盖记录库存
func (r *GormCombinationRepository) ReleaseStock(overrideID uint, quantity int) (int64, error) {
	if overrideID == 0 || quantity <= 0 {
		return 0, errors.New("invalid release args")
	}
	result := r.db.Model(&models.CombinationOverride{}).
		Where("id = ? AND stock IS NOT NULL", overrideID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	return result.RowsAffected, result.Error
}
