package repository

import (
	"errors"

	"github.com/variant-next/internal/models"

	"gorm.io/gorm"
)

// FeatureRepository 规格属性数据访问接口
type FeatureRepository interface {
	ListByProduct(productID uint) ([]models.Feature, error)
	GetByID(id uint) (*models.Feature, error)
	GetValueByID(valueID uint) (*models.FeatureValue, error)
	Create(feature *models.Feature) error
	Update(feature *models.Feature) error
	DeleteByProduct(productID uint) error
	ReserveValueStock(valueID uint, quantity int) (int64, error)
	ReleaseValueStock(valueID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) FeatureRepository
}

// GormFeatureRepository GORM 实现
type GormFeatureRepository struct {
	db *gorm.DB
}

// NewFeatureRepository 创建规格属性仓库
func NewFeatureRepository(db *gorm.DB) *GormFeatureRepository {
	return &GormFeatureRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFeatureRepository) WithTx(tx *gorm.DB) FeatureRepository {
	if tx == nil {
		return r
	}
	return &GormFeatureRepository{db: tx}
}

// ListByProduct 按商品获取属性列表（含取值，按求值顺序排列）
func (r *GormFeatureRepository) ListByProduct(productID uint) ([]models.Feature, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	var features []models.Feature
	err := r.db.
		Where("product_id = ?", productID).
		Preload("Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Order("sort_order ASC, id ASC").
		Find(&features).Error
	if err != nil {
		return nil, err
	}
	return features, nil
}

// GetByID 按 ID 获取属性（含取值）
func (r *GormFeatureRepository) GetByID(id uint) (*models.Feature, error) {
	if id == 0 {
		return nil, errors.New("invalid feature id")
	}
	var feature models.Feature
	err := r.db.
		Preload("Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&feature, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &feature, nil
}

// GetValueByID 按 ID 获取属性取值
func (r *GormFeatureRepository) GetValueByID(valueID uint) (*models.FeatureValue, error) {
	if valueID == 0 {
		return nil, errors.New("invalid value id")
	}
	var value models.FeatureValue
	if err := r.db.First(&value, valueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &value, nil
}

// Create 创建属性（连带取值）
func (r *GormFeatureRepository) Create(feature *models.Feature) error {
	if feature == nil {
		return errors.New("feature is nil")
	}
	return r.db.Create(feature).Error
}

// Update 更新属性
func (r *GormFeatureRepository) Update(feature *models.Feature) error {
	if feature == nil || feature.ID == 0 {
		return errors.New("invalid feature")
	}
	return r.db.Save(feature).Error
}

// DeleteByProduct 删除商品下的全部属性与取值
func (r *GormFeatureRepository) DeleteByProduct(productID uint) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var featureIDs []uint
		if err := tx.Model(&models.Feature{}).Where("product_id = ?", productID).Pluck("id", &featureIDs).Error; err != nil {
			return err
		}
		if len(featureIDs) > 0 {
			if err := tx.Where("feature_id IN ?", featureIDs).Delete(&models.FeatureValue{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("product_id = ?", productID).Delete(&models.Feature{}).Error
	})
}

// ReserveValueStock 原子扣减取值库存：仅当剩余库存足够时成功，
// 返回受影响行数（0 表示库存不足或不限量取值）。
// 下单流程在生成订单时调用，购物车变更不会触碰它。
func (r *GormFeatureRepository) ReserveValueStock(valueID uint, quantity int) (int64, error) {
	if valueID == 0 || quantity <= 0 {
		return 0, errors.New("invalid reserve args")
	}
	result := r.db.Model(&models.FeatureValue{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", valueID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	return result.RowsAffected, result.Error
}

// ReleaseValueStock 原子回补取值库存（订单取消/超时）
func (r *GormFeatureRepository) ReleaseValueStock(valueID uint, quantity int) (int64, error) {
	if valueID == 0 || quantity <= 0 {
		return 0, errors.New("invalid release args")
	}
	result := r.db.Model(&models.FeatureValue{}).
		Where("id = ? AND stock IS NOT NULL", valueID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	return result.RowsAffected, result.Error
}
