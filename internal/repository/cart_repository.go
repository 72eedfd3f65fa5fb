package repository

import (
	"errors"
	"time"

	"github.com/variant-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByToken(token string) (*models.Cart, error)
	GetByID(id uint) (*models.Cart, error)
	Create(cart *models.Cart) error
	Touch(cartID uint, expiresAt *time.Time) error
	ListLines(cartID uint) ([]models.CartLine, error)
	GetLine(cartID, productID uint, signature string) (*models.CartLine, error)
	SaveLine(line *models.CartLine) error
	DeleteLine(cartID, productID uint, signature string) error
	ClearLines(cartID uint) error
	PurgeExpired(before time.Time, limit int) (int64, error)
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetByToken 按令牌获取购物车（含行）
func (r *GormCartRepository) GetByToken(token string) (*models.Cart, error) {
	if token == "" {
		return nil, errors.New("invalid cart token")
	}
	var cart models.Cart
	err := r.db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at DESC, id ASC")
		}).
		Where("token = ?", token).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetByID 按 ID 获取购物车（含行）
func (r *GormCartRepository) GetByID(id uint) (*models.Cart, error) {
	if id == 0 {
		return nil, errors.New("invalid cart id")
	}
	var cart models.Cart
	err := r.db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at DESC, id ASC")
		}).
		First(&cart, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	if cart == nil || cart.Token == "" {
		return errors.New("invalid cart")
	}
	return r.db.Create(cart).Error
}

// Touch 续期购物车
func (r *GormCartRepository) Touch(cartID uint, expiresAt *time.Time) error {
	if cartID == 0 {
		return errors.New("invalid cart id")
	}
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if expiresAt != nil {
		updates["expires_at"] = expiresAt
	}
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(updates).Error
}

// ListLines 获取购物车行
func (r *GormCartRepository) ListLines(cartID uint) ([]models.CartLine, error) {
	if cartID == 0 {
		return nil, errors.New("invalid cart id")
	}
	var lines []models.CartLine
	if err := r.db.Where("cart_id = ?", cartID).Order("updated_at DESC, id ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// GetLine 按组合定位购物车行
func (r *GormCartRepository) GetLine(cartID, productID uint, signature string) (*models.CartLine, error) {
	if cartID == 0 || productID == 0 {
		return nil, errors.New("invalid cart line key")
	}
	var line models.CartLine
	err := r.db.
		Where("cart_id = ? AND product_id = ? AND signature = ?", cartID, productID, signature).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

// SaveLine 写入购物车行（存在则更新数量）
func (r *GormCartRepository) SaveLine(line *models.CartLine) error {
	if line == nil || line.CartID == 0 || line.ProductID == 0 {
		return errors.New("invalid cart line")
	}
	var existing models.CartLine
	err := r.db.
		Where("cart_id = ? AND product_id = ? AND signature = ?", line.CartID, line.ProductID, line.Signature).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(line).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"quantity":   line.Quantity,
		"updated_at": time.Now(),
	}
	if err := r.db.Model(&existing).Updates(updates).Error; err != nil {
		return err
	}
	line.ID = existing.ID
	return nil
}

// DeleteLine 删除购物车行
func (r *GormCartRepository) DeleteLine(cartID, productID uint, signature string) error {
	if cartID == 0 || productID == 0 {
		return errors.New("invalid cart line key")
	}
	return r.db.
		Where("cart_id = ? AND product_id = ? AND signature = ?", cartID, productID, signature).
		Delete(&models.CartLine{}).Error
}

// ClearLines 清空购物车行
func (r *GormCartRepository) ClearLines(cartID uint) error {
	if cartID == 0 {
		return errors.New("invalid cart id")
	}
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error
}

// PurgeExpired 批量清理过期匿名购物车及其行，返回清理的购物车数量
func (r *GormCartRepository) PurgeExpired(before time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 100
	}
	var cartIDs []uint
	err := r.db.Model(&models.Cart{}).
		Where("user_id = 0 AND expires_at IS NOT NULL AND expires_at < ?", before).
		Limit(limit).
		Pluck("id", &cartIDs).Error
	if err != nil {
		return 0, err
	}
	if len(cartIDs) == 0 {
		return 0, nil
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id IN ?", cartIDs).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", cartIDs).Delete(&models.Cart{}).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(cartIDs)), nil
}
