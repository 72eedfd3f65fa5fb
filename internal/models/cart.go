package models

import (
	"time"

	"gorm.io/gorm"
)

// Cart 购物车表。匿名购物车以 token 标识并带过期时间，到期由后台任务清理。
type Cart struct {
	ID        uint           `gorm:"primarykey" json:"id"`                  // 主键
	Token     string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"` // 购物车令牌（uuid）
	UserID    uint           `gorm:"index;default:0" json:"user_id"`        // 用户ID（0 表示匿名）
	ExpiresAt *time.Time     `gorm:"index" json:"expires_at"`               // 过期时间（匿名购物车）
	CreatedAt time.Time      `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                            // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除时间

	// 关联
	Lines []CartLine `gorm:"foreignKey:CartID" json:"lines,omitempty"` // 购物车行
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// IsAnonymous 判断是否匿名购物车
func (c *Cart) IsAnonymous() bool {
	return c != nil && c.UserID == 0
}

// CartLine 购物车行表。由 (cart_id, product_id, signature) 唯一确定，
// 只保存数量，单价在读取时重新解析，不信任缓存价格。
// 行记录为硬删除：数量归零即物理删行，避免软删除残留命中唯一索引。
type CartLine struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                              // 主键
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_line_combination" json:"cart_id"`                     // 购物车ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_line_combination" json:"product_id"`                  // 商品ID
	Signature string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_cart_line_combination" json:"signature"` // 组合签名
	Quantity  int       `gorm:"not null" json:"quantity"`                                                          // 数量（恒 > 0，归零即删行）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                           // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                                                           // 更新时间
}

// TableName 指定表名
func (CartLine) TableName() string {
	return "cart_lines"
}
