package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                             // 主键
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`                 // 唯一标识
	TitleJSON       JSON           `gorm:"type:json;not null" json:"title"`                  // 多语言标题
	DescriptionJSON JSON           `gorm:"type:json" json:"description"`                     // 多语言描述
	BasePrice       Money          `gorm:"type:bigint;not null;default:0" json:"base_price"` // 基础价格（最小货币单位）
	Images          StringArray    `gorm:"type:json" json:"images"`                          // 图片数组
	Tags            StringArray    `gorm:"type:json" json:"tags"`                            // 标签数组
	IsActive        bool           `gorm:"default:true;index" json:"is_active"`              // 是否上架
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`                // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间

	// 关联
	Features []Feature `gorm:"foreignKey:ProductID" json:"features,omitempty"` // 规格属性列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
