package models

import (
	"time"

	"gorm.io/gorm"
)

// Feature 商品规格属性表（如颜色、尺码）
type Feature struct {
	ID           uint           `gorm:"primarykey" json:"id"`                           // 主键
	ProductID    uint           `gorm:"not null;index" json:"product_id"`               // 商品ID
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`         // 属性名称
	Type         string         `gorm:"type:varchar(20);not null" json:"type"`          // 属性类型（text/select/multi_select/numeric/file/boolean）
	Required     bool           `gorm:"default:false" json:"required"`                  // 是否必选
	MinLimit     *int           `json:"min_limit"`                                      // 下限（数值型取值下限 / 多选型最少选择数）
	MaxLimit     *int           `json:"max_limit"`                                      // 上限（数值型取值上限 / 多选型最多选择数）
	DefaultValue string         `gorm:"type:varchar(100)" json:"default_value"`         // 默认值 key（须指向已存在的取值）
	SortOrder    int            `gorm:"default:0;index" json:"sort_order"`              // 展示与求值顺序
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                     // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	// 关联
	Values []FeatureValue `gorm:"foreignKey:FeatureID" json:"values,omitempty"` // 可选取值列表
}

// TableName 指定表名
func (Feature) TableName() string {
	return "features"
}

// FindValue 在属性内按 key 查找取值
func (f *Feature) FindValue(key string) *FeatureValue {
	if f == nil {
		return nil
	}
	for i := range f.Values {
		if f.Values[i].Key == key {
			return &f.Values[i]
		}
	}
	return nil
}

// FeatureValue 规格属性取值表
type FeatureValue struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                                                 // 主键
	FeatureID       uint           `gorm:"not null;index;uniqueIndex:idx_feature_value_key" json:"feature_id"`                   // 属性ID
	Key             string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_feature_value_key" json:"key"`              // 取值 key（同属性内唯一，用于组合匹配）
	Text            string         `gorm:"type:varchar(200);not null" json:"text"`                                               // 展示文本
	AdditionalPrice Money          `gorm:"type:bigint;not null;default:0" json:"additional_price"`                               // 价格增量（可为负，最小货币单位）
	Stock           *int           `json:"stock"`                                                                                // 库存（nil 表示不限量）
	DecreasesStock  bool           `gorm:"default:false" json:"decreases_stock"`                                                 // 该取值是否占用库存
	ContinueSelling bool           `gorm:"default:false" json:"continue_selling"`                                                // 售罄后是否继续销售
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`                                                    // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                                              // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                                           // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                                       // 软删除时间
}

// TableName 指定表名
func (FeatureValue) TableName() string {
	return "feature_values"
}
