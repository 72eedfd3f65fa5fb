package models

import (
	"time"
)

// CombinationOverride 组合覆盖记录表。
// 按规范化组合签名精确匹配，命中后整体取代各取值的价格增量与库存。
// scope 区分整组覆盖（group）与单属性覆盖（single），同签名时 group 优先。
type CombinationOverride struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                                                    // 主键
	ProductID       uint      `gorm:"not null;index;uniqueIndex:idx_override_product_scope_sig" json:"product_id"`             // 商品ID
	Scope           string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_override_product_scope_sig" json:"scope"`       // 作用域（group/single）
	Signature       string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_override_product_scope_sig" json:"signature"`  // 规范化组合签名
	AdditionalPrice Money     `gorm:"type:bigint;not null;default:0" json:"additional_price"`                                  // 价格增量（整体取代取值增量之和）
	Stock           *int      `json:"stock"`                                                                                   // 库存（nil 表示不限量）
	DecreasesStock  bool      `gorm:"default:true" json:"decreases_stock"`                                                     // 是否占用库存
	ContinueSelling bool      `gorm:"default:false" json:"continue_selling"`                                                   // 售罄后是否继续销售
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                                                                 // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                                                              // 更新时间
}

// TableName 指定表名
func (CombinationOverride) TableName() string {
	return "combination_overrides"
}
