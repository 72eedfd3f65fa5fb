package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money 统一金额类型：以最小货币单位（分）存储的带符号整数。
// 所有价格运算都在整数上进行，decimal 仅用于解析和展示。
type Money int64

// moneyExponent 展示精度（分 -> 元保留 2 位小数）
const moneyExponent = 2

// NewMoneyFromDecimal 从 decimal 金额（元）创建
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money(amount.Shift(moneyExponent).Round(0).IntPart())
}

// NewMoneyFromMinor 从最小货币单位整数创建
func NewMoneyFromMinor(minor int64) Money {
	return Money(minor)
}

// Minor 返回最小货币单位整数值
func (m Money) Minor() int64 {
	return int64(m)
}

// Decimal 返回 decimal 表示（元）
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -moneyExponent)
}

// Add 金额相加
func (m Money) Add(other Money) Money {
	return m + other
}

// MulQuantity 金额乘以数量
func (m Money) MulQuantity(quantity int) Money {
	return m * Money(quantity)
}

// IsNegative 金额是否为负
func (m Money) IsNegative() bool {
	return m < 0
}

// MarshalJSON 统一输出 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal().StringFixed(moneyExponent))
}

// UnmarshalJSON 解析金额（字符串或数字，单位为元）
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		*m = NewMoneyFromDecimal(d)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(decimal.NewFromFloat(f))
	return nil
}

// Value 用于数据库写入（整数列）
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = 0
		return nil
	case int64:
		*m = Money(v)
		return nil
	case int:
		*m = Money(v)
		return nil
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return err
		}
		*m = Money(d.IntPart())
		return nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		*m = Money(d.IntPart())
		return nil
	default:
		return fmt.Errorf("unsupported money column type %T", value)
	}
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal().StringFixed(moneyExponent)
}
