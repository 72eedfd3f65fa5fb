package constants

// 规格属性类型常量（封闭集合，未知类型一律校验失败）
const (
	FeatureTypeText        = "text"
	FeatureTypeSelect      = "select"
	FeatureTypeMultiSelect = "multi_select"
	FeatureTypeNumeric     = "numeric"
	FeatureTypeFile        = "file"
	FeatureTypeBoolean     = "boolean"
)

// 组合覆盖记录作用域常量
const (
	OverrideScopeGroup  = "group"
	OverrideScopeSingle = "single"
)

// 购物车行变更模式常量
const (
	MutateModeIncrement = "increment"
	MutateModeDecrement = "decrement"
	MutateModeSet       = "set"
	MutateModeClear     = "clear"
	MutateModeMax       = "max"
)

// StockUnlimited 库存无限量哨兵值（模型层为 nil 指针，服务边界用 -1 表达）
const StockUnlimited = -1

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskLowStockAlert = "stock:low_alert"
	TaskCartPurge     = "cart:purge_expired"
)

// 购物车默认参数
const (
	DefaultAnonymousCartTTLHours = 72
	DefaultLowStockThreshold     = 3
	DefaultCartPurgeIntervalMins = 30
	DefaultCartPurgeBatchSize    = 500
)

// CartTokenHeader 匿名购物车令牌请求头
const CartTokenHeader = "X-Cart-Token"

// IsFeatureType 判断是否为合法的属性类型
func IsFeatureType(t string) bool {
	switch t {
	case FeatureTypeText, FeatureTypeSelect, FeatureTypeMultiSelect,
		FeatureTypeNumeric, FeatureTypeFile, FeatureTypeBoolean:
		return true
	}
	return false
}

// IsMutateMode 判断是否为合法的变更模式
func IsMutateMode(mode string) bool {
	switch mode {
	case MutateModeIncrement, MutateModeDecrement, MutateModeSet,
		MutateModeClear, MutateModeMax:
		return true
	}
	return false
}
