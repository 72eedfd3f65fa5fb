package service

import "errors"

// 业务哨兵错误，handler 层通过 errors.Is 映射为接口错误码。
// 携带上下文（具体属性/取值）的错误用 fmt.Errorf("%w: ...") 包装哨兵，
// 既可精确匹配又能向调用方指明出错字段。
var (
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("resource not found")
	// ErrProductUnavailable 商品不可用（下架或已删除）
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrInvalidSelection 选择引用了不存在的属性或取值
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrMissingRequiredFeature 必选属性缺失
	ErrMissingRequiredFeature = errors.New("missing required feature")
	// ErrFeatureTypeInvalid 属性类型不在封闭集合内
	ErrFeatureTypeInvalid = errors.New("feature type invalid")
	// ErrAmbiguousOverride 同一签名命中多条同级覆盖记录（数据完整性问题，直接暴露）
	ErrAmbiguousOverride = errors.New("ambiguous combination override")
	// ErrInvalidQuantity 数量参数非法（负数）
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidMutateMode 变更模式非法
	ErrInvalidMutateMode = errors.New("invalid mutate mode")
	// ErrOverrideScopeInvalid 覆盖记录作用域非法
	ErrOverrideScopeInvalid = errors.New("invalid override scope")
	// ErrCartNotFound 购物车不存在
	ErrCartNotFound = errors.New("cart not found")
	// ErrInvalidCredentials 管理端凭据错误
	ErrInvalidCredentials = errors.New("invalid credentials")
)
