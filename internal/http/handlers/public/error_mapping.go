package public

import (
	"errors"

	"github.com/variant-next/internal/http/response"
	"github.com/variant-next/internal/http/handlers/shared"
	"github.com/variant-next/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	shared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var variantResolveErrorRules = []mappedHandlerError{
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrInvalidSelection, code: response.CodeBadRequest, msg: "selection invalid"},
	{target: service.ErrMissingRequiredFeature, code: response.CodeBadRequest, msg: "required feature missing"},
	{target: service.ErrFeatureTypeInvalid, code: response.CodeBadRequest, msg: "feature type invalid"},
	{target: service.ErrAmbiguousOverride, code: response.CodeConflict, msg: "combination override ambiguous"},
}

var cartMutateExtraErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "quantity invalid"},
	{target: service.ErrInvalidMutateMode, code: response.CodeBadRequest, msg: "mutate mode invalid"},
}

func respondVariantResolveError(c *gin.Context, err error) {
	respondWithMappedError(c, err, variantResolveErrorRules, response.CodeInternal, "variant resolve failed")
}

func respondCartMutateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(variantResolveErrorRules, cartMutateExtraErrorRules), response.CodeInternal, "cart update failed")
}
