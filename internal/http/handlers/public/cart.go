package public

import (
	"errors"

	"github.com/variant-next/internal/http/handlers/shared"
	"github.com/variant-next/internal/http/response"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MutateCartLineRequest 购物车行变更请求
type MutateCartLineRequest struct {
	ProductID uint             `json:"product_id" binding:"required"`
	Selection models.Selection `json:"selection"`
	Mode      string           `json:"mode" binding:"required"`
	Value     int              `json:"value"`
}

// MutateCartLine 变更购物车行数量。
// 请求未携带令牌时创建新购物车，令牌通过响应头返回。
func (h *Handler) MutateCartLine(c *gin.Context) {
	var req MutateCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.CartService.Mutate(service.MutateInput{
		CartToken: shared.CartToken(c),
		ProductID: req.ProductID,
		Selection: req.Selection,
		Mode:      req.Mode,
		Value:     req.Value,
	})
	if err != nil {
		respondCartMutateError(c, err)
		return
	}

	shared.SetCartToken(c, result.CartToken)
	response.Success(c, result)
}

// GetCart 购物车聚合视图。含失效行时仍返回部分聚合结果，
// 由 409 状态码提示调用方处理 unresolved_lines。
func (h *Handler) GetCart(c *gin.Context) {
	summary, err := h.CartService.Total(shared.CartToken(c))
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			response.NotFound(c, "cart not found")
			return
		}
		if errors.Is(err, service.ErrProductUnavailable) && summary != nil {
			shared.SetCartToken(c, summary.CartToken)
			response.ErrorWithData(c, response.CodeConflict, "cart contains unavailable lines", summary)
			return
		}
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	shared.SetCartToken(c, summary.CartToken)
	response.Success(c, summary)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	err := h.CartService.Clear(shared.CartToken(c))
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			response.NotFound(c, "cart not found")
			return
		}
		respondError(c, response.CodeInternal, "cart clear failed", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
