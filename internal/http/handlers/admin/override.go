package admin

import (
	"errors"
	"strconv"

	"github.com/variant-next/internal/http/response"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OverrideUpsertRequest 覆盖记录写入请求
type OverrideUpsertRequest struct {
	Scope           string           `json:"scope" binding:"required"`
	Selection       models.Selection `json:"selection" binding:"required"`
	AdditionalPrice models.Money     `json:"additional_price"`
	Stock           *int             `json:"stock"` // null 表示不限量
	DecreasesStock  bool             `json:"decreases_stock"`
	ContinueSelling bool             `json:"continue_selling"`
}

// OverrideRemoveRequest 覆盖记录删除请求
type OverrideRemoveRequest struct {
	Scope     string `json:"scope" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

func productIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "product id invalid", nil)
		return 0, false
	}
	return uint(id), true
}

// ListOverrides 商品的覆盖记录列表
func (h *Handler) ListOverrides(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	overrides, err := h.OverrideService.List(productID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		respondError(c, response.CodeInternal, "override list failed", err)
		return
	}
	response.Success(c, gin.H{"items": overrides})
}

// UpsertOverride 写入覆盖记录（同键最后写入者胜出）
func (h *Handler) UpsertOverride(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	var req OverrideUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	override, err := h.OverrideService.Upsert(service.OverrideUpsertInput{
		ProductID:       productID,
		Scope:           req.Scope,
		Selection:       req.Selection,
		AdditionalPrice: req.AdditionalPrice,
		Stock:           req.Stock,
		DecreasesStock:  req.DecreasesStock,
		ContinueSelling: req.ContinueSelling,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(c, "product not found")
		case errors.Is(err, service.ErrOverrideScopeInvalid):
			respondError(c, response.CodeBadRequest, "override scope invalid", nil)
		case errors.Is(err, service.ErrInvalidSelection),
			errors.Is(err, service.ErrMissingRequiredFeature),
			errors.Is(err, service.ErrFeatureTypeInvalid):
			respondError(c, response.CodeBadRequest, "selection invalid", nil)
		case errors.Is(err, service.ErrInvalidQuantity):
			respondError(c, response.CodeBadRequest, "stock invalid", nil)
		default:
			respondError(c, response.CodeInternal, "override save failed", err)
		}
		return
	}
	response.Success(c, override)
}

// RemoveOverride 删除覆盖记录
func (h *Handler) RemoveOverride(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	var req OverrideRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.OverrideService.Remove(productID, req.Scope, req.Signature); err != nil {
		switch {
		case errors.Is(err, service.ErrOverrideScopeInvalid):
			respondError(c, response.CodeBadRequest, "override scope invalid", nil)
		case errors.Is(err, service.ErrInvalidSelection):
			respondError(c, response.CodeBadRequest, "signature invalid", nil)
		default:
			respondError(c, response.CodeInternal, "override delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
