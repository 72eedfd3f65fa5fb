package public

import (
	"errors"

	"github.com/variant-next/internal/http/handlers/shared"
	"github.com/variant-next/internal/http/response"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductListItem 商品列表项
type ProductListItem struct {
	ID        uint               `json:"id"`
	Slug      string             `json:"slug"`
	Title     models.JSON        `json:"title"`
	BasePrice models.Money       `json:"base_price"`
	Images    models.StringArray `json:"images"`
	Tags      models.StringArray `json:"tags"`
}

// GetProducts 商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	var query struct {
		Page     int    `form:"page"`
		PageSize int    `form:"page_size"`
		Search   string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	page, pageSize := shared.NormalizePagination(query.Page, query.PageSize)

	products, total, err := h.CatalogService.List(service.ProductListInput{
		Page:     page,
		PageSize: pageSize,
		Search:   query.Search,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}

	items := make([]ProductListItem, 0, len(products))
	for _, p := range products {
		items = append(items, ProductListItem{
			ID:        p.ID,
			Slug:      p.Slug,
			Title:     p.TitleJSON,
			BasePrice: p.BasePrice,
			Images:    p.Images,
			Tags:      p.Tags,
		})
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, items, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetProductBySlug 商品详情（含规格属性与取值）
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.CatalogService.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.Success(c, product)
}

// ResolveVariant 解析规格组合的价格与库存（下单前预览）
func (h *Handler) ResolveVariant(c *gin.Context) {
	var req struct {
		Selection models.Selection `json:"selection" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.CatalogService.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	resolved, err := h.VariantService.Resolve(product, req.Selection)
	if err != nil {
		respondVariantResolveError(c, err)
		return
	}
	response.Success(c, gin.H{
		"signature":        resolved.Signature.String(),
		"unit_price":       resolved.UnitPrice,
		"available_stock":  resolved.AvailableStock,
		"decreases_stock":  resolved.DecreasesStock,
		"continue_selling": resolved.ContinueSelling,
		"price_clamped":    resolved.PriceClamped,
	})
}
