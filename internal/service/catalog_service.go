package service

import (
	"strings"

	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/repository"
)

// CatalogService 商品目录读取服务
type CatalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

// ProductListInput 商品列表入参
type ProductListInput struct {
	Page     int
	PageSize int
	Search   string
}

// List 上架商品列表（不含规格，详情页再取）
func (s *CatalogService) List(input ProductListInput) ([]models.Product, int64, error) {
	return s.productRepo.List(repository.ProductListFilter{
		Page:       input.Page,
		PageSize:   input.PageSize,
		Search:     strings.TrimSpace(input.Search),
		OnlyActive: true,
	})
}

// GetBySlug 商品详情（含规格属性与取值）
func (s *CatalogService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}
