package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/variant-next/internal/constants"
	"github.com/variant-next/internal/models"
	"github.com/variant-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupVariantServiceTest(t *testing.T) (*VariantService, *repository.GormProductRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:variant_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Feature{},
		&models.FeatureValue{},
		&models.CombinationOverride{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	productRepo := repository.NewProductRepository(db)
	variantSvc := NewVariantService(repository.NewCombinationRepository(db))
	return variantSvc, productRepo, db
}

type variantFixture struct {
	Product *models.Product
	Size    models.Feature
	Color   models.Feature
	Extras  models.Feature
}

// seedVariantProduct 构造基础价 10.00 的商品：
// 尺码（必选，xl +2.00 限量 3 件占库存）、颜色（必选）、附加服务（多选，最多 2 项）。
func seedVariantProduct(t *testing.T, db *gorm.DB, productRepo *repository.GormProductRepository) variantFixture {
	t.Helper()
	product := models.Product{
		Slug:      fmt.Sprintf("tee-%d", time.Now().UnixNano()),
		TitleJSON: models.JSON{"en-US": "Classic Tee"},
		BasePrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(10.00)),
		IsActive:  true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	size := models.Feature{ProductID: product.ID, Name: "size", Type: constants.FeatureTypeSelect, Required: true, SortOrder: 10}
	color := models.Feature{ProductID: product.ID, Name: "color", Type: constants.FeatureTypeSelect, Required: true, SortOrder: 20}
	extras := models.Feature{
		ProductID: product.ID,
		Name:      "extras",
		Type:      constants.FeatureTypeMultiSelect,
		MinLimit:  intRef(0),
		MaxLimit:  intRef(2),
		SortOrder: 30,
	}
	for _, feature := range []*models.Feature{&size, &color, &extras} {
		if err := db.Create(feature).Error; err != nil {
			t.Fatalf("create feature %s failed: %v", feature.Name, err)
		}
	}

	values := []models.FeatureValue{
		{FeatureID: size.ID, Key: "m", Text: "M"},
		{FeatureID: size.ID, Key: "xl", Text: "XL",
			AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(2.00)),
			Stock:           intRef(3),
			DecreasesStock:  true,
		},
		{FeatureID: color.ID, Key: "black", Text: "Black"},
		{FeatureID: color.ID, Key: "white", Text: "White"},
		{FeatureID: extras.ID, Key: "gift-wrap", Text: "Gift wrap",
			AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(1.50)),
		},
		{FeatureID: extras.ID, Key: "express", Text: "Express",
			AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.00)),
		},
	}
	for i := range values {
		if err := db.Create(&values[i]).Error; err != nil {
			t.Fatalf("create value %s failed: %v", values[i].Key, err)
		}
	}

	loaded, err := productRepo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("reloaded product missing")
	}
	return variantFixture{Product: loaded, Size: size, Color: color, Extras: extras}
}

func intRef(v int) *int {
	return &v
}

func TestResolveFallbackPricing(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	resolved, err := svc.Resolve(fx.Product, models.Selection{
		fx.Size.ID:  {"xl"},
		fx.Color.ID: {"black"},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.UnitPrice.Minor() != 1200 {
		t.Fatalf("unit price = %d, want 1200", resolved.UnitPrice.Minor())
	}
	if resolved.AvailableStock != 3 {
		t.Fatalf("stock = %d, want 3", resolved.AvailableStock)
	}
	if !resolved.DecreasesStock {
		t.Fatal("expected stock-decreasing combination")
	}
	if resolved.OverrideID != 0 {
		t.Fatalf("unexpected override hit: %d", resolved.OverrideID)
	}
}

func TestResolveFallbackAddsMultiSelectDeltas(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	resolved, err := svc.Resolve(fx.Product, models.Selection{
		fx.Size.ID:   {"m"},
		fx.Color.ID:  {"white"},
		fx.Extras.ID: {"gift-wrap", "express"},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	// 10.00 + 1.50 + 3.00
	if resolved.UnitPrice.Minor() != 1450 {
		t.Fatalf("unit price = %d, want 1450", resolved.UnitPrice.Minor())
	}
	if resolved.AvailableStock != constants.StockUnlimited {
		t.Fatalf("stock = %d, want unlimited", resolved.AvailableStock)
	}
	if resolved.DecreasesStock {
		t.Fatal("no selected value decreases stock")
	}
}

func TestResolveGroupOverrideWins(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	selection := models.Selection{fx.Size.ID: {"xl"}, fx.Color.ID: {"black"}}
	signature := models.BuildSignature(selection)

	group := models.CombinationOverride{
		ProductID:       fx.Product.ID,
		Scope:           constants.OverrideScopeGroup,
		Signature:       signature.String(),
		AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(-1.00)),
		Stock:           intRef(1),
		DecreasesStock:  true,
	}
	single := models.CombinationOverride{
		ProductID:       fx.Product.ID,
		Scope:           constants.OverrideScopeSingle,
		Signature:       signature.String(),
		AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(5.00)),
		DecreasesStock:  true,
	}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("create group override failed: %v", err)
	}
	if err := db.Create(&single).Error; err != nil {
		t.Fatalf("create single override failed: %v", err)
	}

	resolved, err := svc.Resolve(fx.Product, selection)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.OverrideID != group.ID {
		t.Fatalf("override id = %d, want group override %d", resolved.OverrideID, group.ID)
	}
	if resolved.UnitPrice.Minor() != 900 {
		t.Fatalf("unit price = %d, want 900", resolved.UnitPrice.Minor())
	}
	if resolved.AvailableStock != 1 {
		t.Fatalf("stock = %d, want 1", resolved.AvailableStock)
	}
}

func TestResolveSingleOverrideWhenNoGroup(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	selection := models.Selection{fx.Size.ID: {"m"}, fx.Color.ID: {"white"}}
	signature := models.BuildSignature(selection)
	single := models.CombinationOverride{
		ProductID:       fx.Product.ID,
		Scope:           constants.OverrideScopeSingle,
		Signature:       signature.String(),
		AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.50)),
	}
	if err := db.Create(&single).Error; err != nil {
		t.Fatalf("create single override failed: %v", err)
	}

	resolved, err := svc.Resolve(fx.Product, selection)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.OverrideID != single.ID {
		t.Fatalf("override id = %d, want %d", resolved.OverrideID, single.ID)
	}
	if resolved.UnitPrice.Minor() != 1050 {
		t.Fatalf("unit price = %d, want 1050", resolved.UnitPrice.Minor())
	}
	if resolved.AvailableStock != constants.StockUnlimited {
		t.Fatalf("stock = %d, want unlimited", resolved.AvailableStock)
	}
}

func TestResolveSignaturePermutationInvariant(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	first, err := svc.Resolve(fx.Product, models.Selection{
		fx.Size.ID:   {"m"},
		fx.Color.ID:  {"white"},
		fx.Extras.ID: {"express", "gift-wrap"},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	second, err := svc.Resolve(fx.Product, models.Selection{
		fx.Extras.ID: {"gift-wrap", "express"},
		fx.Color.ID:  {"white"},
		fx.Size.ID:   {"m"},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !first.Signature.Equal(second.Signature) {
		t.Fatalf("signatures differ: %q vs %q", first.Signature.String(), second.Signature.String())
	}
	if first.UnitPrice != second.UnitPrice {
		t.Fatalf("prices differ: %d vs %d", first.UnitPrice.Minor(), second.UnitPrice.Minor())
	}
}

func TestResolveSelectionValidation(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	cases := []struct {
		name      string
		selection models.Selection
		wantErr   error
	}{
		{
			name:      "missing required feature",
			selection: models.Selection{fx.Size.ID: {"m"}},
			wantErr:   ErrMissingRequiredFeature,
		},
		{
			name:      "foreign feature id",
			selection: models.Selection{fx.Size.ID: {"m"}, fx.Color.ID: {"white"}, 9999: {"x"}},
			wantErr:   ErrInvalidSelection,
		},
		{
			name:      "unknown value key",
			selection: models.Selection{fx.Size.ID: {"xxl"}, fx.Color.ID: {"white"}},
			wantErr:   ErrInvalidSelection,
		},
		{
			name:      "multiple keys on single select",
			selection: models.Selection{fx.Size.ID: {"m", "xl"}, fx.Color.ID: {"white"}},
			wantErr:   ErrInvalidSelection,
		},
		{
			name: "multi select over max limit",
			selection: models.Selection{
				fx.Size.ID:   {"m"},
				fx.Color.ID:  {"white"},
				fx.Extras.ID: {"gift-wrap", "express", "gift-wrap-2"},
			},
			wantErr: ErrInvalidSelection,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Resolve(fx.Product, tc.selection); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestResolveUnknownFeatureType(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	bogus := models.Feature{ProductID: fx.Product.ID, Name: "bogus", Type: "carousel", SortOrder: 5}
	if err := db.Create(&bogus).Error; err != nil {
		t.Fatalf("create feature failed: %v", err)
	}
	reloaded, err := productRepo.GetByID(fx.Product.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload product failed: %v", err)
	}

	_, err = svc.Resolve(reloaded, models.Selection{fx.Size.ID: {"m"}, fx.Color.ID: {"white"}})
	if !errors.Is(err, ErrFeatureTypeInvalid) {
		t.Fatalf("err = %v, want ErrFeatureTypeInvalid", err)
	}
}

func TestResolveInactiveProduct(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	if err := db.Model(&models.Product{}).Where("id = ?", fx.Product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	reloaded, err := productRepo.GetByID(fx.Product.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload product failed: %v", err)
	}

	if _, err := svc.Resolve(reloaded, models.Selection{fx.Size.ID: {"m"}, fx.Color.ID: {"white"}}); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("err = %v, want ErrProductUnavailable", err)
	}
	if _, err := svc.Resolve(nil, nil); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("nil product err = %v, want ErrProductUnavailable", err)
	}
}

func TestResolveNegativePriceClamped(t *testing.T) {
	svc, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	selection := models.Selection{fx.Size.ID: {"m"}, fx.Color.ID: {"black"}}
	signature := models.BuildSignature(selection)
	override := models.CombinationOverride{
		ProductID:       fx.Product.ID,
		Scope:           constants.OverrideScopeGroup,
		Signature:       signature.String(),
		AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(-15.00)),
	}
	if err := db.Create(&override).Error; err != nil {
		t.Fatalf("create override failed: %v", err)
	}

	resolved, err := svc.Resolve(fx.Product, selection)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !resolved.PriceClamped {
		t.Fatal("expected price clamp flag")
	}
	if resolved.UnitPrice.Minor() != 0 {
		t.Fatalf("unit price = %d, want 0", resolved.UnitPrice.Minor())
	}
}

// stubCombinationRepo 用于构造数据库唯一索引无法产生的同作用域重复命中。
type stubCombinationRepo struct {
	overrides []models.CombinationOverride
}

func (s *stubCombinationRepo) ListByProduct(uint) ([]models.CombinationOverride, error) {
	return s.overrides, nil
}

func (s *stubCombinationRepo) LookupBySignature(uint, models.CombinationSignature) ([]models.CombinationOverride, error) {
	return s.overrides, nil
}

func (s *stubCombinationRepo) Upsert(*models.CombinationOverride) error { return nil }

func (s *stubCombinationRepo) Remove(uint, string, models.CombinationSignature) error { return nil }

func (s *stubCombinationRepo) ReserveStock(uint, int) (int64, error) { return 0, nil }

func (s *stubCombinationRepo) ReleaseStock(uint, int) (int64, error) { return 0, nil }

func (s *stubCombinationRepo) WithTx(*gorm.DB) repository.CombinationRepository { return s }

func TestResolveAmbiguousOverride(t *testing.T) {
	_, productRepo, db := setupVariantServiceTest(t)
	fx := seedVariantProduct(t, db, productRepo)

	selection := models.Selection{fx.Size.ID: {"m"}, fx.Color.ID: {"white"}}
	signature := models.BuildSignature(selection)
	svc := NewVariantService(&stubCombinationRepo{overrides: []models.CombinationOverride{
		{ProductID: fx.Product.ID, Scope: constants.OverrideScopeGroup, Signature: signature.String()},
		{ProductID: fx.Product.ID, Scope: constants.OverrideScopeGroup, Signature: signature.String()},
	}})

	if _, err := svc.Resolve(fx.Product, selection); !errors.Is(err, ErrAmbiguousOverride) {
		t.Fatalf("err = %v, want ErrAmbiguousOverride", err)
	}
}

func TestSelectionFromSignatureRoundTrip(t *testing.T) {
	selection := models.Selection{2: {"xl"}, 7: {"black"}}
	signature := models.BuildSignature(selection)

	rebuilt := SelectionFromSignature(signature)
	if !models.BuildSignature(rebuilt).Equal(signature) {
		t.Fatalf("round trip changed signature: %q vs %q",
			models.BuildSignature(rebuilt).String(), signature.String())
	}
}
