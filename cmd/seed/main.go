package main

import (
	"fmt"

	"github.com/variant-next/internal/config"
	"github.com/variant-next/internal/constants"
	"github.com/variant-next/internal/logger"
	"github.com/variant-next/internal/models"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int {
	return &v
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示商品：带可配置规格的 T 恤
	tshirt := models.Product{
		Slug: "classic-tee",
		TitleJSON: models.JSON(map[string]interface{}{
			"zh-CN": "经典纯棉 T 恤",
			"en-US": "Classic Cotton Tee",
		}),
		DescriptionJSON: models.JSON(map[string]interface{}{
			"zh-CN": "多色多码可选，支持定制印字",
			"en-US": "Multiple colors and sizes, custom print supported",
		}),
		BasePrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(10.00)),
		Images: models.StringArray([]string{
			"https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800",
		}),
		Tags:     models.StringArray([]string{"Apparel", "Tee"}),
		IsActive: true,
	}
	product := upsertProduct(stdLog, tshirt)
	if product == nil {
		stdLog.Fatalf("Failed to seed product %s", tshirt.Slug)
	}

	// 规格属性与取值
	size := upsertFeature(stdLog, models.Feature{
		ProductID: product.ID,
		Name:      "尺码",
		Type:      constants.FeatureTypeSelect,
		Required:  true,
		SortOrder: 10,
	})
	if size != nil {
		upsertValue(stdLog, models.FeatureValue{FeatureID: size.ID, Key: "s", Text: "S", SortOrder: 10})
		upsertValue(stdLog, models.FeatureValue{FeatureID: size.ID, Key: "m", Text: "M", SortOrder: 20})
		upsertValue(stdLog, models.FeatureValue{FeatureID: size.ID, Key: "l", Text: "L", SortOrder: 30})
		upsertValue(stdLog, models.FeatureValue{
			FeatureID:       size.ID,
			Key:             "xl",
			Text:            "XL",
			AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(2.00)),
			Stock:           intPtr(3),
			DecreasesStock:  true,
			SortOrder:       40,
		})
	}

	color := upsertFeature(stdLog, models.Feature{
		ProductID: product.ID,
		Name:      "颜色",
		Type:      constants.FeatureTypeSelect,
		Required:  true,
		SortOrder: 20,
	})
	if color != nil {
		upsertValue(stdLog, models.FeatureValue{FeatureID: color.ID, Key: "black", Text: "黑色", SortOrder: 10})
		upsertValue(stdLog, models.FeatureValue{FeatureID: color.ID, Key: "white", Text: "白色", SortOrder: 20})
	}

	upsertFeature(stdLog, models.Feature{
		ProductID: product.ID,
		Name:      "定制印字",
		Type:      constants.FeatureTypeText,
		SortOrder: 30,
	})

	extras := upsertFeature(stdLog, models.Feature{
		ProductID: product.ID,
		Name:      "附加服务",
		Type:      constants.FeatureTypeMultiSelect,
		MinLimit:  intPtr(0),
		MaxLimit:  intPtr(2),
		SortOrder: 40,
	})
	if extras != nil {
		upsertValue(stdLog, models.FeatureValue{
			FeatureID:       extras.ID,
			Key:             "gift-wrap",
			Text:            "礼品包装",
			AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(1.50)),
			SortOrder:       10,
		})
		upsertValue(stdLog, models.FeatureValue{
			FeatureID:       extras.ID,
			Key:             "express",
			Text:            "加急制作",
			AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.00)),
			SortOrder:       20,
		})
	}

	// 组合覆盖记录：黑色 XL 特价限量
	if size != nil && color != nil {
		selection := models.Selection{
			size.ID:  {"xl"},
			color.ID: {"black"},
		}
		signature := models.BuildSignature(selection)
		upsertOverride(stdLog, models.CombinationOverride{
			ProductID:       product.ID,
			Scope:           constants.OverrideScopeGroup,
			Signature:       signature.String(),
			AdditionalPrice: models.NewMoneyFromDecimal(decimal.NewFromFloat(-1.00)),
			Stock:           intPtr(1),
			DecreasesStock:  true,
		})
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 1 Product (classic-tee)")
	fmt.Println("- 4 Features (select x2, text, multi_select)")
	fmt.Println("- 8 Feature values")
	fmt.Println("- 1 Combination override (group scope)")
}

func upsertProduct(stdLog interface{ Printf(string, ...interface{}) }, product models.Product) *models.Product {
	var existing models.Product
	if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			return nil
		}
		stdLog.Printf("Created product: %s", product.Slug)
		return &product
	}
	existing.TitleJSON = product.TitleJSON
	existing.DescriptionJSON = product.DescriptionJSON
	existing.BasePrice = product.BasePrice
	existing.Images = product.Images
	existing.Tags = product.Tags
	existing.IsActive = product.IsActive
	if err := models.DB.Save(&existing).Error; err != nil {
		stdLog.Printf("Failed to update product %s: %v", product.Slug, err)
		return nil
	}
	stdLog.Printf("Updated product: %s", product.Slug)
	return &existing
}

func upsertFeature(stdLog interface{ Printf(string, ...interface{}) }, feature models.Feature) *models.Feature {
	var existing models.Feature
	err := models.DB.Where("product_id = ? AND name = ?", feature.ProductID, feature.Name).First(&existing).Error
	if err != nil {
		if err := models.DB.Create(&feature).Error; err != nil {
			stdLog.Printf("Failed to create feature %s: %v", feature.Name, err)
			return nil
		}
		stdLog.Printf("Created feature: %s", feature.Name)
		return &feature
	}
	existing.Type = feature.Type
	existing.Required = feature.Required
	existing.MinLimit = feature.MinLimit
	existing.MaxLimit = feature.MaxLimit
	existing.SortOrder = feature.SortOrder
	if err := models.DB.Save(&existing).Error; err != nil {
		stdLog.Printf("Failed to update feature %s: %v", feature.Name, err)
		return nil
	}
	stdLog.Printf("Updated feature: %s", feature.Name)
	return &existing
}

func upsertValue(stdLog interface{ Printf(string, ...interface{}) }, value models.FeatureValue) {
	var existing models.FeatureValue
	err := models.DB.Where("feature_id = ? AND key = ?", value.FeatureID, value.Key).First(&existing).Error
	if err != nil {
		if err := models.DB.Create(&value).Error; err != nil {
			stdLog.Printf("Failed to create value %s: %v", value.Key, err)
			return
		}
		stdLog.Printf("Created value: %s", value.Key)
		return
	}
	existing.Text = value.Text
	existing.AdditionalPrice = value.AdditionalPrice
	existing.Stock = value.Stock
	existing.DecreasesStock = value.DecreasesStock
	existing.ContinueSelling = value.ContinueSelling
	existing.SortOrder = value.SortOrder
	if err := models.DB.Save(&existing).Error; err != nil {
		stdLog.Printf("Failed to update value %s: %v", value.Key, err)
		return
	}
	stdLog.Printf("Updated value: %s", value.Key)
}

func upsertOverride(stdLog interface{ Printf(string, ...interface{}) }, override models.CombinationOverride) {
	var existing models.CombinationOverride
	err := models.DB.
		Where("product_id = ? AND scope = ? AND signature = ?", override.ProductID, override.Scope, override.Signature).
		First(&existing).Error
	if err != nil {
		if err := models.DB.Create(&override).Error; err != nil {
			stdLog.Printf("Failed to create override %s: %v", override.Signature, err)
			return
		}
		stdLog.Printf("Created override: %s", override.Signature)
		return
	}
	existing.AdditionalPrice = override.AdditionalPrice
	existing.Stock = override.Stock
	existing.DecreasesStock = override.DecreasesStock
	existing.ContinueSelling = override.ContinueSelling
	if err := models.DB.Save(&existing).Error; err != nil {
		stdLog.Printf("Failed to update override %s: %v", override.Signature, err)
		return
	}
	stdLog.Printf("Updated override: %s", override.Signature)
}
