package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/variant-next/internal/constants"
	"github.com/variant-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCombinationRepoTest(t *testing.T) (*GormCombinationRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:combination_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CombinationOverride{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewCombinationRepository(db), db
}

func stockRef(v int) *int {
	return &v
}

func TestCombinationUpsertNormalizesLegacySignature(t *testing.T) {
	repo, db := setupCombinationRepoTest(t)

	// 历史数据可能以非规范键序写入，upsert 统一归一化
	legacy := &models.CombinationOverride{
		ProductID: 1,
		Scope:     constants.OverrideScopeGroup,
		Signature: "2:xl;1:black;2:xl",
	}
	if err := repo.Upsert(legacy); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if legacy.Signature != "1:black;2:xl" {
		t.Fatalf("signature = %q, want normalized 1:black;2:xl", legacy.Signature)
	}

	again := &models.CombinationOverride{
		ProductID: 1,
		Scope:     constants.OverrideScopeGroup,
		Signature: "1:black;2:xl",
		Stock:     stockRef(7),
	}
	if err := repo.Upsert(again); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if again.ID != legacy.ID {
		t.Fatalf("normalized upsert created a new row: %d vs %d", again.ID, legacy.ID)
	}

	var count int64
	if err := db.Model(&models.CombinationOverride{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("row count = %d, want 1", count)
	}
}

func TestCombinationLookupExactMatchOnly(t *testing.T) {
	repo, _ := setupCombinationRepoTest(t)

	full := &models.CombinationOverride{
		ProductID: 1,
		Scope:     constants.OverrideScopeGroup,
		Signature: "1:black;2:xl",
	}
	if err := repo.Upsert(full); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	hit, err := repo.LookupBySignature(1, models.ParseSignature("2:xl;1:black"))
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(hit) != 1 {
		t.Fatalf("hit count = %d, want 1", len(hit))
	}

	// 子集签名不命中
	miss, err := repo.LookupBySignature(1, models.ParseSignature("2:xl"))
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(miss) != 0 {
		t.Fatalf("subset lookup hit = %d, want 0", len(miss))
	}

	empty, err := repo.LookupBySignature(1, models.ParseSignature(""))
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("empty signature hit = %d, want 0", len(empty))
	}
}

func TestCombinationReserveAndReleaseStock(t *testing.T) {
	repo, db := setupCombinationRepoTest(t)

	limited := &models.CombinationOverride{
		ProductID: 1,
		Scope:     constants.OverrideScopeGroup,
		Signature: "1:black;2:xl",
		Stock:     stockRef(2),
	}
	if err := repo.Upsert(limited); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	affected, err := repo.ReserveStock(limited.ID, 2)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	// 剩余 0，再扣减不生效
	affected, err = repo.ReserveStock(limited.ID, 1)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("overdraw affected = %d, want 0", affected)
	}

	affected, err = repo.ReleaseStock(limited.ID, 1)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("release affected = %d, want 1", affected)
	}

	var stored models.CombinationOverride
	if err := db.First(&stored, limited.ID).Error; err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if stored.Stock == nil || *stored.Stock != 1 {
		t.Fatalf("stock = %v, want 1", stored.Stock)
	}

	// 不限量记录不参与扣减
	unlimited := &models.CombinationOverride{
		ProductID: 1,
		Scope:     constants.OverrideScopeSingle,
		Signature: "1:black;2:xl",
	}
	if err := repo.Upsert(unlimited); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	affected, err = repo.ReserveStock(unlimited.ID, 1)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("unlimited reserve affected = %d, want 0", affected)
	}
}

func TestCombinationRemove(t *testing.T) {
	repo, _ := setupCombinationRepoTest(t)

	override := &models.CombinationOverride{
		ProductID: 1,
		Scope:     constants.OverrideScopeSingle,
		Signature: "1:black",
	}
	if err := repo.Upsert(override); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.Remove(1, constants.OverrideScopeSingle, models.ParseSignature("1:black")); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	remaining, err := repo.ListByProduct(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining = %d, want 0", len(remaining))
	}
}
