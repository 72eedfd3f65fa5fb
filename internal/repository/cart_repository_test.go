package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/variant-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartRepoTest(t *testing.T) (*GormCartRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Cart{}, &models.CartLine{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewCartRepository(db), db
}

func TestCartSaveLineUpserts(t *testing.T) {
	repo, db := setupCartRepoTest(t)

	cart := &models.Cart{Token: "save-line-token"}
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}

	line := &models.CartLine{CartID: cart.ID, ProductID: 1, Signature: "1:m;2:black", Quantity: 2}
	if err := repo.SaveLine(line); err != nil {
		t.Fatalf("save line failed: %v", err)
	}

	update := &models.CartLine{CartID: cart.ID, ProductID: 1, Signature: "1:m;2:black", Quantity: 5}
	if err := repo.SaveLine(update); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if update.ID != line.ID {
		t.Fatalf("same combination created a new row: %d vs %d", update.ID, line.ID)
	}

	var count int64
	if err := db.Model(&models.CartLine{}).Where("cart_id = ?", cart.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("line count = %d, want 1", count)
	}

	stored, err := repo.GetLine(cart.ID, 1, "1:m;2:black")
	if err != nil {
		t.Fatalf("get line failed: %v", err)
	}
	if stored == nil || stored.Quantity != 5 {
		t.Fatalf("stored = %+v, want quantity 5", stored)
	}

	// 不同签名是另一行
	other := &models.CartLine{CartID: cart.ID, ProductID: 1, Signature: "1:m;2:white", Quantity: 1}
	if err := repo.SaveLine(other); err != nil {
		t.Fatalf("save other line failed: %v", err)
	}
	if other.ID == line.ID {
		t.Fatal("different signature should create a separate row")
	}
}

func TestCartDeleteAndClearLines(t *testing.T) {
	repo, db := setupCartRepoTest(t)

	cart := &models.Cart{Token: "clear-token"}
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	for i, sig := range []string{"1:s", "1:m", "1:l"} {
		line := &models.CartLine{CartID: cart.ID, ProductID: 1, Signature: sig, Quantity: i + 1}
		if err := repo.SaveLine(line); err != nil {
			t.Fatalf("save line %s failed: %v", sig, err)
		}
	}

	if err := repo.DeleteLine(cart.ID, 1, "1:m"); err != nil {
		t.Fatalf("delete line failed: %v", err)
	}
	lines, err := repo.ListLines(cart.ID)
	if err != nil {
		t.Fatalf("list lines failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}

	if err := repo.ClearLines(cart.ID); err != nil {
		t.Fatalf("clear lines failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.CartLine{}).Where("cart_id = ?", cart.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("line count = %d, want 0", count)
	}
}

func TestCartPurgeExpiredKeepsLiveAndUserCarts(t *testing.T) {
	repo, db := setupCartRepoTest(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	staleAnon := &models.Cart{Token: "stale-anon", ExpiresAt: &past}
	liveAnon := &models.Cart{Token: "live-anon", ExpiresAt: &future}
	userCart := &models.Cart{Token: "user-cart", UserID: 42, ExpiresAt: &past}
	for _, cart := range []*models.Cart{staleAnon, liveAnon, userCart} {
		if err := repo.Create(cart); err != nil {
			t.Fatalf("create cart %s failed: %v", cart.Token, err)
		}
	}
	staleLine := &models.CartLine{CartID: staleAnon.ID, ProductID: 1, Signature: "1:m", Quantity: 1}
	if err := repo.SaveLine(staleLine); err != nil {
		t.Fatalf("save stale line failed: %v", err)
	}

	purged, err := repo.PurgeExpired(time.Now(), 100)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}

	if cart, err := repo.GetByToken("stale-anon"); err != nil || cart != nil {
		t.Fatalf("stale cart = %+v err = %v, want hard-deleted", cart, err)
	}
	if cart, err := repo.GetByToken("live-anon"); err != nil || cart == nil {
		t.Fatalf("live cart missing: %v", err)
	}
	// 用户购物车不因过期时间被清理
	if cart, err := repo.GetByToken("user-cart"); err != nil || cart == nil {
		t.Fatalf("user cart missing: %v", err)
	}

	var lineCount int64
	if err := db.Model(&models.CartLine{}).Where("cart_id = ?", staleAnon.ID).Count(&lineCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if lineCount != 0 {
		t.Fatalf("stale line count = %d, want 0", lineCount)
	}
}

func TestCartTouchExtendsExpiry(t *testing.T) {
	repo, _ := setupCartRepoTest(t)

	soon := time.Now().Add(time.Minute)
	cart := &models.Cart{Token: "touch-token", ExpiresAt: &soon}
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}

	later := time.Now().Add(2 * time.Hour)
	if err := repo.Touch(cart.ID, &later); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	reloaded, err := repo.GetByID(cart.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.ExpiresAt == nil || !reloaded.ExpiresAt.After(time.Now().Add(time.Hour)) {
		t.Fatalf("expires_at = %v, want pushed past one hour", reloaded.ExpiresAt)
	}
}
