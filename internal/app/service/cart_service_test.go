package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Pood16/REST-API-V1/config"
	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/internal/app/repository"
	"github.com/Pood16/REST-API-V1/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testCartConfig() config.CartConfig {
	return config.CartConfig{
		ShippingFee:     2,
		TaxRate:         0.1,
		DiscountPercent: 0,
		GuestRetention:  48 * time.Hour,
	}
}

func setupCartServiceTest(t *testing.T) (CartService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := NewCartService(cartRepo, productRepo, testDB, testCartConfig())
	t.Cleanup(cartService.StopCleanupTimers)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	category := &model.Category{Name: "PC Games", Slug: "pc-games"}
	require.NoError(t, testDB.Create(category).Error)

	product := &model.Product{
		Name:       "Test Game",
		Slug:       "test-game",
		Price:      10.00,
		Stock:      10,
		CategoryID: category.ID,
	}
	require.NoError(t, testDB.Create(product).Error)

	return cartService, user, product, testDB
}

func TestCartService_GetCart_Empty(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	view, err := cartService.GetCart(model.UserIdentity(user.ID))
	assert.NoError(t, err)
	assert.Len(t, view.Items, 0)
	assert.Equal(t, 0.0, view.Totals.Subtotal)
}

func TestCartService_GetCart_NoIdentity(t *testing.T) {
	cartService, _, _, _ := setupCartServiceTest(t)

	// Anonymous caller without a session token has an empty cart
	view, err := cartService.GetCart(model.CartIdentity{})
	assert.NoError(t, err)
	assert.Len(t, view.Items, 0)
}

func TestCartService_AddToCart_Success(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	line, identity, err := cartService.AddToCart(model.UserIdentity(user.ID), product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
	assert.False(t, identity.IsGuest())

	view, err := cartService.GetCart(identity)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, 30.0, view.Totals.Subtotal)
}

func TestCartService_AddToCart_MintsGuestSession(t *testing.T) {
	cartService, _, product, _ := setupCartServiceTest(t)

	line, identity, err := cartService.AddToCart(model.CartIdentity{}, product.ID, 1)
	require.NoError(t, err)
	assert.True(t, identity.IsGuest())

	token, ok := identity.SessionToken()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(token, "cart_"))
	require.NotNil(t, line.SessionID)
	assert.Equal(t, token, *line.SessionID)
	assert.Nil(t, line.UserID)
}

func TestCartService_AddToCart_ReusesGuestSession(t *testing.T) {
	cartService, _, product, _ := setupCartServiceTest(t)

	_, identity, err := cartService.AddToCart(model.CartIdentity{}, product.ID, 1)
	require.NoError(t, err)

	// The same session keeps using the same cart
	_, same, err := cartService.AddToCart(identity, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, identity, same)

	view, err := cartService.GetCart(identity)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestCartService_AddToCart_AccumulatesSingleLine(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	identity := model.UserIdentity(user.ID)

	_, _, err := cartService.AddToCart(identity, product.ID, 2)
	require.NoError(t, err)
	_, _, err = cartService.AddToCart(identity, product.ID, 3)
	require.NoError(t, err)

	view, err := cartService.GetCart(identity)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestCartService_AddToCart_ProductNotFound(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	_, _, err := cartService.AddToCart(model.UserIdentity(user.ID), 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddToCart_InvalidQuantity(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	_, _, err := cartService.AddToCart(model.UserIdentity(user.ID), product.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_AddToCart_InsufficientStock(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	identity := model.UserIdentity(user.ID)

	_, _, err := cartService.AddToCart(identity, product.ID, 4)
	require.NoError(t, err)

	// 4 in cart + 7 requested > 10 in stock
	_, _, err = cartService.AddToCart(identity, product.ID, 7)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Failed add must not touch the existing line
	view, err := cartService.GetCart(identity)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)
}

func TestCartService_UpdateCartItem_RoundTrip(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	identity := model.UserIdentity(user.ID)

	_, _, err := cartService.AddToCart(identity, product.ID, 2)
	require.NoError(t, err)

	line, err := cartService.UpdateCartItem(identity, product.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)

	view, err := cartService.GetCart(identity)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 7, view.Items[0].Quantity)
}

func TestCartService_UpdateCartItem_MissingIdentity(t *testing.T) {
	cartService, _, product, _ := setupCartServiceTest(t)

	_, err := cartService.UpdateCartItem(model.CartIdentity{}, product.ID, 2)
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestCartService_UpdateCartItem_NotFound(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	_, err := cartService.UpdateCartItem(model.UserIdentity(user.ID), product.ID, 2)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_UpdateCartItem_InsufficientStock(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	identity := model.UserIdentity(user.ID)

	_, _, err := cartService.AddToCart(identity, product.ID, 2)
	require.NoError(t, err)

	_, err = cartService.UpdateCartItem(identity, product.ID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartService_RemoveFromCart_Success(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	identity := model.UserIdentity(user.ID)

	line, _, err := cartService.AddToCart(identity, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, cartService.RemoveFromCart(identity, line.ID))

	view, err := cartService.GetCart(identity)
	require.NoError(t, err)
	assert.Len(t, view.Items, 0)
}

func TestCartService_RemoveFromCart_OwnershipMismatch(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	line, _, err := cartService.AddToCart(model.UserIdentity(user.ID), product.ID, 2)
	require.NoError(t, err)

	// A guest cannot remove another identity's line; it looks like not found
	err = cartService.RemoveFromCart(model.GuestIdentity("cart_other"), line.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_RemoveFromCart_MissingIdentity(t *testing.T) {
	cartService, _, _, _ := setupCartServiceTest(t)

	err := cartService.RemoveFromCart(model.CartIdentity{}, 1)
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestCartService_ClearCart(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	identity := model.UserIdentity(user.ID)

	_, _, err := cartService.AddToCart(identity, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, cartService.ClearCart(identity))

	view, err := cartService.GetCart(identity)
	require.NoError(t, err)
	assert.Len(t, view.Items, 0)

	// Clearing an already empty cart is fine
	assert.NoError(t, cartService.ClearCart(identity))
}

func TestCartService_MergeGuestCart_CombinesQuantities(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, guest, err := cartService.AddToCart(model.CartIdentity{}, product.ID, 1)
	require.NoError(t, err)
	_, _, err = cartService.AddToCart(model.UserIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)

	token, _ := guest.SessionToken()
	require.NoError(t, cartService.MergeGuestCart(context.Background(), token, user.ID))

	view, err := cartService.GetCart(model.UserIdentity(user.ID))
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	// No line left under the guest session
	var guestCount int64
	testDB.Model(&model.CartItem{}).
		Where("session_id = ? AND user_id IS NULL", token).
		Count(&guestCount)
	assert.EqualValues(t, 0, guestCount)
}

func TestCartService_MergeGuestCart_RekeysNewProducts(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	other := &model.Product{
		Name:       "Second Game",
		Slug:       "second-game",
		Price:      5.00,
		Stock:      10,
		CategoryID: product.CategoryID,
	}
	require.NoError(t, testDB.Create(other).Error)

	_, guest, err := cartService.AddToCart(model.CartIdentity{}, other.ID, 2)
	require.NoError(t, err)

	token, _ := guest.SessionToken()
	require.NoError(t, cartService.MergeGuestCart(context.Background(), token, user.ID))

	view, err := cartService.GetCart(model.UserIdentity(user.ID))
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, other.ID, view.Items[0].ProductID)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_Idempotent(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	_, guest, err := cartService.AddToCart(model.CartIdentity{}, product.ID, 1)
	require.NoError(t, err)
	_, _, err = cartService.AddToCart(model.UserIdentity(user.ID), product.ID, 1)
	require.NoError(t, err)

	token, _ := guest.SessionToken()
	require.NoError(t, cartService.MergeGuestCart(context.Background(), token, user.ID))
	require.NoError(t, cartService.MergeGuestCart(context.Background(), token, user.ID))

	view, err := cartService.GetCart(model.UserIdentity(user.ID))
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_EmptyToken(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	assert.NoError(t, cartService.MergeGuestCart(context.Background(), "", user.ID))
}

func TestCartService_PurgeExpiredGuestLines(t *testing.T) {
	cartService, _, product, testDB := setupCartServiceTest(t)

	line, _, err := cartService.AddToCart(model.CartIdentity{}, product.ID, 1)
	require.NoError(t, err)

	// Backdate the line past the retention window
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, testDB.Model(&model.CartItem{}).
		Where("id = ?", line.ID).
		Update("created_at", old).Error)

	count, err := cartService.PurgeExpiredGuestLines()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	var remaining int64
	testDB.Model(&model.CartItem{}).Count(&remaining)
	assert.EqualValues(t, 0, remaining)
}
