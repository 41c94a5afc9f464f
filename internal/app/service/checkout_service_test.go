package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/internal/app/repository"
	"github.com/Pood16/REST-API-V1/internal/db"
	"github.com/Pood16/REST-API-V1/pkg/payment/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeGateway records intents in memory so checkout can run without network
type fakeGateway struct {
	nextID      int
	intents     map[string]*stripe.PaymentIntent
	createErr   error
	retrieveErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*stripe.PaymentIntent)}
}

func (g *fakeGateway) CreateIntent(_ context.Context, req stripe.CreateIntentRequest) (*stripe.PaymentIntent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	intent := &stripe.PaymentIntent{
		ID:           fmt.Sprintf("pi_test_%d", g.nextID),
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       "requires_payment_method",
		ClientSecret: "secret_test",
		Metadata:     req.Metadata,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, intentID string) (*stripe.PaymentIntent, error) {
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, stripe.ErrIntentNotFound
	}
	return intent, nil
}

func setupCheckoutTest(t *testing.T) (CheckoutService, *fakeGateway, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	gateway := newFakeGateway()
	orderRepo := repository.NewOrderRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)
	checkoutService := NewCheckoutService(orderRepo, paymentRepo, testDB, gateway, testCartConfig(), "usd")

	user := &model.User{
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		Name:         "Buyer",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	category := &model.Category{Name: "Console Games", Slug: "console-games"}
	require.NoError(t, testDB.Create(category).Error)

	product := &model.Product{
		Name:       "Checkout Game",
		Slug:       "checkout-game",
		Price:      10.00,
		Stock:      10,
		CategoryID: category.ID,
	}
	require.NoError(t, testDB.Create(product).Error)

	return checkoutService, gateway, user, product, testDB
}

func addCartLine(t *testing.T, testDB *gorm.DB, userID, productID uint, quantity int) {
	t.Helper()
	line := &model.CartItem{UserID: &userID, ProductID: productID, Quantity: quantity}
	require.NoError(t, testDB.Create(line).Error)
}

func TestCheckoutService_Checkout_EmptyCart(t *testing.T) {
	checkoutService, _, user, _, _ := setupCheckoutTest(t)

	_, err := checkoutService.Checkout(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutService_Checkout_Success(t *testing.T) {
	checkoutService, _, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 2)

	result, err := checkoutService.Checkout(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.Equal(t, model.OrderStatusAwaitingPayment, result.Order.Status)
	assert.Equal(t, "secret_test", result.ClientSecret)

	// subtotal 20 + tax 2 + shipping 2
	assert.Equal(t, 24.0, result.Order.TotalPrice)
	require.Len(t, result.Order.OrderItems, 1)
	assert.Equal(t, 10.0, result.Order.OrderItems[0].Price)
	assert.Equal(t, 2, result.Order.OrderItems[0].Quantity)

	// Stock reserved
	var reloaded model.Product
	require.NoError(t, testDB.First(&reloaded, product.ID).Error)
	assert.Equal(t, 8, reloaded.Stock)

	// Cart emptied
	var cartCount int64
	testDB.Model(&model.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount)
	assert.EqualValues(t, 0, cartCount)

	// Payment row recorded against the intent
	var payment model.Payment
	require.NoError(t, testDB.Where("order_id = ?", result.Order.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, 24.0, payment.Amount)
	assert.Equal(t, "usd", payment.Currency)
}

func TestCheckoutService_Checkout_InsufficientStock(t *testing.T) {
	checkoutService, _, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 11)

	_, err := checkoutService.Checkout(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing committed: stock and cart untouched, no order created
	var reloaded model.Product
	require.NoError(t, testDB.First(&reloaded, product.ID).Error)
	assert.Equal(t, 10, reloaded.Stock)

	var cartCount, orderCount int64
	testDB.Model(&model.CartItem{}).Count(&cartCount)
	testDB.Model(&model.Order{}).Count(&orderCount)
	assert.EqualValues(t, 1, cartCount)
	assert.EqualValues(t, 0, orderCount)
}

func TestCheckoutService_Checkout_GatewayFailure(t *testing.T) {
	checkoutService, gateway, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 1)
	gateway.createErr = stripe.ErrNetworkError

	_, err := checkoutService.Checkout(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrPaymentGateway)

	// The order exists but stays pending with no payment row
	var order model.Order
	require.NoError(t, testDB.Where("user_id = ?", user.ID).First(&order).Error)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	var paymentCount int64
	testDB.Model(&model.Payment{}).Count(&paymentCount)
	assert.EqualValues(t, 0, paymentCount)
}

func TestCheckoutService_Checkout_RetryAfterGatewayFailure(t *testing.T) {
	checkoutService, gateway, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 2)
	gateway.createErr = stripe.ErrNetworkError

	_, err := checkoutService.Checkout(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrPaymentGateway)

	// The gateway recovers and the user tries again. The pending order from
	// the first attempt gets its intent, not a fresh order from the cart.
	gateway.createErr = nil

	result, err := checkoutService.Checkout(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusAwaitingPayment, result.Order.Status)
	assert.Equal(t, 24.0, result.Order.TotalPrice)

	var orderCount int64
	testDB.Model(&model.Order{}).Count(&orderCount)
	assert.EqualValues(t, 1, orderCount)

	// Stock stays reserved from the first attempt, not decremented twice
	var reloaded model.Product
	require.NoError(t, testDB.First(&reloaded, product.ID).Error)
	assert.Equal(t, 8, reloaded.Stock)

	var payment model.Payment
	require.NoError(t, testDB.Where("order_id = ?", result.Order.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, 24.0, payment.Amount)
}

func TestCheckoutService_GetOrder_OwnershipCheck(t *testing.T) {
	checkoutService, _, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 1)

	result, err := checkoutService.Checkout(context.Background(), user.ID)
	require.NoError(t, err)

	order, err := checkoutService.GetOrder(user.ID, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, order.ID)

	// Another user cannot see the order
	_, err = checkoutService.GetOrder(user.ID+1, result.Order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCheckoutService_Reconcile_Succeeded(t *testing.T) {
	checkoutService, gateway, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 1)

	result, err := checkoutService.Checkout(context.Background(), user.ID)
	require.NoError(t, err)
	intentID := result.Order.Payment.TransactionID

	gateway.intents[intentID].Status = stripe.IntentStatusSucceeded

	payment, err := checkoutService.Reconcile(context.Background(), intentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSucceeded, payment.Status)

	var order model.Order
	require.NoError(t, testDB.First(&order, result.Order.ID).Error)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestCheckoutService_Reconcile_Canceled(t *testing.T) {
	checkoutService, gateway, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 1)

	result, err := checkoutService.Checkout(context.Background(), user.ID)
	require.NoError(t, err)
	intentID := result.Order.Payment.TransactionID

	gateway.intents[intentID].Status = stripe.IntentStatusCanceled

	payment, err := checkoutService.Reconcile(context.Background(), intentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)

	var order model.Order
	require.NoError(t, testDB.First(&order, result.Order.ID).Error)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)
}

func TestCheckoutService_Reconcile_StillPending(t *testing.T) {
	checkoutService, _, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 1)

	result, err := checkoutService.Checkout(context.Background(), user.ID)
	require.NoError(t, err)
	intentID := result.Order.Payment.TransactionID

	// Intent still requires_payment_method at the gateway
	payment, err := checkoutService.Reconcile(context.Background(), intentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)

	var order model.Order
	require.NoError(t, testDB.First(&order, result.Order.ID).Error)
	assert.Equal(t, model.OrderStatusAwaitingPayment, order.Status)
}

func TestCheckoutService_Reconcile_PaymentNotFound(t *testing.T) {
	checkoutService, _, _, _, _ := setupCheckoutTest(t)

	_, err := checkoutService.Reconcile(context.Background(), "pi_unknown")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCheckoutService_Reconcile_GatewayFailure(t *testing.T) {
	checkoutService, gateway, user, product, testDB := setupCheckoutTest(t)
	addCartLine(t, testDB, user.ID, product.ID, 1)

	result, err := checkoutService.Checkout(context.Background(), user.ID)
	require.NoError(t, err)
	intentID := result.Order.Payment.TransactionID

	gateway.retrieveErr = errors.New("connection reset")

	_, err = checkoutService.Reconcile(context.Background(), intentID)
	assert.ErrorIs(t, err, ErrPaymentGateway)
}
