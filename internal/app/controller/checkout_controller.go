package controller

import (
	"errors"
	"net/http"

	"github.com/Pood16/REST-API-V1/internal/app/service"
	apperrors "github.com/Pood16/REST-API-V1/internal/errors"
	"github.com/Pood16/REST-API-V1/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

// Checkout turns the user's cart into an order and opens a payment intent
// POST /api/v1/checkout
func (ctrl *CheckoutController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	result, err := ctrl.checkoutService.Checkout(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.UnprocessableEntity(c, apperrors.CartEmpty, "Your cart is empty")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.UnprocessableEntity(c, apperrors.CartStockExceeded, "One or more items exceed available stock")
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "A product in your cart no longer exists")
		case errors.Is(err, service.ErrPaymentGateway):
			log.Error("Payment gateway error during checkout", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError, "Payment provider is unavailable, please try again")
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "Failed to complete checkout")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created, awaiting payment",
		"data":    result,
	})
}

// ListOrders returns the user's order history
// GET /api/v1/orders
func (ctrl *CheckoutController) ListOrders(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.checkoutService.ListOrders(userID)
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  orders,
		"count": len(orders),
	})
}

// GetOrder returns one of the user's orders with its items and payment
// GET /api/v1/orders/:id
func (ctrl *CheckoutController) GetOrder(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.checkoutService.GetOrder(userID, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		apperrors.InternalError(c, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": order,
	})
}

// CheckoutSuccess is the return URL the payment flow redirects to. It
// reconciles the intent named by the session_id query parameter.
// GET /api/v1/checkout/success?session_id=pi_...
func (ctrl *CheckoutController) CheckoutSuccess(c *gin.Context) {
	intentID := c.Query("session_id")
	if intentID == "" {
		apperrors.UnprocessableEntity(c, apperrors.ValidationRequired, "session_id query parameter is required")
		return
	}
	ctrl.reconcile(c, intentID)
}

// ConfirmPayment re-checks the payment intent with the gateway and settles
// the order. Clients call this after completing the payment on their side.
// POST /api/v1/payments/:intent_id/confirm
func (ctrl *CheckoutController) ConfirmPayment(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	intentID := c.Param("intent_id")
	if intentID == "" {
		apperrors.UnprocessableEntity(c, apperrors.ValidationRequired, "intent_id is required")
		return
	}
	ctrl.reconcile(c, intentID)
}

func (ctrl *CheckoutController) reconcile(c *gin.Context, intentID string) {
	log := middleware.GetLoggerFromContext(c)

	payment, err := ctrl.checkoutService.Reconcile(c.Request.Context(), intentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			apperrors.NotFound(c, apperrors.PaymentNotFound, "Payment not found")
		case errors.Is(err, service.ErrPaymentGateway):
			log.Error("Payment gateway error during confirmation", err, map[string]interface{}{
				"intent_id": intentID,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError, "Payment provider is unavailable, please try again")
		default:
			apperrors.InternalError(c, "Failed to confirm payment")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment status updated",
		"data":    payment,
	})
}
