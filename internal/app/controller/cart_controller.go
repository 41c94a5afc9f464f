package controller

import (
	"errors"
	"net/http"

	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/internal/app/service"
	apperrors "github.com/Pood16/REST-API-V1/internal/errors"
	"github.com/Pood16/REST-API-V1/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
	// Guest session token; ignored for authenticated callers
	SessionID string `json:"session_id"`
}

type UpdateCartRequest struct {
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	SessionID string `json:"session_id"`
}

type MergeCartRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// resolveIdentity picks the cart owner for this request: the authenticated
// user when present, otherwise the guest session token the client supplied.
func resolveIdentity(c *gin.Context, sessionID string) model.CartIdentity {
	if userID, ok := middleware.GetUserID(c); ok {
		return model.UserIdentity(userID)
	}
	if sessionID != "" {
		return model.GuestIdentity(sessionID)
	}
	return model.CartIdentity{}
}

// GetCart returns the cart with computed totals
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity := resolveIdentity(c, c.Query("session_id"))
	view, err := ctrl.cartService.GetCart(identity)
	if err != nil {
		log.Error("Failed to fetch cart", err, nil)
		apperrors.InternalError(c, "Failed to fetch cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": view,
	})
}

// AddToCart adds an item to the cart. Anonymous callers without a session
// get one minted and returned so they can keep using the same cart.
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.UnprocessableEntity(c, apperrors.ValidationInvalidInput, "product_id and a positive quantity are required")
		return
	}

	identity := resolveIdentity(c, req.SessionID)
	line, identity, err := ctrl.cartService.AddToCart(identity, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.UnprocessableEntity(c, apperrors.CartStockExceeded, "Requested quantity exceeds available stock")
		case errors.Is(err, service.ErrInvalidQuantity):
			apperrors.UnprocessableEntity(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
		default:
			log.Error("Failed to add item to cart", err, map[string]interface{}{
				"product_id": req.ProductID,
			})
			apperrors.InternalError(c, "Failed to add item to cart")
		}
		return
	}

	data := gin.H{
		"cart_item": line,
	}
	if token, ok := identity.SessionToken(); ok {
		data["session_id"] = token
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item added to cart",
		"data":    data,
	})
}

// UpdateCartItem replaces the quantity of the line for a product
// PUT /api/v1/cart/items/:product_id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.UnprocessableEntity(c, apperrors.ValidationInvalidInput, "A positive quantity is required")
		return
	}

	identity := resolveIdentity(c, req.SessionID)
	line, err := ctrl.cartService.UpdateCartItem(identity, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingIdentity):
			apperrors.UnprocessableEntity(c, apperrors.CartMissingIdentity, "A session_id is required for guest carts")
		case errors.Is(err, service.ErrCartItemNotFound):
			apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found")
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		case errors.Is(err, service.ErrInsufficientStock):
			apperrors.UnprocessableEntity(c, apperrors.CartStockExceeded, "Requested quantity exceeds available stock")
		case errors.Is(err, service.ErrInvalidQuantity):
			apperrors.UnprocessableEntity(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
		default:
			log.Error("Failed to update cart item", err, map[string]interface{}{
				"product_id": productID,
			})
			apperrors.InternalError(c, "Failed to update cart item")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated",
		"data": gin.H{
			"cart_item": line,
		},
	})
}

// RemoveFromCart deletes a single cart line
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cartItemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	identity := resolveIdentity(c, c.Query("session_id"))
	if err := ctrl.cartService.RemoveFromCart(identity, cartItemID); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingIdentity):
			apperrors.UnprocessableEntity(c, apperrors.CartMissingIdentity, "A session_id is required for guest carts")
		case errors.Is(err, service.ErrCartItemNotFound):
			apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found")
		default:
			log.Error("Failed to remove cart item", err, map[string]interface{}{
				"cart_item_id": cartItemID,
			})
			apperrors.InternalError(c, "Failed to remove cart item")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
	})
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity := resolveIdentity(c, c.Query("session_id"))
	if err := ctrl.cartService.ClearCart(identity); err != nil {
		if errors.Is(err, service.ErrMissingIdentity) {
			apperrors.UnprocessableEntity(c, apperrors.CartMissingIdentity, "A session_id is required for guest carts")
			return
		}
		log.Error("Failed to clear cart", err, nil)
		apperrors.InternalError(c, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

// MergeCart folds a guest cart into the authenticated user's cart. Login
// does this automatically when the client sends its session_id; this
// endpoint covers clients that log in through another flow.
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.UnprocessableEntity(c, apperrors.ValidationInvalidInput, "session_id is required")
		return
	}

	if err := ctrl.cartService.MergeGuestCart(c.Request.Context(), req.SessionID, userID); err != nil {
		if errors.Is(err, service.ErrCartLocked) {
			apperrors.Conflict(c, apperrors.CartMergeInProgress, "This cart is already being merged")
			return
		}
		log.Error("Failed to merge guest cart", err, map[string]interface{}{
			"user_id":    userID,
			"session_id": req.SessionID,
		})
		apperrors.InternalError(c, "Failed to merge cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart merged successfully",
	})
}
