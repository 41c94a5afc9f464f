package service

import (
	"context"
	"errors"
	"time"

	"github.com/Pood16/REST-API-V1/config"
	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/internal/app/repository"
	"github.com/Pood16/REST-API-V1/pkg/logger"
	"github.com/Pood16/REST-API-V1/pkg/redis"
	"github.com/Pood16/REST-API-V1/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrMissingIdentity  = errors.New("cart identity required")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrCartLocked       = errors.New("cart session is being merged")
)

// CartView is a cart snapshot with its computed totals
type CartView struct {
	Items  []model.CartItem `json:"items"`
	Totals Totals           `json:"totals"`
}

type CartService interface {
	GetCart(identity model.CartIdentity) (*CartView, error)
	// AddToCart creates or increments the unique line for (identity, product).
	// When the caller is anonymous and supplied no session token, a guest
	// identity is minted and returned alongside the line.
	AddToCart(identity model.CartIdentity, productID uint, quantity int) (*model.CartItem, model.CartIdentity, error)
	UpdateCartItem(identity model.CartIdentity, productID uint, quantity int) (*model.CartItem, error)
	RemoveFromCart(identity model.CartIdentity, cartItemID uint) error
	ClearCart(identity model.CartIdentity) error
	// MergeGuestCart folds every guest line under the session token into the
	// user's cart. Atomic per session and idempotent: a completed merge
	// leaves no guest lines for a second run to act on.
	MergeGuestCart(ctx context.Context, sessionToken string, userID uint) error
	PurgeExpiredGuestLines() (int64, error)
	StopCleanupTimers()
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	db          *gorm.DB
	cfg         config.CartConfig
	cleanup     *cleanupRegistry
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	db *gorm.DB,
	cfg config.CartConfig,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		db:          db,
		cfg:         cfg,
		cleanup:     newCleanupRegistry(),
	}
}

func (s *cartService) GetCart(identity model.CartIdentity) (*CartView, error) {
	// An anonymous caller without a session token trivially has an empty cart
	if identity.IsZero() {
		return &CartView{Items: []model.CartItem{}, Totals: ComputeTotals(nil, s.cfg.ShippingFee, s.cfg.TaxRate, s.cfg.DiscountPercent)}, nil
	}

	items, err := s.cartRepo.FindByIdentity(identity)
	if err != nil {
		logger.Error("Failed to fetch cart", err, identity.LogFields())
		return nil, err
	}

	totals := ComputeTotals(items, s.cfg.ShippingFee, s.cfg.TaxRate, s.cfg.DiscountPercent)

	logger.Debug("Cart fetched", map[string]interface{}{
		"count": len(items),
		"total": totals.Total,
	})
	return &CartView{Items: items, Totals: totals}, nil
}

func (s *cartService) AddToCart(identity model.CartIdentity, productID uint, quantity int) (*model.CartItem, model.CartIdentity, error) {
	if quantity < 1 {
		return nil, identity, ErrInvalidQuantity
	}

	// First add from an anonymous caller mints the guest session
	if identity.IsZero() {
		identity = model.GuestIdentity(util.NewCartSessionToken())
		logger.Debug("Minted guest cart session", identity.LogFields())
	}

	logger.Info("Adding item to cart", map[string]interface{}{
		"product_id": productID,
		"quantity":   quantity,
		"guest":      identity.IsGuest(),
	})

	var line *model.CartItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the product row so the stock ceiling cannot move under us
		var product model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		// Lock the existing line for this identity+product, if any. The
		// row lock makes concurrent adds for the same key serialize instead
		// of creating duplicate lines or an over-quantity line.
		var existing model.CartItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(repository.ScopeIdentity(identity)).
			Where("product_id = ?", productID).
			First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found := err == nil

		requested := quantity
		if found {
			requested = existing.Quantity + quantity
		}
		if product.Stock < requested {
			logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
				"product_id": productID,
				"requested":  requested,
				"available":  product.Stock,
			})
			return ErrInsufficientStock
		}

		if found {
			existing.Quantity = requested
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			existing.Product = product
			line = &existing
			return nil
		}

		item := model.CartItem{
			ProductID: productID,
			Quantity:  quantity,
		}
		if userID, ok := identity.UserID(); ok {
			item.UserID = &userID
		} else if token, ok := identity.SessionToken(); ok {
			item.SessionID = &token
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		item.Product = product
		line = &item
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) && !errors.Is(err, ErrInsufficientStock) {
			logger.Error("Failed to add item to cart", err, map[string]interface{}{
				"product_id": productID,
			})
		}
		return nil, identity, err
	}

	// Guest lines are abandoned after the retention window unless the cart
	// is checked out, merged or cleared first
	if identity.IsGuest() {
		s.scheduleGuestCleanup(line.ID)
	}

	logger.Info("Cart item added successfully", map[string]interface{}{
		"cart_item_id": line.ID,
		"quantity":     line.Quantity,
	})
	return line, identity, nil
}

func (s *cartService) UpdateCartItem(identity model.CartIdentity, productID uint, quantity int) (*model.CartItem, error) {
	if identity.IsZero() {
		return nil, ErrMissingIdentity
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	logger.Info("Updating cart item", map[string]interface{}{
		"product_id": productID,
		"quantity":   quantity,
	})

	cartItem, err := s.cartRepo.FindByIdentityAndProduct(identity, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		logger.Error("Failed to fetch cart item", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for stock check", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	if product.Stock < quantity {
		logger.Warn("Cannot update cart item: insufficient stock", map[string]interface{}{
			"cart_item_id": cartItem.ID,
			"requested":    quantity,
			"available":    product.Stock,
		})
		return nil, ErrInsufficientStock
	}

	cartItem.Quantity = quantity
	if err := s.cartRepo.Update(cartItem); err != nil {
		return nil, err
	}

	if identity.IsGuest() {
		s.scheduleGuestCleanup(cartItem.ID)
	}

	cartItem.Product = *product
	logger.Info("Cart item updated successfully", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"quantity":     quantity,
	})
	return cartItem, nil
}

func (s *cartService) RemoveFromCart(identity model.CartIdentity, cartItemID uint) error {
	if identity.IsZero() {
		return ErrMissingIdentity
	}

	logger.Info("Removing cart item", map[string]interface{}{
		"cart_item_id": cartItemID,
	})

	cartItem, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		logger.Error("Failed to fetch cart item for removal", err, map[string]interface{}{
			"cart_item_id": cartItemID,
		})
		return err
	}

	if !cartItem.BelongsTo(identity) {
		logger.Warn("Cart item removal denied: ownership mismatch", map[string]interface{}{
			"cart_item_id": cartItemID,
		})
		return ErrCartItemNotFound
	}

	if err := s.cartRepo.Delete(cartItemID); err != nil {
		return err
	}
	s.cleanup.cancel(cartItemID)

	logger.Info("Cart item removed", map[string]interface{}{
		"cart_item_id": cartItemID,
	})
	return nil
}

func (s *cartService) ClearCart(identity model.CartIdentity) error {
	if identity.IsZero() {
		return ErrMissingIdentity
	}

	logger.Info("Clearing cart", identity.LogFields())

	// Look the lines up first so their cleanup timers can be disarmed
	items, err := s.cartRepo.FindByIdentity(identity)
	if err != nil {
		return err
	}

	if err := s.cartRepo.DeleteByIdentity(identity); err != nil {
		return err
	}
	for _, item := range items {
		s.cleanup.cancel(item.ID)
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"removed": len(items),
	})
	return nil
}

func (s *cartService) MergeGuestCart(ctx context.Context, sessionToken string, userID uint) error {
	if sessionToken == "" {
		return nil
	}

	logger.Info("Merging guest cart into user cart", map[string]interface{}{
		"session_id": sessionToken,
		"user_id":    userID,
	})

	// Lease on the session token keeps a concurrent add under the same
	// session from racing the merge
	release, err := redis.AcquireSessionLock(ctx, sessionToken, 10*time.Second)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return ErrCartLocked
		}
		return err
	}
	defer release()

	var mergedLineIDs []uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var guestLines []model.CartItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ? AND user_id IS NULL", sessionToken).
			Order("id").
			Find(&guestLines).Error; err != nil {
			return err
		}

		for _, guestLine := range guestLines {
			var existing model.CartItem
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND product_id = ?", userID, guestLine.ProductID).
				First(&existing).Error

			switch {
			case err == nil:
				// User already has this product: combine quantities and
				// drop the guest line
				existing.Quantity += guestLine.Quantity
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				if err := tx.Delete(&model.CartItem{}, guestLine.ID).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Re-key the guest line to the user
				updates := map[string]interface{}{
					"user_id":    userID,
					"session_id": nil,
				}
				if err := tx.Model(&model.CartItem{}).
					Where("id = ?", guestLine.ID).
					Updates(updates).Error; err != nil {
					return err
				}
			default:
				return err
			}
			mergedLineIDs = append(mergedLineIDs, guestLine.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to merge guest cart", err, map[string]interface{}{
			"session_id": sessionToken,
			"user_id":    userID,
		})
		return err
	}

	// Merged lines belong to the user now; the guest retention timers no
	// longer apply
	for _, id := range mergedLineIDs {
		s.cleanup.cancel(id)
	}

	logger.Info("Guest cart merged", map[string]interface{}{
		"session_id": sessionToken,
		"user_id":    userID,
		"lines":      len(mergedLineIDs),
	})
	return nil
}

// PurgeExpiredGuestLines deletes guest cart lines older than the retention
// window. It backs up the in-process timers, which do not survive restarts.
func (s *cartService) PurgeExpiredGuestLines() (int64, error) {
	cutoff := time.Now().Add(-s.cfg.GuestRetention)
	count, err := s.cartRepo.DeleteGuestLinesBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info("Purged abandoned guest cart items", map[string]interface{}{
			"count":  count,
			"cutoff": cutoff,
		})
	}
	return count, nil
}

// StopCleanupTimers disarms all pending deferred deletions (shutdown path)
func (s *cartService) StopCleanupTimers() {
	s.cleanup.stop()
}

func (s *cartService) scheduleGuestCleanup(cartItemID uint) {
	s.cleanup.schedule(cartItemID, s.cfg.GuestRetention, func() {
		if err := s.cartRepo.Delete(cartItemID); err != nil {
			logger.Error("Failed to expire guest cart item", err, map[string]interface{}{
				"cart_item_id": cartItemID,
			})
			return
		}
		logger.Debug("Expired abandoned guest cart item", map[string]interface{}{
			"cart_item_id": cartItemID,
		})
	})
}
