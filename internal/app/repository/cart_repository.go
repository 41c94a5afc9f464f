package repository

import (
	"time"

	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	Create(cartItem *model.CartItem) error
	FindByIdentity(identity model.CartIdentity) ([]model.CartItem, error)
	FindByID(id uint) (*model.CartItem, error)
	FindByIdentityAndProduct(identity model.CartIdentity, productID uint) (*model.CartItem, error)
	Update(cartItem *model.CartItem) error
	Delete(id uint) error
	DeleteByIdentity(identity model.CartIdentity) error
	DeleteGuestLinesBefore(cutoff time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// ScopeIdentity scopes a query to the cart lines owned by an identity.
// Guest lines are the ones whose user_id is still unset; a session token
// left on a merged line never resurrects it.
func ScopeIdentity(identity model.CartIdentity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if token, ok := identity.SessionToken(); ok {
			return db.Where("session_id = ? AND user_id IS NULL", token)
		}
		userID, _ := identity.UserID()
		return db.Where("user_id = ?", userID)
	}
}

func (r *cartRepository) Create(cartItem *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"product_id": cartItem.ProductID,
		"quantity":   cartItem.Quantity,
	})

	if err := r.db.Create(cartItem).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"product_id": cartItem.ProductID,
			"quantity":   cartItem.Quantity,
		})
		return err
	}
	return nil
}

func (r *cartRepository) FindByIdentity(identity model.CartIdentity) ([]model.CartItem, error) {
	var cartItems []model.CartItem
	err := r.db.Scopes(ScopeIdentity(identity)).
		Preload("Product").
		Order("id").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to find cart items by identity in database", err, identity.LogFields())
		return nil, err
	}
	return cartItems, nil
}

func (r *cartRepository) FindByID(id uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	err := r.db.Preload("Product").First(&cartItem, id).Error
	if err != nil {
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) FindByIdentityAndProduct(identity model.CartIdentity, productID uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	err := r.db.Scopes(ScopeIdentity(identity)).
		Where("product_id = ?", productID).
		First(&cartItem).Error
	if err != nil {
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) Update(cartItem *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"quantity":     cartItem.Quantity,
	})

	if err := r.db.Save(cartItem).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": cartItem.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteByIdentity(identity model.CartIdentity) error {
	err := r.db.Scopes(ScopeIdentity(identity)).Delete(&model.CartItem{}).Error
	if err != nil {
		logger.Error("Failed to delete cart items by identity from database", err, identity.LogFields())
		return err
	}
	return nil
}

// DeleteGuestLinesBefore removes guest cart lines created before the cutoff.
// Used by the retention sweep; deleting an already-gone line is not an error.
func (r *cartRepository) DeleteGuestLinesBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("user_id IS NULL AND created_at < ?", cutoff).
		Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to sweep expired guest cart items", result.Error, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
