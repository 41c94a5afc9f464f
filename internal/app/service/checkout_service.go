package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pood16/REST-API-V1/config"
	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/Pood16/REST-API-V1/internal/app/repository"
	"github.com/Pood16/REST-API-V1/pkg/logger"
	"github.com/Pood16/REST-API-V1/pkg/payment/stripe"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentGateway  = errors.New("payment gateway error")
)

// PaymentGateway abstracts the payment provider so checkout can be tested
// without network access.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req stripe.CreateIntentRequest) (*stripe.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
}

type CheckoutResponse struct {
	Order        *model.Order `json:"order"`
	ClientSecret string       `json:"client_secret"`
}

type CheckoutService interface {
	// Checkout converts the user's cart into an order with price snapshots,
	// decrements stock, empties the cart and opens a payment intent with
	// the gateway. If an earlier attempt left a pending order without an
	// intent, it retries payment for that order instead.
	Checkout(ctx context.Context, userID uint) (*CheckoutResponse, error)
	GetOrder(userID, orderID uint) (*model.Order, error)
	ListOrders(userID uint) ([]model.Order, error)
	// Reconcile pulls the intent state from the gateway and settles the
	// matching payment and order.
	Reconcile(ctx context.Context, intentID string) (*model.Payment, error)
}

type checkoutService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	db          *gorm.DB
	gateway     PaymentGateway
	cartCfg     config.CartConfig
	currency    string
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	db *gorm.DB,
	gateway PaymentGateway,
	cartCfg config.CartConfig,
	currency string,
) CheckoutService {
	return &checkoutService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		db:          db,
		gateway:     gateway,
		cartCfg:     cartCfg,
		currency:    currency,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID uint) (*CheckoutResponse, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"user_id": userID,
	})

	// A pending order means a previous attempt already converted the cart
	// but never reached the gateway. Retry the intent for it instead of
	// reading the (already emptied) cart again.
	if pending, err := s.orderRepo.FindPendingByUserID(userID); err == nil {
		logger.Info("Retrying payment for pending order", map[string]interface{}{
			"order_id": pending.ID,
		})
		return s.openIntent(ctx, pending)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var order *model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cartItems []model.CartItem
		if err := tx.Preload("Product").
			Where("user_id = ?", userID).
			Order("id").
			Find(&cartItems).Error; err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		// Re-check stock under lock and snapshot prices
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		for i := range cartItems {
			item := cartItems[i]

			var product model.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			if product.Stock < item.Quantity {
				logger.Warn("Checkout rejected: insufficient stock", map[string]interface{}{
					"product_id": product.ID,
					"requested":  item.Quantity,
					"available":  product.Stock,
				})
				return ErrInsufficientStock
			}

			if err := tx.Model(&product).
				Update("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
				return err
			}
			orderItems = append(orderItems, model.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     product.Price,
			})
			// Totals use the locked price, not the preloaded one
			cartItems[i].Product = product
		}

		totals := ComputeTotals(cartItems, s.cartCfg.ShippingFee, s.cartCfg.TaxRate, s.cartCfg.DiscountPercent)

		order = &model.Order{
			UserID:     userID,
			TotalPrice: totals.Total,
			Status:     model.OrderStatusPending,
			OrderItems: orderItems,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
	})
	if err != nil {
		if !errors.Is(err, ErrEmptyCart) && !errors.Is(err, ErrInsufficientStock) && !errors.Is(err, ErrProductNotFound) {
			logger.Error("Checkout transaction failed", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	return s.openIntent(ctx, order)
}

// openIntent asks the gateway for a payment intent on an order and moves it
// to awaiting_payment. On gateway failure the order keeps its pending status
// so a later Checkout call retries it.
func (s *checkoutService) openIntent(ctx context.Context, order *model.Order) (*CheckoutResponse, error) {
	intent, err := s.gateway.CreateIntent(ctx, stripe.CreateIntentRequest{
		Amount:   toMinorUnits(order.TotalPrice),
		Currency: s.currency,
		Metadata: map[string]string{
			"order_id": fmt.Sprintf("%d", order.ID),
			"user_id":  fmt.Sprintf("%d", order.UserID),
		},
	})
	if err != nil {
		logger.Error("Payment intent creation failed", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	payment := &model.Payment{
		OrderID:       order.ID,
		PaymentType:   "stripe",
		Status:        model.PaymentStatusPending,
		TransactionID: intent.ID,
		Amount:        order.TotalPrice,
		Currency:      s.currency,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(order.ID, model.OrderStatusAwaitingPayment); err != nil {
		return nil, err
	}
	order.Status = model.OrderStatusAwaitingPayment
	order.Payment = payment

	logger.Info("Payment intent opened", map[string]interface{}{
		"order_id":  order.ID,
		"total":     order.TotalPrice,
		"intent_id": intent.ID,
	})
	return &CheckoutResponse{
		Order:        order,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *checkoutService) GetOrder(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	// Users only see their own orders
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *checkoutService) ListOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to list orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *checkoutService) Reconcile(ctx context.Context, intentID string) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByTransactionID(intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		logger.Error("Failed to retrieve payment intent", err, map[string]interface{}{
			"intent_id": intentID,
		})
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	switch intent.Status {
	case stripe.IntentStatusSucceeded:
		payment.Status = model.PaymentStatusSucceeded
		if err := s.paymentRepo.Update(payment); err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdateStatus(payment.OrderID, model.OrderStatusPaid); err != nil {
			return nil, err
		}
		logger.Info("Payment confirmed", map[string]interface{}{
			"order_id":  payment.OrderID,
			"intent_id": intentID,
		})
	case stripe.IntentStatusCanceled:
		payment.Status = model.PaymentStatusFailed
		if err := s.paymentRepo.Update(payment); err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdateStatus(payment.OrderID, model.OrderStatusCancelled); err != nil {
			return nil, err
		}
		logger.Warn("Payment canceled at gateway", map[string]interface{}{
			"order_id":  payment.OrderID,
			"intent_id": intentID,
		})
	default:
		// Still in flight at the gateway, nothing to settle yet
		logger.Debug("Payment intent still pending", map[string]interface{}{
			"intent_id": intentID,
			"status":    intent.Status,
		})
	}

	return payment, nil
}

// toMinorUnits converts a dollar amount to the integer cents the gateway
// expects.
func toMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
