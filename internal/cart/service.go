package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printery/storefront/internal/models"
	"github.com/printery/storefront/internal/store"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// Service owns the cart business rules: lazy cart creation, add-with-merge,
// quantity updates, and derived totals. All operations take the identity
// explicitly; there is no default user.
type Service struct {
	Store *store.Store
}

func New(s *store.Store) *Service {
	return &Service{Store: s}
}

// GetOrCreateCart returns the user's cart, creating it on first access.
// A missing row is the trigger for creation, not an error.
func (s *Service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Store.GetCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}

	newCart := &models.Cart{UserID: userID}
	if err := s.Store.CreateCart(ctx, newCart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return newCart, nil
}

// CartWithItems returns the cart with its items and joined products, or nil
// when the user has no cart yet.
func (s *Service) CartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Store.GetCartWithItems(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cart with items: %w", err)
	}
	return cart, nil
}

// AddItem puts quantity units of the product into the user's cart. Re-adding
// a product increments the existing row and keeps its original price
// snapshot; customization is overwritten only when a new value is supplied.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int, customization json.RawMessage) (*models.CartItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.Store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return nil, fmt.Errorf("fetch product: %w", err)
	}

	item := &models.CartItem{
		CartID:          cart.ID,
		ProductID:       product.ID,
		Quantity:        quantity,
		PriceAtAddition: product.Price,
		ImageURL:        product.ImageURL,
	}
	if err := s.Store.AddOrMergeItem(ctx, item, customization); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

// UpdateItemQuantity sets the item's quantity. A quantity of zero or less is
// a removal; the returned item is nil in that case.
func (s *Service) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		if err := s.RemoveItem(ctx, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	item, err := s.Store.UpdateItemQuantity(ctx, itemID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes the item. Removing an item that does not exist is an
// error; the store confirms existence before deleting.
func (s *Service) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	if err := s.Store.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
		}
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// ClearCart deletes every item in the user's cart. The cart row is retained.
func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Store.ClearCartItems(ctx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Total sums price_at_addition * quantity over one consistent snapshot of
// the cart. An absent or empty cart totals zero.
func (s *Service) Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	cart, err := s.CartWithItems(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	if cart == nil {
		return total, nil
	}
	for _, item := range cart.Items {
		total = total.Add(item.PriceAtAddition.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

// ItemCount sums the quantities over the same snapshot read as CartWithItems.
func (s *Service) ItemCount(ctx context.Context, userID uuid.UUID) (int, error) {
	cart, err := s.CartWithItems(ctx, userID)
	if err != nil {
		return 0, err
	}
	if cart == nil {
		return 0, nil
	}
	count := 0
	for _, item := range cart.Items {
		count += item.Quantity
	}
	return count, nil
}
