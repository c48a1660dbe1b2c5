package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printery/storefront/internal/models"
)

// Store is the persistence adapter for carts, cart items, products and
// orders. It exposes point reads and writes only; business rules live in
// the cart and checkout services.
type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) GetCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) CreateCart(ctx context.Context, cart *models.Cart) error {
	return s.DB.WithContext(ctx).Create(cart).Error
}

// GetCartWithItems loads the cart, its items and each item's product in one
// transaction so the result reflects a single point in time.
func (s *Store) GetCartWithItems(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	q := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// AddOrMergeItem inserts the item, or folds it into the existing row for the
// same (cart_id, product_id) pair: quantity is incremented, customization is
// replaced only when a new value is supplied, the price snapshot is left
// untouched. The update-first shape plus the unique index on the pair means
// two concurrent adds collapse to one row.
func (s *Store) AddOrMergeItem(ctx context.Context, item *models.CartItem, customization json.RawMessage) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", item.Quantity),
		}
		if customization != nil {
			updates["customization"] = customization
		}
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).First(item).Error
		}

		item.Customization = customization
		// The joined Product is read-only here; never let the ORM upsert it.
		return tx.Omit("Product").Create(item).Error
	})
}

func (s *Store) GetCartItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.DB.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity sets the quantity in place and returns the updated row.
// Missing rows surface gorm.ErrRecordNotFound.
func (s *Store) UpdateItemQuantity(ctx context.Context, id uuid.UUID, quantity int) (*models.CartItem, error) {
	var item models.CartItem
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&item).Update("quantity", quantity).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes the row. The read-before-delete makes a missing row an
// explicit gorm.ErrRecordNotFound instead of a silent no-op.
func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
}

func (s *Store) ClearCartItems(ctx context.Context, cartID uuid.UUID) error {
	return s.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (s *Store) CreateOrders(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Create(&orders).Error
}

func (s *Store) ListOrdersByEmail(ctx context.Context, email string, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	q := s.DB.WithContext(ctx).Where("customer_email = ?", email).
		Order("created_at DESC").Limit(limit).Offset(offset)
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
