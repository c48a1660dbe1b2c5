package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/printery/storefront/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Cart{}, &models.CartItem{}, &models.Product{}, &models.Order{}))
	return New(db)
}

func seedCartAndProduct(t *testing.T, s *Store) (*models.Cart, *models.Product) {
	t.Helper()
	cart := &models.Cart{UserID: uuid.New()}
	require.NoError(t, s.CreateCart(context.Background(), cart))

	product := &models.Product{
		ProjectID: uuid.New(),
		Title:     "Tote",
		Price:     decimal.RequireFromString("9.99"),
		ImageURL:  "https://img.example/tote.png",
	}
	require.NoError(t, s.DB.Create(product).Error)
	return cart, product
}

func TestAddOrMergeItemCollapsesToOneRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cart, product := seedCartAndProduct(t, s)

	first := &models.CartItem{
		CartID:          cart.ID,
		ProductID:       product.ID,
		Quantity:        2,
		PriceAtAddition: product.Price,
	}
	require.NoError(t, s.AddOrMergeItem(ctx, first, nil))

	second := &models.CartItem{
		CartID:          cart.ID,
		ProductID:       product.ID,
		Quantity:        3,
		PriceAtAddition: decimal.RequireFromString("99.99"), // must be ignored on merge
	}
	require.NoError(t, s.AddOrMergeItem(ctx, second, nil))
	require.Equal(t, first.ID, second.ID, "merge reloads the existing row")
	require.Equal(t, 5, second.Quantity)
	require.True(t, second.PriceAtAddition.Equal(product.Price))

	var count int64
	require.NoError(t, s.DB.Model(&models.CartItem{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAddOrMergeItemCustomizationRules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cart, product := seedCartAndProduct(t, s)

	item := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1, PriceAtAddition: product.Price}
	require.NoError(t, s.AddOrMergeItem(ctx, item, json.RawMessage(`{"size":"L"}`)))

	merge := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1, PriceAtAddition: product.Price}
	require.NoError(t, s.AddOrMergeItem(ctx, merge, nil))
	require.JSONEq(t, `{"size":"L"}`, string(merge.Customization))

	replace := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1, PriceAtAddition: product.Price}
	require.NoError(t, s.AddOrMergeItem(ctx, replace, json.RawMessage(`{"size":"XL"}`)))
	require.JSONEq(t, `{"size":"XL"}`, string(replace.Customization))
}

func TestDeleteItemMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteItem(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetCartWithItemsJoinsProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cart, product := seedCartAndProduct(t, s)

	item := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 2, PriceAtAddition: product.Price}
	require.NoError(t, s.AddOrMergeItem(ctx, item, nil))

	loaded, err := s.GetCartWithItems(ctx, cart.UserID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	require.Equal(t, "Tote", loaded.Items[0].Product.Title)
}

func TestClearCartItemsLeavesOtherCartsAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cartA, product := seedCartAndProduct(t, s)
	cartB := &models.Cart{UserID: uuid.New()}
	require.NoError(t, s.CreateCart(ctx, cartB))

	for _, c := range []*models.Cart{cartA, cartB} {
		item := &models.CartItem{CartID: c.ID, ProductID: product.ID, Quantity: 1, PriceAtAddition: product.Price}
		require.NoError(t, s.AddOrMergeItem(ctx, item, nil))
	}

	require.NoError(t, s.ClearCartItems(ctx, cartA.ID))

	var count int64
	require.NoError(t, s.DB.Model(&models.CartItem{}).Where("cart_id = ?", cartB.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestListOrdersByEmailNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orders := []models.Order{
		{ProductID: uuid.New(), ProjectID: uuid.New(), Quantity: 1, CustomerEmail: "a@example.com", Status: models.OrderStatusPending},
		{ProductID: uuid.New(), ProjectID: uuid.New(), Quantity: 2, CustomerEmail: "a@example.com", Status: models.OrderStatusPending},
		{ProductID: uuid.New(), ProjectID: uuid.New(), Quantity: 3, CustomerEmail: "b@example.com", Status: models.OrderStatusPending},
	}
	require.NoError(t, s.CreateOrders(ctx, orders))

	got, err := s.ListOrdersByEmail(ctx, "a@example.com", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, o := range got {
		require.Equal(t, "a@example.com", o.CustomerEmail)
	}
}
