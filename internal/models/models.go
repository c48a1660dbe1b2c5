package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart holds the in-progress selections of one user. One row per user,
// created lazily on first access.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []CartItem `gorm:"foreignKey:CartID"              json:"cart_items"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is one product line within a cart. PriceAtAddition is snapshotted
// when the row is inserted and never recomputed from the live product price.
type CartItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"                            json:"id"`
	CartID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity        int             `gorm:"not null;check:quantity > 0"                     json:"quantity"`
	PriceAtAddition decimal.Decimal `gorm:"type:numeric;not null"                           json:"price_at_addition"`
	Customization   json.RawMessage `json:"customization,omitempty"`
	ImageURL        string          `json:"image_url"`
	CreatedAt       time.Time       `json:"created_at"`
	Product         Product         `gorm:"foreignKey:ProductID"                            json:"products"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Product is owned by the external catalog process; this service only reads it.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"  json:"id"`
	ProjectID    uuid.UUID       `gorm:"type:uuid;not null"    json:"project_id"`
	Title        string          `gorm:"not null"              json:"title"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	ImageURL     string          `json:"image_url"`
	SKU          string          `json:"sku"`
	ShipType     string          `json:"ship_type"`
	SpaceID      string          `json:"space_id"`
	ThumbnailURL string          `json:"thumbnail_url"`
	OutOfStock   bool            `json:"out_of_stock"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

const OrderStatusPending = "pending"

// Order records that a fulfillment submission happened for one cart line.
// Written once after provider success; status transitions belong to the
// fulfillment tracking process, not to this service.
type Order struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null"   json:"product_id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null"   json:"project_id"`
	Quantity      int       `gorm:"not null"             json:"quantity"`
	CustomerEmail string    `gorm:"index;not null"       json:"customer_email"`
	Status        string    `gorm:"not null"             json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
