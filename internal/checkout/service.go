package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/printery/storefront/internal/cart"
	"github.com/printery/storefront/internal/fulfillment"
	"github.com/printery/storefront/internal/logging"
	"github.com/printery/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrEmptyCart  = errors.New("cart is empty")
)

// Stage names the steps of the submission pipeline; errors are wrapped with
// the stage that produced them.
type Stage string

const (
	StageCartLoaded  Stage = "cart_loaded"
	StageSubmitted   Stage = "external_submitted"
	StagePersisted   Stage = "local_persisted"
	StageCartCleared Stage = "cart_cleared"
)

// OrderWriter persists the local bookkeeping rows after provider success.
type OrderWriter interface {
	CreateOrders(ctx context.Context, orders []models.Order) error
}

// Config carries the envelope values that used to be hard-coded upstream.
type Config struct {
	TestMode           bool
	PlaceholderSKU     string
	NeedsCustomization bool
}

// Service converts a populated cart into a fulfillment submission plus local
// order rows. The provider call is authoritative: once it succeeds the cart
// is cleared and local persistence failures are logged, never propagated.
type Service struct {
	Carts       *cart.Service
	Orders      OrderWriter
	Fulfillment fulfillment.Submitter
	Config      Config
}

// SubmitCart runs the pipeline: load -> transform -> submit -> persist ->
// clear. Both addresses must already be resolved (see ResolveBilling); they
// are validated before anything leaves the process.
func (s *Service) SubmitCart(ctx context.Context, userID uuid.UUID, shipping, billing Address) (fulfillment.Response, error) {
	l := logging.FromContext(ctx).With("pipeline", "checkout", "user_id", userID)

	if err := shipping.Validate("shipping"); err != nil {
		return nil, err
	}
	if err := billing.Validate("billing"); err != nil {
		return nil, err
	}

	loaded, err := s.Carts.CartWithItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageCartLoaded, err)
	}
	if loaded == nil || len(loaded.Items) == 0 {
		return nil, ErrEmptyCart
	}

	envelope := s.buildEnvelope(ctx, loaded, userID, shipping, billing)

	resp, err := s.Fulfillment.SubmitOrder(ctx, envelope)
	if err != nil {
		l.Error("fulfillment submission failed", "stage", StageSubmitted, "error", err)
		return nil, fmt.Errorf("%s: %w", StageSubmitted, err)
	}
	l.Info("fulfillment order submitted", "source_id", envelope.SourceID, "items", len(envelope.Items))

	orders := make([]models.Order, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		orders = append(orders, models.Order{
			ProductID:     item.ProductID,
			ProjectID:     item.Product.ProjectID,
			Quantity:      item.Quantity,
			CustomerEmail: shipping.Email,
			Status:        models.OrderStatusPending,
		})
	}
	if err := s.Orders.CreateOrders(ctx, orders); err != nil {
		// The provider already accepted the order; local bookkeeping is
		// best-effort and must not roll it back or resubmit.
		l.Error("local order persistence failed after provider success",
			"stage", StagePersisted, "source_id", envelope.SourceID, "error", err)
	}

	if err := s.Carts.ClearCart(ctx, userID); err != nil {
		l.Error("cart clear failed after provider success",
			"stage", StageCartCleared, "source_id", envelope.SourceID, "error", err)
		return nil, fmt.Errorf("%s: %w", StageCartCleared, err)
	}

	l.Info("checkout complete", "stage", StageCartCleared, "source_id", envelope.SourceID)
	return resp, nil
}

// SubmitCartLegacy is the single-email compatibility shim: it runs the same
// pipeline with a synthesized placeholder address for both shipping and
// billing. New callers should capture real addresses and use SubmitCart.
func (s *Service) SubmitCartLegacy(ctx context.Context, userID uuid.UUID, customerEmail string) (fulfillment.Response, error) {
	if customerEmail == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrValidation)
	}
	addr := placeholderAddress(customerEmail)
	return s.SubmitCart(ctx, userID, addr, addr)
}

func (s *Service) buildEnvelope(ctx context.Context, loaded *models.Cart, userID uuid.UUID, shipping, billing Address) *fulfillment.Envelope {
	l := logging.FromContext(ctx)

	items := make([]fulfillment.LineItem, 0, len(loaded.Items))
	for _, item := range loaded.Items {
		sku := item.Product.SKU
		if sku == "" {
			sku = s.Config.PlaceholderSKU
			l.Warn("product has no SKU, using placeholder",
				"product_id", item.ProductID, "placeholder_sku", sku)
		}
		shipType := item.Product.ShipType
		if shipType == "" {
			shipType = "standard"
		}
		items = append(items, fulfillment.LineItem{
			Quantity: item.Quantity,
			SKU:      sku,
			ShipType: shipType,
			Images:   []fulfillment.Image{productImage(item.Product)},
		})
	}

	return &fulfillment.Envelope{
		ShipToAddress:  shipping.toProvider(),
		BillingAddress: billing.toProvider(),
		Items:          items,
		SourceID:       fmt.Sprintf("cart-%s", loaded.ID),
		IsInTestMode:   s.Config.TestMode,
		Meta: map[string]any{
			"user_id":             userID.String(),
			"cart_id":             loaded.ID.String(),
			"needs_customization": s.Config.NeedsCustomization,
		},
	}
}

// productImage fills each image slot independently, falling back to the
// product's primary image URL where a dedicated value is absent.
func productImage(p models.Product) fulfillment.Image {
	img := fulfillment.Image{
		URL:          p.ImageURL,
		SpaceID:      p.SpaceID,
		ThumbnailURL: p.ThumbnailURL,
	}
	if img.SpaceID == "" {
		img.SpaceID = p.ImageURL
	}
	if img.ThumbnailURL == "" {
		img.ThumbnailURL = p.ImageURL
	}
	return img
}
