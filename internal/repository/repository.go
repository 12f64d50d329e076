package repository

import (
	"context"
	"time"

	"optikart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository resolves a product reference to its current price,
// currency and purchasability. This is the engine's only view of the
// catalogue.
type ProductRepository interface {
	// GetByID retrieves a single product by its ID. Returns nil when the
	// product does not exist.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// ProfileRepository defines data access for prescription profiles.
type ProfileRepository interface {
	// GetByID retrieves a profile by id regardless of owner or active flag.
	// Returns nil when no such profile exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrescriptionProfile, error)

	// ListByUser retrieves the active profiles owned by a user, newest
	// first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PrescriptionProfile, error)

	// Create inserts a new profile.
	Create(ctx context.Context, profile *model.PrescriptionProfile) error
}

// NewLine carries the snapshot values for a line about to be added.
type NewLine struct {
	ProductType     model.ProductType
	ProductID       string
	Quantity        int
	UnitPrice       decimal.Decimal
	Currency        string
	Attachment      model.Attachment
	PrescriptionFee decimal.Decimal
}

// LineRecord is the raw read model for one cart line. Inline holds the
// stored jsonb payload verbatim; ProfileActive is false when a profile
// reference is dangling or deactivated.
type LineRecord struct {
	ID              uuid.UUID
	ProductType     model.ProductType
	ProductID       string
	Quantity        int
	UnitPrice       decimal.Decimal
	Currency        string
	AttachmentKind  model.AttachmentKind
	ProfileID       *uuid.UUID
	Inline          []byte
	PrescriptionFee decimal.Decimal
	ProfileActive   bool
	ProductActive   bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CartRepository defines data access for carts and their lines. Every
// mutation runs in a transaction that locks the owning user's cart row, so
// concurrent requests for the same user serialise instead of interleaving.
type CartRepository interface {
	// AddLine adds a line to the user's cart, creating the cart if needed.
	// When a line with the same product and an equivalent attachment already
	// exists, quantities are merged instead of inserting a duplicate.
	AddLine(ctx context.Context, userID uuid.UUID, in NewLine) (*model.CartLine, error)

	// UpdateLineQuantity sets the quantity of one line. Fails with
	// ErrLineNotFound when the line is not in the user's cart.
	UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error

	// RemoveLine hard-deletes one line. Fails with ErrLineNotFound when the
	// line is not in the user's cart.
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error

	// ClearCart removes all lines from the user's cart. Clearing an empty
	// or absent cart is a no-op.
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// SetLineAttachment replaces a line's attachment and snapshot fee in a
	// single statement, so no reader can observe one without the other.
	SetLineAttachment(ctx context.Context, userID, lineID uuid.UUID, attachment model.Attachment, fee decimal.Decimal) error

	// SaveInlineAsProfile persists a line's inline payload as a new profile
	// and switches the line to reference it, atomically and without
	// changing the snapshot fee. Fails with ErrNoInlinePrescription when
	// the line's attachment is not inline.
	SaveInlineAsProfile(ctx context.Context, userID, lineID uuid.UUID, label string) (*model.PrescriptionProfile, error)

	// GetLines reads all lines of the user's cart in one consistent
	// snapshot, joined with current profile and product state.
	GetLines(ctx context.Context, userID uuid.UUID) ([]LineRecord, error)
}
