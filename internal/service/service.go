package service

import (
	"context"

	"optikart/internal/model"

	"github.com/google/uuid"
)

// CartService defines the cart pricing and prescription composition
// operations. The calling user's identity is always an explicit parameter;
// nothing is read from ambient state.
type CartService interface {
	// AddToCart adds a product to the user's cart, snapshotting its price
	// and, when an inline prescription is supplied, the prescription fee.
	AddToCart(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) (*model.CartLine, error)

	// GetCart returns the cart's lines and the authoritative price
	// breakdown from one consistent snapshot.
	GetCart(ctx context.Context, userID uuid.UUID) (*model.CartResponse, error)

	// UpdateLineQuantity changes a line's quantity. Zero and negative
	// quantities are rejected; deletion is a separate operation.
	UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error

	// RemoveLine hard-deletes a line from the user's cart.
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error

	// ClearCart removes all lines; clearing an empty cart succeeds.
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// SetLinePrescriptionInline replaces a line's attachment with an inline
	// payload and re-snapshots the fee atomically.
	SetLinePrescriptionInline(ctx context.Context, userID, lineID uuid.UUID, payload *model.PrescriptionPayload) error

	// SetLinePrescriptionByProfile points a line at a saved profile owned
	// by the user, or clears the attachment when profileID is nil.
	SetLinePrescriptionByProfile(ctx context.Context, userID, lineID uuid.UUID, profileID *uuid.UUID) error

	// SaveLinePrescriptionAsProfile persists a line's inline payload as a
	// durable profile and switches the line to reference it atomically.
	SaveLinePrescriptionAsProfile(ctx context.Context, userID, lineID uuid.UUID, label string) (*model.PrescriptionProfile, error)

	// ListProfiles returns the user's active prescription profiles.
	ListProfiles(ctx context.Context, userID uuid.UUID) ([]model.PrescriptionProfile, error)
}
