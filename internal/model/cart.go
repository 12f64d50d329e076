package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the root aggregate: one per user, created lazily on first add.
// A cart with zero lines is the valid empty state.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartLine is one orderable unit in a cart. UnitPrice and PrescriptionFee
// are snapshotted when the line is added or its attachment changes; they are
// never re-derived from the catalogue afterwards.
type CartLine struct {
	ID              uuid.UUID       `json:"id"`
	CartID          uuid.UUID       `json:"-"`
	ProductType     ProductType     `json:"productType"`
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Currency        string          `json:"currency"`
	Attachment      Attachment      `json:"-"`
	PrescriptionFee decimal.Decimal `json:"prescriptionFee"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AttachmentView is the wire representation of a line's prescription
// attachment. LensProductID is the decorative reference extracted from an
// inline payload, when present.
type AttachmentView struct {
	Kind          AttachmentKind       `json:"kind"`
	ProfileID     *uuid.UUID           `json:"profileId,omitempty"`
	Inline        *PrescriptionPayload `json:"inline,omitempty"`
	LensProductID *string              `json:"lensProductId,omitempty"`
}

// CartLineView is the read model for one line: snapshot values plus the
// effective prescription state after dangling-profile resolution and the
// current purchasability of the product.
type CartLineView struct {
	ID              uuid.UUID       `json:"id"`
	ProductType     ProductType     `json:"productType"`
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Currency        string          `json:"currency"`
	Prescription    AttachmentView  `json:"prescription"`
	PrescriptionFee decimal.Decimal `json:"prescriptionFee"`
	Purchasable     bool            `json:"purchasable"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Breakdown is the authoritative price breakdown consumed at checkout.
type Breakdown struct {
	SubtotalBase          decimal.Decimal `json:"subtotalBase"`
	PrescriptionFeesTotal decimal.Decimal `json:"prescriptionFeesTotal"`
	GrandTotal            decimal.Decimal `json:"grandTotal"`
	Currency              string          `json:"currency,omitempty"`
}

// AddToCartRequest is the request payload for adding a line.
type AddToCartRequest struct {
	ProductType        ProductType          `json:"productType"`
	ProductID          string               `json:"productId"`
	Quantity           int                  `json:"quantity"`
	InlinePrescription *PrescriptionPayload `json:"inlinePrescription,omitempty"`
}

// UpdateQuantityRequest is the request payload for changing a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetInlinePrescriptionRequest replaces a line's attachment with an inline
// payload.
type SetInlinePrescriptionRequest struct {
	Prescription *PrescriptionPayload `json:"prescription"`
}

// SetProfilePrescriptionRequest points a line at a saved profile. A nil
// ProfileID clears the attachment.
type SetProfilePrescriptionRequest struct {
	ProfileID *uuid.UUID `json:"profileId"`
}

// SaveAsProfileRequest persists a line's inline payload as a profile.
type SaveAsProfileRequest struct {
	Label string `json:"label"`
}

// CartResponse is the full cart read: lines plus the breakdown.
type CartResponse struct {
	Lines                 []CartLineView  `json:"lines"`
	SubtotalBase          decimal.Decimal `json:"subtotalBase"`
	PrescriptionFeesTotal decimal.Decimal `json:"prescriptionFeesTotal"`
	GrandTotal            decimal.Decimal `json:"grandTotal"`
	Currency              string          `json:"currency,omitempty"`
}
