package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttachmentKind identifies the active variant of a prescription attachment.
type AttachmentKind string

const (
	AttachmentNone    AttachmentKind = "none"
	AttachmentProfile AttachmentKind = "profile"
	AttachmentInline  AttachmentKind = "inline"
)

// EyeValues holds the corrective values for one eye. Pointer fields so
// structural validation can tell "absent" from "zero".
type EyeValues struct {
	Sphere   *decimal.Decimal `json:"sphere"`
	Cylinder *decimal.Decimal `json:"cylinder"`
	Axis     *int             `json:"axis,omitempty"`
}

// PrescriptionPayload is an ad-hoc prescription entered during the cart
// flow, before the user has a saved profile. LensProductID is a display-only
// reference to the lens the data was configured against.
type PrescriptionPayload struct {
	RightEye          *EyeValues       `json:"rightEye"`
	LeftEye           *EyeValues       `json:"leftEye"`
	PupillaryDistance *decimal.Decimal `json:"pupillaryDistance,omitempty"`
	LensProductID     *string          `json:"lensProductId,omitempty"`
}

// PrescriptionProfile is a durable, user-owned saved prescription.
// Deactivated profiles are excluded from lookup for new attachments.
type PrescriptionProfile struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"-"`
	Label     string              `json:"label"`
	Payload   PrescriptionPayload `json:"payload"`
	Active    bool                `json:"active"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Attachment is the prescription attachment of a cart line. Exactly one
// variant is active: none, a reference to a saved profile, or an inline
// payload. The zero value is the none variant.
type Attachment struct {
	kind      AttachmentKind
	profileID uuid.UUID
	inline    *PrescriptionPayload
}

// NoAttachment returns the none variant.
func NoAttachment() Attachment {
	return Attachment{kind: AttachmentNone}
}

// ProfileAttachment returns an attachment referencing a saved profile.
func ProfileAttachment(profileID uuid.UUID) Attachment {
	return Attachment{kind: AttachmentProfile, profileID: profileID}
}

// InlineAttachment returns an attachment carrying an ad-hoc payload.
func InlineAttachment(payload *PrescriptionPayload) Attachment {
	if payload == nil {
		return NoAttachment()
	}
	return Attachment{kind: AttachmentInline, inline: payload}
}

// Kind returns the active variant.
func (a Attachment) Kind() AttachmentKind {
	if a.kind == "" {
		return AttachmentNone
	}
	return a.kind
}

// ProfileID returns the referenced profile id when the profile variant is
// active.
func (a Attachment) ProfileID() (uuid.UUID, bool) {
	if a.Kind() != AttachmentProfile {
		return uuid.Nil, false
	}
	return a.profileID, true
}

// Inline returns the inline payload when the inline variant is active.
func (a Attachment) Inline() (*PrescriptionPayload, bool) {
	if a.Kind() != AttachmentInline {
		return nil, false
	}
	return a.inline, true
}

// Equal reports variant-and-payload equality. Two inline attachments are
// equal only when their payloads carry the same values; this is the
// equivalence used to merge quantities on repeated add-to-cart.
func (a Attachment) Equal(b Attachment) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case AttachmentProfile:
		return a.profileID == b.profileID
	case AttachmentInline:
		return a.inline.Equal(b.inline)
	}
	return true
}

// Equal reports value equality of two payloads.
func (p *PrescriptionPayload) Equal(other *PrescriptionPayload) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.RightEye.Equal(other.RightEye) &&
		p.LeftEye.Equal(other.LeftEye) &&
		decimalPtrEqual(p.PupillaryDistance, other.PupillaryDistance) &&
		stringPtrEqual(p.LensProductID, other.LensProductID)
}

// Equal reports value equality of two eye value sets.
func (e *EyeValues) Equal(other *EyeValues) bool {
	if e == nil || other == nil {
		return e == other
	}
	return decimalPtrEqual(e.Sphere, other.Sphere) &&
		decimalPtrEqual(e.Cylinder, other.Cylinder) &&
		intPtrEqual(e.Axis, other.Axis)
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
