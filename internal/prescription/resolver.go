package prescription

import (
	"context"
	"fmt"

	"optikart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProfileStore is the profile lookup the resolver consumes.
type ProfileStore interface {
	// GetByID retrieves a profile by id regardless of owner or active flag.
	// Returns nil when no such profile exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrescriptionProfile, error)
}

// Descriptor is the canonical resolution of a prescription reference: the
// attachment to store on the line and the per-unit fee to snapshot with it.
type Descriptor struct {
	Attachment   model.Attachment
	RequiresWork bool
	Fee          decimal.Decimal
}

// Resolver resolves prescription references into canonical descriptors.
type Resolver interface {
	// ResolveByProfile resolves a saved profile owned by userID. A missing
	// or deactivated profile fails with ErrProfileNotFound; a profile owned
	// by another user fails with ErrUnauthorised.
	ResolveByProfile(ctx context.Context, userID, profileID uuid.UUID) (*Descriptor, error)

	// ResolveInline validates an ad-hoc payload and computes its fee.
	// Structural gaps fail with ErrMalformedPrescription.
	ResolveInline(payload *model.PrescriptionPayload) (*Descriptor, error)
}

// resolver implements Resolver against a profile store and a configured
// per-unit surcharge.
type resolver struct {
	profiles  ProfileStore
	surcharge decimal.Decimal
	logger    zerolog.Logger
}

// NewResolver creates a new prescription resolver. The surcharge is the
// per-unit fee applied whenever a prescription requires corrective work.
func NewResolver(profiles ProfileStore, surcharge decimal.Decimal, logger zerolog.Logger) Resolver {
	return &resolver{
		profiles:  profiles,
		surcharge: surcharge,
		logger:    logger.With().Str("component", "prescription-resolver").Logger(),
	}
}

// ResolveByProfile resolves a saved profile into a descriptor.
func (r *resolver) ResolveByProfile(ctx context.Context, userID, profileID uuid.UUID) (*Descriptor, error) {
	profile, err := r.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if profile == nil {
		r.logger.Debug().Str("profile_id", profileID.String()).Msg("profile not found")
		return nil, model.ErrProfileNotFound
	}

	if profile.UserID != userID {
		r.logger.Warn().
			Str("profile_id", profileID.String()).
			Str("user_id", userID.String()).
			Msg("cross-user profile access rejected")
		return nil, model.ErrUnauthorised
	}

	// Deactivated profiles are excluded from lookup for new attachments.
	if !profile.Active {
		r.logger.Debug().Str("profile_id", profileID.String()).Msg("profile deactivated")
		return nil, model.ErrProfileNotFound
	}

	requires := requiresCorrectiveWork(&profile.Payload)
	return &Descriptor{
		Attachment:   model.ProfileAttachment(profile.ID),
		RequiresWork: requires,
		Fee:          r.fee(requires),
	}, nil
}

// ResolveInline validates an ad-hoc payload and computes its fee.
func (r *resolver) ResolveInline(payload *model.PrescriptionPayload) (*Descriptor, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	requires := requiresCorrectiveWork(payload)
	return &Descriptor{
		Attachment:   model.InlineAttachment(payload),
		RequiresWork: requires,
		Fee:          r.fee(requires),
	}, nil
}

func (r *resolver) fee(requiresWork bool) decimal.Decimal {
	if requiresWork {
		return r.surcharge
	}
	return decimal.Zero
}

// validatePayload enforces structural completeness: both eyes present with
// sphere and cylinder set, and axis within 0-180 degrees when given.
func validatePayload(payload *model.PrescriptionPayload) error {
	if payload == nil {
		return model.ErrMalformedPrescription
	}
	for _, eye := range []*model.EyeValues{payload.RightEye, payload.LeftEye} {
		if eye == nil || eye.Sphere == nil || eye.Cylinder == nil {
			return model.ErrMalformedPrescription
		}
		if eye.Axis != nil && (*eye.Axis < 0 || *eye.Axis > 180) {
			return model.ErrMalformedPrescription
		}
	}
	return nil
}

// requiresCorrectiveWork reports whether any corrective value is non-zero.
// An all-zero (plano) prescription carries no surcharge.
func requiresCorrectiveWork(payload *model.PrescriptionPayload) bool {
	for _, eye := range []*model.EyeValues{payload.RightEye, payload.LeftEye} {
		if eye == nil {
			continue
		}
		if eye.Sphere != nil && !eye.Sphere.IsZero() {
			return true
		}
		if eye.Cylinder != nil && !eye.Cylinder.IsZero() {
			return true
		}
	}
	return false
}
