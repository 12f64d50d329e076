package service

import (
	"context"
	"encoding/json"
	"fmt"

	"optikart/internal/model"
	"optikart/internal/prescription"
	"optikart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	profileRepo repository.ProfileRepository
	resolver    prescription.Resolver
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	resolver prescription.Resolver,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		profileRepo: profileRepo,
		resolver:    resolver,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// AddToCart adds a product to the user's cart.
func (s *cartService) AddToCart(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) (*model.CartLine, error) {
	if req == nil {
		return nil, fmt.Errorf("add to cart request is nil")
	}
	if req.ProductID == "" {
		return nil, fmt.Errorf("product ID is required")
	}
	if !req.ProductType.Valid() {
		return nil, fmt.Errorf("unknown product type %q", req.ProductType)
	}
	if req.Quantity < 1 {
		s.logger.Warn().
			Str("product_id", req.ProductID).
			Int("quantity", req.Quantity).
			Msg("invalid quantity")
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID).Msg("failed to resolve product")
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil || product.Type != req.ProductType {
		return nil, model.ErrProductNotFound
	}
	if !product.Active {
		return nil, model.ErrProductInactive
	}

	attachment := model.NoAttachment()
	fee := decimal.Zero
	if req.InlinePrescription != nil {
		desc, err := s.resolver.ResolveInline(req.InlinePrescription)
		if err != nil {
			return nil, err
		}
		attachment = desc.Attachment
		fee = desc.Fee
	}

	line, err := s.cartRepo.AddLine(ctx, userID, repository.NewLine{
		ProductType:     product.Type,
		ProductID:       product.ID,
		Quantity:        req.Quantity,
		UnitPrice:       product.Price,
		Currency:        product.Currency,
		Attachment:      attachment,
		PrescriptionFee: fee,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID).Msg("failed to add line")
		return nil, err
	}

	s.logger.Info().
		Str("line_id", line.ID.String()).
		Str("user_id", userID.String()).
		Str("product_id", product.ID).
		Int("quantity", line.Quantity).
		Msg("product added to cart")

	return line, nil
}

// GetCart returns the cart's lines and price breakdown.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.CartResponse, error) {
	records, err := s.cartRepo.GetLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	lines := make([]model.CartLineView, 0, len(records))
	for _, rec := range records {
		lines = append(lines, buildLineView(rec))
	}

	breakdown := computeBreakdown(lines)
	return &model.CartResponse{
		Lines:                 lines,
		SubtotalBase:          breakdown.SubtotalBase,
		PrescriptionFeesTotal: breakdown.PrescriptionFeesTotal,
		GrandTotal:            breakdown.GrandTotal,
		Currency:              breakdown.Currency,
	}, nil
}

// UpdateLineQuantity changes a line's quantity.
func (s *cartService) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	// Zero or negative is rejected, not treated as delete.
	if quantity < 1 {
		s.logger.Warn().
			Str("line_id", lineID.String()).
			Int("quantity", quantity).
			Msg("invalid quantity")
		return model.ErrInvalidQuantity
	}
	return s.cartRepo.UpdateLineQuantity(ctx, userID, lineID, quantity)
}

// RemoveLine hard-deletes a line from the user's cart.
func (s *cartService) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	return s.cartRepo.RemoveLine(ctx, userID, lineID)
}

// ClearCart removes all lines from the user's cart.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.ClearCart(ctx, userID)
}

// SetLinePrescriptionInline replaces a line's attachment with an inline
// payload.
func (s *cartService) SetLinePrescriptionInline(ctx context.Context, userID, lineID uuid.UUID, payload *model.PrescriptionPayload) error {
	desc, err := s.resolver.ResolveInline(payload)
	if err != nil {
		return err
	}
	return s.cartRepo.SetLineAttachment(ctx, userID, lineID, desc.Attachment, desc.Fee)
}

// SetLinePrescriptionByProfile points a line at a saved profile, or clears
// the attachment when profileID is nil.
func (s *cartService) SetLinePrescriptionByProfile(ctx context.Context, userID, lineID uuid.UUID, profileID *uuid.UUID) error {
	if profileID == nil {
		return s.cartRepo.SetLineAttachment(ctx, userID, lineID, model.NoAttachment(), decimal.Zero)
	}

	// Resolution happens before any mutation, so an unauthorised or missing
	// profile leaves the line untouched.
	desc, err := s.resolver.ResolveByProfile(ctx, userID, *profileID)
	if err != nil {
		return err
	}
	return s.cartRepo.SetLineAttachment(ctx, userID, lineID, desc.Attachment, desc.Fee)
}

// SaveLinePrescriptionAsProfile persists a line's inline payload as a
// durable profile.
func (s *cartService) SaveLinePrescriptionAsProfile(ctx context.Context, userID, lineID uuid.UUID, label string) (*model.PrescriptionProfile, error) {
	if label == "" {
		label = "Saved prescription"
	}
	profile, err := s.cartRepo.SaveInlineAsProfile(ctx, userID, lineID, label)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("line_id", lineID.String()).
		Str("profile_id", profile.ID.String()).
		Msg("line prescription saved as profile")

	return profile, nil
}

// ListProfiles returns the user's active prescription profiles.
func (s *cartService) ListProfiles(ctx context.Context, userID uuid.UUID) ([]model.PrescriptionProfile, error) {
	profiles, err := s.profileRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// buildLineView maps a stored line record to its read model. A profile
// reference whose target is missing or deactivated degrades to the none
// variant with a zero fee until the caller repairs it; the stored snapshot
// is left intact.
func buildLineView(rec repository.LineRecord) model.CartLineView {
	view := model.CartLineView{
		ID:              rec.ID,
		ProductType:     rec.ProductType,
		ProductID:       rec.ProductID,
		Quantity:        rec.Quantity,
		UnitPrice:       rec.UnitPrice,
		Currency:        rec.Currency,
		PrescriptionFee: rec.PrescriptionFee,
		Purchasable:     rec.ProductActive,
		CreatedAt:       rec.CreatedAt,
	}

	switch rec.AttachmentKind {
	case model.AttachmentProfile:
		if rec.ProfileActive {
			view.Prescription = model.AttachmentView{Kind: model.AttachmentProfile, ProfileID: rec.ProfileID}
		} else {
			view.Prescription = model.AttachmentView{Kind: model.AttachmentNone}
			view.PrescriptionFee = decimal.Zero
		}
	case model.AttachmentInline:
		var payload model.PrescriptionPayload
		view.Prescription = model.AttachmentView{Kind: model.AttachmentInline}
		if err := json.Unmarshal(rec.Inline, &payload); err == nil {
			view.Prescription.Inline = &payload
		}
		if ref, ok := prescription.ExtractReferencedLensProduct(rec.Inline); ok {
			view.Prescription.LensProductID = &ref
		}
	default:
		view.Prescription = model.AttachmentView{Kind: model.AttachmentNone}
	}

	return view
}
