package service

import (
	"context"
	"testing"
	"time"

	"optikart/internal/model"
	"optikart/internal/prescription"
	"optikart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCartRepository is a mock implementation of repository.CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) AddLine(ctx context.Context, userID uuid.UUID, in repository.NewLine) (*model.CartLine, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartLine), args.Error(1)
}

func (m *MockCartRepository) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	args := m.Called(ctx, userID, lineID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	args := m.Called(ctx, userID, lineID)
	return args.Error(0)
}

func (m *MockCartRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCartRepository) SetLineAttachment(ctx context.Context, userID, lineID uuid.UUID, attachment model.Attachment, fee decimal.Decimal) error {
	args := m.Called(ctx, userID, lineID, attachment, fee)
	return args.Error(0)
}

func (m *MockCartRepository) SaveInlineAsProfile(ctx context.Context, userID, lineID uuid.UUID, label string) (*model.PrescriptionProfile, error) {
	args := m.Called(ctx, userID, lineID, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrescriptionProfile), args.Error(1)
}

func (m *MockCartRepository) GetLines(ctx context.Context, userID uuid.UUID) ([]repository.LineRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.LineRecord), args.Error(1)
}

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockProfileRepository is a mock implementation of repository.ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrescriptionProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrescriptionProfile), args.Error(1)
}

func (m *MockProfileRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PrescriptionProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PrescriptionProfile), args.Error(1)
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *model.PrescriptionProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

var testSurcharge = decimal.NewFromInt(500000)

type fixture struct {
	cartRepo    *MockCartRepository
	productRepo *MockProductRepository
	profileRepo *MockProfileRepository
	svc         CartService
}

func newFixture() *fixture {
	f := &fixture{
		cartRepo:    new(MockCartRepository),
		productRepo: new(MockProductRepository),
		profileRepo: new(MockProfileRepository),
	}
	resolver := prescription.NewResolver(f.profileRepo, testSurcharge, zerolog.Nop())
	f.svc = NewCartService(f.cartRepo, f.productRepo, f.profileRepo, resolver, zerolog.Nop())
	return f
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func correctivePayload() *model.PrescriptionPayload {
	return &model.PrescriptionPayload{
		RightEye: &model.EyeValues{Sphere: decPtr("-1.25"), Cylinder: decPtr("-0.50"), Axis: intPtr(90)},
		LeftEye:  &model.EyeValues{Sphere: decPtr("-1.50"), Cylinder: decPtr("0"), Axis: intPtr(85)},
	}
}

func frameProduct() *model.Product {
	return &model.Product{
		ID:       "frame-ray-5228",
		Type:     model.ProductTypeFrame,
		Name:     "Ray 5228",
		Price:    decimal.NewFromInt(500000),
		Currency: "VND",
		Active:   true,
	}
}

func TestAddToCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Bare line without prescription", func(t *testing.T) {
		f := newFixture()
		f.productRepo.On("GetByID", ctx, "frame-ray-5228").Return(frameProduct(), nil)
		f.cartRepo.On("AddLine", ctx, userID, mock.MatchedBy(func(in repository.NewLine) bool {
			return in.ProductID == "frame-ray-5228" &&
				in.Quantity == 2 &&
				in.UnitPrice.Equal(decimal.NewFromInt(500000)) &&
				in.Attachment.Kind() == model.AttachmentNone &&
				in.PrescriptionFee.IsZero()
		})).Return(&model.CartLine{ID: uuid.New(), Quantity: 2}, nil)

		line, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType: model.ProductTypeFrame,
			ProductID:   "frame-ray-5228",
			Quantity:    2,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, line.Quantity)
		f.cartRepo.AssertExpectations(t)
	})

	t.Run("Inline prescription snapshots the surcharge", func(t *testing.T) {
		f := newFixture()
		lens := &model.Product{
			ID:       "lens-sv-156",
			Type:     model.ProductTypeLens,
			Price:    decimal.NewFromInt(800000),
			Currency: "VND",
			Active:   true,
		}
		f.productRepo.On("GetByID", ctx, "lens-sv-156").Return(lens, nil)
		f.cartRepo.On("AddLine", ctx, userID, mock.MatchedBy(func(in repository.NewLine) bool {
			return in.Attachment.Kind() == model.AttachmentInline &&
				in.PrescriptionFee.Equal(testSurcharge)
		})).Return(&model.CartLine{ID: uuid.New(), Quantity: 1, PrescriptionFee: testSurcharge}, nil)

		line, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType:        model.ProductTypeLens,
			ProductID:          "lens-sv-156",
			Quantity:           1,
			InlinePrescription: correctivePayload(),
		})
		require.NoError(t, err)
		assert.True(t, line.PrescriptionFee.Equal(testSurcharge))
		f.cartRepo.AssertExpectations(t)
	})

	t.Run("Invalid quantity is rejected before any lookup", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType: model.ProductTypeFrame,
			ProductID:   "frame-ray-5228",
			Quantity:    0,
		})
		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
		f.productRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.cartRepo.AssertNotCalled(t, "AddLine", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown product", func(t *testing.T) {
		f := newFixture()
		f.productRepo.On("GetByID", ctx, "frame-ghost").Return(nil, nil)

		_, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType: model.ProductTypeFrame,
			ProductID:   "frame-ghost",
			Quantity:    1,
		})
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("Type mismatch reads as not found", func(t *testing.T) {
		f := newFixture()
		f.productRepo.On("GetByID", ctx, "frame-ray-5228").Return(frameProduct(), nil)

		_, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType: model.ProductTypeLens,
			ProductID:   "frame-ray-5228",
			Quantity:    1,
		})
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("Inactive product", func(t *testing.T) {
		f := newFixture()
		retired := frameProduct()
		retired.Active = false
		f.productRepo.On("GetByID", ctx, retired.ID).Return(retired, nil)

		_, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType: model.ProductTypeFrame,
			ProductID:   retired.ID,
			Quantity:    1,
		})
		assert.ErrorIs(t, err, model.ErrProductInactive)
	})

	t.Run("Malformed inline prescription adds nothing", func(t *testing.T) {
		f := newFixture()
		f.productRepo.On("GetByID", ctx, "lens-sv-156").Return(&model.Product{
			ID: "lens-sv-156", Type: model.ProductTypeLens,
			Price: decimal.NewFromInt(800000), Currency: "VND", Active: true,
		}, nil)

		broken := correctivePayload()
		broken.LeftEye = nil

		_, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType:        model.ProductTypeLens,
			ProductID:          "lens-sv-156",
			Quantity:           1,
			InlinePrescription: broken,
		})
		assert.ErrorIs(t, err, model.ErrMalformedPrescription)
		f.cartRepo.AssertNotCalled(t, "AddLine", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown product type", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.AddToCart(ctx, userID, &model.AddToCartRequest{
			ProductType: "warranty",
			ProductID:   "x",
			Quantity:    1,
		})
		assert.ErrorContains(t, err, "unknown product type")
	})
}

func TestUpdateLineQuantity(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	lineID := uuid.New()

	t.Run("Valid quantity", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("UpdateLineQuantity", ctx, userID, lineID, 5).Return(nil)

		err := f.svc.UpdateLineQuantity(ctx, userID, lineID, 5)
		require.NoError(t, err)
		f.cartRepo.AssertExpectations(t)
	})

	t.Run("Zero quantity leaves the line untouched", func(t *testing.T) {
		f := newFixture()
		err := f.svc.UpdateLineQuantity(ctx, userID, lineID, 0)
		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
		f.cartRepo.AssertNotCalled(t, "UpdateLineQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSetLinePrescriptionByProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	lineID := uuid.New()
	profileID := uuid.New()

	t.Run("Attaching an owned profile snapshots the fee", func(t *testing.T) {
		f := newFixture()
		f.profileRepo.On("GetByID", ctx, profileID).Return(&model.PrescriptionProfile{
			ID:      profileID,
			UserID:  userID,
			Payload: *correctivePayload(),
			Active:  true,
		}, nil)
		f.cartRepo.On("SetLineAttachment", ctx, userID, lineID,
			model.ProfileAttachment(profileID),
			mock.MatchedBy(func(fee decimal.Decimal) bool { return fee.Equal(testSurcharge) }),
		).Return(nil)

		err := f.svc.SetLinePrescriptionByProfile(ctx, userID, lineID, &profileID)
		require.NoError(t, err)
		f.cartRepo.AssertExpectations(t)
	})

	t.Run("Nil profile id clears the attachment and its fee", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("SetLineAttachment", ctx, userID, lineID,
			model.NoAttachment(),
			mock.MatchedBy(func(fee decimal.Decimal) bool { return fee.IsZero() }),
		).Return(nil)

		err := f.svc.SetLinePrescriptionByProfile(ctx, userID, lineID, nil)
		require.NoError(t, err)
		f.cartRepo.AssertExpectations(t)
	})

	t.Run("Another user's profile mutates nothing", func(t *testing.T) {
		f := newFixture()
		f.profileRepo.On("GetByID", ctx, profileID).Return(&model.PrescriptionProfile{
			ID:      profileID,
			UserID:  uuid.New(),
			Payload: *correctivePayload(),
			Active:  true,
		}, nil)

		err := f.svc.SetLinePrescriptionByProfile(ctx, userID, lineID, &profileID)
		assert.ErrorIs(t, err, model.ErrUnauthorised)
		f.cartRepo.AssertNotCalled(t, "SetLineAttachment",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing profile mutates nothing", func(t *testing.T) {
		f := newFixture()
		f.profileRepo.On("GetByID", ctx, profileID).Return(nil, nil)

		err := f.svc.SetLinePrescriptionByProfile(ctx, userID, lineID, &profileID)
		assert.ErrorIs(t, err, model.ErrProfileNotFound)
		f.cartRepo.AssertNotCalled(t, "SetLineAttachment",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSetLinePrescriptionInline(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	lineID := uuid.New()

	t.Run("Valid payload", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("SetLineAttachment", ctx, userID, lineID,
			mock.MatchedBy(func(a model.Attachment) bool { return a.Kind() == model.AttachmentInline }),
			mock.MatchedBy(func(fee decimal.Decimal) bool { return fee.Equal(testSurcharge) }),
		).Return(nil)

		err := f.svc.SetLinePrescriptionInline(ctx, userID, lineID, correctivePayload())
		require.NoError(t, err)
		f.cartRepo.AssertExpectations(t)
	})

	t.Run("Malformed payload", func(t *testing.T) {
		f := newFixture()
		err := f.svc.SetLinePrescriptionInline(ctx, userID, lineID, nil)
		assert.ErrorIs(t, err, model.ErrMalformedPrescription)
		f.cartRepo.AssertNotCalled(t, "SetLineAttachment",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSaveLinePrescriptionAsProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	lineID := uuid.New()

	t.Run("Label defaults when empty", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("SaveInlineAsProfile", ctx, userID, lineID, "Saved prescription").
			Return(&model.PrescriptionProfile{ID: uuid.New(), UserID: userID, Label: "Saved prescription"}, nil)

		profile, err := f.svc.SaveLinePrescriptionAsProfile(ctx, userID, lineID, "")
		require.NoError(t, err)
		assert.Equal(t, "Saved prescription", profile.Label)
		f.cartRepo.AssertExpectations(t)
	})

	t.Run("Line without inline payload", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("SaveInlineAsProfile", ctx, userID, lineID, "Everyday").
			Return(nil, model.ErrNoInlinePrescription)

		_, err := f.svc.SaveLinePrescriptionAsProfile(ctx, userID, lineID, "Everyday")
		assert.ErrorIs(t, err, model.ErrNoInlinePrescription)
	})
}

func TestGetCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	t.Run("Breakdown sums snapshots scaled by quantity", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("GetLines", ctx, userID).Return([]repository.LineRecord{
			{
				ID:              uuid.New(),
				ProductType:     model.ProductTypeFrame,
				ProductID:       "frame-ray-5228",
				Quantity:        1,
				UnitPrice:       decimal.NewFromInt(500000),
				Currency:        "VND",
				AttachmentKind:  model.AttachmentNone,
				PrescriptionFee: decimal.Zero,
				ProductActive:   true,
				CreatedAt:       now,
			},
			{
				ID:              uuid.New(),
				ProductType:     model.ProductTypeLens,
				ProductID:       "lens-sv-156",
				Quantity:        1,
				UnitPrice:       decimal.NewFromInt(800000),
				Currency:        "VND",
				AttachmentKind:  model.AttachmentInline,
				Inline:          []byte(`{"rightEye":{"sphere":"-1.25","cylinder":"-0.50"},"leftEye":{"sphere":"-1.50","cylinder":"0"},"lensProductId":"lens-sv-156"}`),
				PrescriptionFee: testSurcharge,
				ProductActive:   true,
				CreatedAt:       now,
			},
		}, nil)

		resp, err := f.svc.GetCart(ctx, userID)
		require.NoError(t, err)
		require.Len(t, resp.Lines, 2)
		assert.True(t, resp.SubtotalBase.Equal(decimal.NewFromInt(1300000)), "subtotal %s", resp.SubtotalBase)
		assert.True(t, resp.PrescriptionFeesTotal.Equal(decimal.NewFromInt(500000)), "fees %s", resp.PrescriptionFeesTotal)
		assert.True(t, resp.GrandTotal.Equal(decimal.NewFromInt(1800000)), "grand %s", resp.GrandTotal)
		assert.Equal(t, "VND", resp.Currency)

		lens := resp.Lines[1]
		assert.Equal(t, model.AttachmentInline, lens.Prescription.Kind)
		require.NotNil(t, lens.Prescription.Inline)
		require.NotNil(t, lens.Prescription.LensProductID)
		assert.Equal(t, "lens-sv-156", *lens.Prescription.LensProductID)
	})

	t.Run("Fee scales with quantity", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("GetLines", ctx, userID).Return([]repository.LineRecord{
			{
				ID:              uuid.New(),
				ProductType:     model.ProductTypeLens,
				ProductID:       "lens-sv-156",
				Quantity:        3,
				UnitPrice:       decimal.NewFromInt(800000),
				Currency:        "VND",
				AttachmentKind:  model.AttachmentInline,
				Inline:          []byte(`{"rightEye":{"sphere":"-1.25","cylinder":"0"},"leftEye":{"sphere":"0","cylinder":"0"}}`),
				PrescriptionFee: testSurcharge,
				ProductActive:   true,
			},
		}, nil)

		resp, err := f.svc.GetCart(ctx, userID)
		require.NoError(t, err)
		assert.True(t, resp.SubtotalBase.Equal(decimal.NewFromInt(2400000)))
		assert.True(t, resp.PrescriptionFeesTotal.Equal(decimal.NewFromInt(1500000)))
		assert.True(t, resp.GrandTotal.Equal(decimal.NewFromInt(3900000)))
	})

	t.Run("Dangling profile reads as none with zero fee", func(t *testing.T) {
		f := newFixture()
		staleID := uuid.New()
		f.cartRepo.On("GetLines", ctx, userID).Return([]repository.LineRecord{
			{
				ID:              uuid.New(),
				ProductType:     model.ProductTypeLens,
				ProductID:       "lens-sv-156",
				Quantity:        1,
				UnitPrice:       decimal.NewFromInt(800000),
				Currency:        "VND",
				AttachmentKind:  model.AttachmentProfile,
				ProfileID:       &staleID,
				PrescriptionFee: testSurcharge,
				ProfileActive:   false,
				ProductActive:   true,
			},
		}, nil)

		resp, err := f.svc.GetCart(ctx, userID)
		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.Equal(t, model.AttachmentNone, resp.Lines[0].Prescription.Kind)
		assert.Nil(t, resp.Lines[0].Prescription.ProfileID)
		assert.True(t, resp.Lines[0].PrescriptionFee.IsZero())
		assert.True(t, resp.PrescriptionFeesTotal.IsZero())
		assert.True(t, resp.GrandTotal.Equal(decimal.NewFromInt(800000)))
	})

	t.Run("Retired product stays priced but is flagged", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("GetLines", ctx, userID).Return([]repository.LineRecord{
			{
				ID:              uuid.New(),
				ProductType:     model.ProductTypeFrame,
				ProductID:       "frame-retired-01",
				Quantity:        1,
				UnitPrice:       decimal.NewFromInt(400000),
				Currency:        "VND",
				AttachmentKind:  model.AttachmentNone,
				PrescriptionFee: decimal.Zero,
				ProductActive:   false,
			},
		}, nil)

		resp, err := f.svc.GetCart(ctx, userID)
		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.False(t, resp.Lines[0].Purchasable)
		assert.True(t, resp.GrandTotal.Equal(decimal.NewFromInt(400000)))
	})

	t.Run("Empty cart", func(t *testing.T) {
		f := newFixture()
		f.cartRepo.On("GetLines", ctx, userID).Return([]repository.LineRecord{}, nil)

		resp, err := f.svc.GetCart(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, resp.Lines)
		assert.True(t, resp.GrandTotal.IsZero())
	})
}

func TestComputeBreakdown(t *testing.T) {
	lines := []model.CartLineView{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("100000.50"), PrescriptionFee: decimal.Zero, Currency: "VND"},
		{Quantity: 1, UnitPrice: decimal.NewFromInt(800000), PrescriptionFee: decimal.NewFromInt(500000), Currency: "VND"},
	}

	b := computeBreakdown(lines)
	assert.True(t, b.SubtotalBase.Equal(decimal.RequireFromString("1000001")))
	assert.True(t, b.PrescriptionFeesTotal.Equal(decimal.NewFromInt(500000)))
	assert.True(t, b.GrandTotal.Equal(decimal.RequireFromString("1500001")))
	assert.Equal(t, "VND", b.Currency)
}
