package prescription

import (
	"context"
	"errors"
	"testing"

	"optikart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProfileStore is a mock implementation of ProfileStore.
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*model.PrescriptionProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrescriptionProfile), args.Error(1)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func corrective() *model.PrescriptionPayload {
	return &model.PrescriptionPayload{
		RightEye: &model.EyeValues{Sphere: dec("-1.25"), Cylinder: dec("-0.50"), Axis: intPtr(90)},
		LeftEye:  &model.EyeValues{Sphere: dec("-1.50"), Cylinder: dec("0"), Axis: intPtr(85)},
	}
}

func plano() *model.PrescriptionPayload {
	return &model.PrescriptionPayload{
		RightEye: &model.EyeValues{Sphere: dec("0"), Cylinder: dec("0")},
		LeftEye:  &model.EyeValues{Sphere: dec("0"), Cylinder: dec("0")},
	}
}

var surcharge = decimal.NewFromInt(500000)

func TestResolveInline(t *testing.T) {
	r := NewResolver(nil, surcharge, zerolog.Nop())

	t.Run("Corrective payload carries the surcharge", func(t *testing.T) {
		desc, err := r.ResolveInline(corrective())
		require.NoError(t, err)
		assert.True(t, desc.RequiresWork)
		assert.True(t, desc.Fee.Equal(surcharge))
		assert.Equal(t, model.AttachmentInline, desc.Attachment.Kind())
	})

	t.Run("Plano payload carries no fee", func(t *testing.T) {
		desc, err := r.ResolveInline(plano())
		require.NoError(t, err)
		assert.False(t, desc.RequiresWork)
		assert.True(t, desc.Fee.IsZero())
	})
}

func TestResolveInline_Malformed(t *testing.T) {
	r := NewResolver(nil, surcharge, zerolog.Nop())

	missingEye := corrective()
	missingEye.LeftEye = nil

	missingSphere := corrective()
	missingSphere.RightEye.Sphere = nil

	missingCylinder := corrective()
	missingCylinder.LeftEye.Cylinder = nil

	badAxis := corrective()
	badAxis.RightEye.Axis = intPtr(270)

	tests := []struct {
		name    string
		payload *model.PrescriptionPayload
	}{
		{"Nil payload", nil},
		{"Missing eye", missingEye},
		{"Missing sphere", missingSphere},
		{"Missing cylinder", missingCylinder},
		{"Axis out of range", badAxis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := r.ResolveInline(tt.payload)
			assert.Nil(t, desc)
			assert.ErrorIs(t, err, model.ErrMalformedPrescription)
		})
	}
}

func TestResolveByProfile(t *testing.T) {
	userID := uuid.New()
	otherUserID := uuid.New()
	profileID := uuid.New()

	t.Run("Active profile owned by the user", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("GetByID", mock.Anything, profileID).Return(&model.PrescriptionProfile{
			ID:      profileID,
			UserID:  userID,
			Label:   "Everyday",
			Payload: *corrective(),
			Active:  true,
		}, nil)

		r := NewResolver(store, surcharge, zerolog.Nop())
		desc, err := r.ResolveByProfile(context.Background(), userID, profileID)
		require.NoError(t, err)
		assert.Equal(t, model.AttachmentProfile, desc.Attachment.Kind())
		id, _ := desc.Attachment.ProfileID()
		assert.Equal(t, profileID, id)
		assert.True(t, desc.Fee.Equal(surcharge))
		store.AssertExpectations(t)
	})

	t.Run("Plano profile resolves with zero fee", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("GetByID", mock.Anything, profileID).Return(&model.PrescriptionProfile{
			ID:      profileID,
			UserID:  userID,
			Payload: *plano(),
			Active:  true,
		}, nil)

		r := NewResolver(store, surcharge, zerolog.Nop())
		desc, err := r.ResolveByProfile(context.Background(), userID, profileID)
		require.NoError(t, err)
		assert.True(t, desc.Fee.IsZero())
	})

	t.Run("Missing profile", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("GetByID", mock.Anything, profileID).Return(nil, nil)

		r := NewResolver(store, surcharge, zerolog.Nop())
		desc, err := r.ResolveByProfile(context.Background(), userID, profileID)
		assert.Nil(t, desc)
		assert.ErrorIs(t, err, model.ErrProfileNotFound)
	})

	t.Run("Deactivated profile is excluded from lookup", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("GetByID", mock.Anything, profileID).Return(&model.PrescriptionProfile{
			ID:      profileID,
			UserID:  userID,
			Payload: *corrective(),
			Active:  false,
		}, nil)

		r := NewResolver(store, surcharge, zerolog.Nop())
		_, err := r.ResolveByProfile(context.Background(), userID, profileID)
		assert.ErrorIs(t, err, model.ErrProfileNotFound)
	})

	t.Run("Cross-user access is unauthorised", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("GetByID", mock.Anything, profileID).Return(&model.PrescriptionProfile{
			ID:      profileID,
			UserID:  otherUserID,
			Payload: *corrective(),
			Active:  true,
		}, nil)

		r := NewResolver(store, surcharge, zerolog.Nop())
		_, err := r.ResolveByProfile(context.Background(), userID, profileID)
		assert.ErrorIs(t, err, model.ErrUnauthorised)
	})

	t.Run("Store failure is not a domain error", func(t *testing.T) {
		store := new(MockProfileStore)
		store.On("GetByID", mock.Anything, profileID).Return(nil, errors.New("connection refused"))

		r := NewResolver(store, surcharge, zerolog.Nop())
		_, err := r.ResolveByProfile(context.Background(), userID, profileID)
		require.Error(t, err)
		var derr *model.DomainError
		assert.False(t, errors.As(err, &derr))
	})
}

func TestExtractReferencedLensProduct(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		found    bool
	}{
		{
			name:     "Reference present",
			raw:      `{"rightEye":{"sphere":"-1.25"},"lensProductId":"lens-sv-156"}`,
			expected: "lens-sv-156",
			found:    true,
		},
		{
			name:  "Reference absent",
			raw:   `{"rightEye":{"sphere":"-1.25"}}`,
			found: false,
		},
		{
			name:  "Reference is not a string",
			raw:   `{"lensProductId":42}`,
			found: false,
		},
		{
			name:  "Reference is empty",
			raw:   `{"lensProductId":""}`,
			found: false,
		},
		{
			name:  "Malformed json",
			raw:   `{"lensProductId":`,
			found: false,
		},
		{
			name:  "Not an object",
			raw:   `[1,2,3]`,
			found: false,
		},
		{
			name:  "Empty input",
			raw:   ``,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractReferencedLensProduct([]byte(tt.raw))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, id)
		})
	}
}
