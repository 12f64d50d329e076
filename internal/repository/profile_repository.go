package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"optikart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// profileRepository implements the ProfileRepository interface using PostgreSQL.
type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

// GetByID retrieves a profile by id regardless of owner or active flag.
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrescriptionProfile, error) {
	query := `
		SELECT id, user_id, label, payload, active, created_at
		FROM prescription_profiles
		WHERE id = $1
	`

	var p model.PrescriptionProfile
	var payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.UserID, &p.Label, &payload, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("profile_id", id.String()).Msg("profile not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("profile_id", id.String()).Msg("failed to query profile")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if err := json.Unmarshal(payload, &p.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile payload: %w", err)
	}

	return &p, nil
}

// ListByUser retrieves the active profiles owned by a user, newest first.
func (r *profileRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PrescriptionProfile, error) {
	query := `
		SELECT id, user_id, label, payload, active, created_at
		FROM prescription_profiles
		WHERE user_id = $1 AND active
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query profiles")
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.PrescriptionProfile
	for rows.Next() {
		var p model.PrescriptionProfile
		var payload []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.Label, &payload, &p.Active, &p.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan profile row")
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if err := json.Unmarshal(payload, &p.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode profile payload: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating profile rows")
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// Create inserts a new profile.
func (r *profileRepository) Create(ctx context.Context, profile *model.PrescriptionProfile) error {
	payload, err := json.Marshal(profile.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode profile payload: %w", err)
	}

	query := `
		INSERT INTO prescription_profiles (id, user_id, label, payload, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err = r.pool.QueryRow(ctx, query, profile.ID, profile.UserID, profile.Label, payload, profile.Active).
		Scan(&profile.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("profile_id", profile.ID.String()).Msg("failed to create profile")
		return fmt.Errorf("failed to create profile: %w", err)
	}

	r.logger.Info().
		Str("profile_id", profile.ID.String()).
		Str("user_id", profile.UserID.String()).
		Msg("profile created")

	return nil
}
