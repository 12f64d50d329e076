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
	"github.com/shopspring/decimal"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// lockCart creates the user's cart if it does not exist yet and takes the
// row lock on it. The upsert's row lock is what serialises all mutations on
// one user's cart for the duration of the transaction.
func (r *cartRepository) lockCart(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (uuid.UUID, error) {
	var cartID uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id
	`, uuid.New(), userID).Scan(&cartID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	return cartID, nil
}

// encodeAttachment flattens an attachment into its storage columns.
func encodeAttachment(a model.Attachment) (kind model.AttachmentKind, profileID *uuid.UUID, inline []byte, err error) {
	switch a.Kind() {
	case model.AttachmentProfile:
		id, _ := a.ProfileID()
		return model.AttachmentProfile, &id, nil, nil
	case model.AttachmentInline:
		payload, _ := a.Inline()
		inline, err = json.Marshal(payload)
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to encode inline prescription: %w", err)
		}
		return model.AttachmentInline, nil, inline, nil
	default:
		return model.AttachmentNone, nil, nil, nil
	}
}

// decodeAttachment rebuilds an attachment from its storage columns.
func decodeAttachment(kind model.AttachmentKind, profileID *uuid.UUID, inline []byte) (model.Attachment, error) {
	switch kind {
	case model.AttachmentProfile:
		if profileID == nil {
			return model.Attachment{}, fmt.Errorf("profile attachment without profile id")
		}
		return model.ProfileAttachment(*profileID), nil
	case model.AttachmentInline:
		var payload model.PrescriptionPayload
		if err := json.Unmarshal(inline, &payload); err != nil {
			return model.Attachment{}, fmt.Errorf("failed to decode inline prescription: %w", err)
		}
		return model.InlineAttachment(&payload), nil
	default:
		return model.NoAttachment(), nil
	}
}

const lineColumns = `
	id, cart_id, product_type, product_id, quantity,
	unit_price::text, currency,
	prescription_kind, prescription_profile_id, prescription_inline,
	prescription_fee::text, created_at, updated_at`

// scanLine reads one cart_lines row into a CartLine.
func scanLine(row pgx.Row) (*model.CartLine, error) {
	var line model.CartLine
	var unitPrice, fee string
	var kind model.AttachmentKind
	var profileID *uuid.UUID
	var inline []byte

	err := row.Scan(
		&line.ID, &line.CartID, &line.ProductType, &line.ProductID, &line.Quantity,
		&unitPrice, &line.Currency,
		&kind, &profileID, &inline,
		&fee, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, fmt.Errorf("failed to parse unit price: %w", err)
	}
	if line.PrescriptionFee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("failed to parse prescription fee: %w", err)
	}
	if line.Attachment, err = decodeAttachment(kind, profileID, inline); err != nil {
		return nil, err
	}

	return &line, nil
}

// AddLine adds a line to the user's cart, merging quantities into an
// existing line with the same product and an equivalent attachment.
func (r *cartRepository) AddLine(ctx context.Context, userID uuid.UUID, in NewLine) (*model.CartLine, error) {
	kind, profileID, inline, err := encodeAttachment(in.Attachment)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cartID, err := r.lockCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	// Equivalence is variant-and-payload equality: same kind, same profile
	// reference, same inline document.
	var existingID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id
		FROM cart_lines
		WHERE cart_id = $1
		  AND product_type = $2
		  AND product_id = $3
		  AND prescription_kind = $4
		  AND prescription_profile_id IS NOT DISTINCT FROM $5
		  AND prescription_inline IS NOT DISTINCT FROM $6
	`, cartID, in.ProductType, in.ProductID, kind, profileID, inline).Scan(&existingID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to find existing line: %w", err)
	}

	var line *model.CartLine
	if err == nil {
		line, err = scanLine(tx.QueryRow(ctx, `
			UPDATE cart_lines
			SET quantity = quantity + $1, updated_at = NOW()
			WHERE id = $2
			RETURNING `+lineColumns,
			in.Quantity, existingID))
		if err != nil {
			return nil, fmt.Errorf("failed to merge line quantity: %w", err)
		}
		r.logger.Debug().
			Str("line_id", line.ID.String()).
			Int("quantity", line.Quantity).
			Msg("merged quantity into existing line")
	} else {
		line, err = scanLine(tx.QueryRow(ctx, `
			INSERT INTO cart_lines (
				id, cart_id, product_type, product_id, quantity,
				unit_price, currency,
				prescription_kind, prescription_profile_id, prescription_inline,
				prescription_fee
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+lineColumns,
			uuid.New(), cartID, in.ProductType, in.ProductID, in.Quantity,
			in.UnitPrice.String(), in.Currency,
			kind, profileID, inline,
			in.PrescriptionFee.String()))
		if err != nil {
			return nil, fmt.Errorf("failed to insert line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info().
		Str("line_id", line.ID.String()).
		Str("user_id", userID.String()).
		Str("product_id", in.ProductID).
		Msg("line added to cart")

	return line, nil
}

// UpdateLineQuantity sets the quantity of one line in the user's cart.
func (r *cartRepository) UpdateLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	return r.mutateLine(ctx, userID, func(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
		cmd, err := tx.Exec(ctx, `
			UPDATE cart_lines
			SET quantity = $1, updated_at = NOW()
			WHERE id = $2 AND cart_id = $3
		`, quantity, lineID, cartID)
		if err != nil {
			return fmt.Errorf("failed to update line quantity: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return model.ErrLineNotFound
		}
		return nil
	})
}

// RemoveLine hard-deletes one line from the user's cart.
func (r *cartRepository) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	return r.mutateLine(ctx, userID, func(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
		cmd, err := tx.Exec(ctx, `
			DELETE FROM cart_lines
			WHERE id = $1 AND cart_id = $2
		`, lineID, cartID)
		if err != nil {
			return fmt.Errorf("failed to delete line: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return model.ErrLineNotFound
		}
		return nil
	})
}

// ClearCart removes all lines from the user's cart.
func (r *cartRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.mutateLine(ctx, userID, func(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
		// An already-empty cart is valid, so no rows affected is fine here.
		if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// SetLineAttachment replaces a line's attachment and snapshot fee in one
// statement.
func (r *cartRepository) SetLineAttachment(ctx context.Context, userID, lineID uuid.UUID, attachment model.Attachment, fee decimal.Decimal) error {
	kind, profileID, inline, err := encodeAttachment(attachment)
	if err != nil {
		return err
	}

	return r.mutateLine(ctx, userID, func(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
		cmd, err := tx.Exec(ctx, `
			UPDATE cart_lines
			SET prescription_kind = $1,
			    prescription_profile_id = $2,
			    prescription_inline = $3,
			    prescription_fee = $4,
			    updated_at = NOW()
			WHERE id = $5 AND cart_id = $6
		`, kind, profileID, inline, fee.String(), lineID, cartID)
		if err != nil {
			return fmt.Errorf("failed to set line attachment: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return model.ErrLineNotFound
		}
		return nil
	})
}

// SaveInlineAsProfile persists a line's inline payload as a new profile and
// switches the line to reference it, all within the cart's lock.
func (r *cartRepository) SaveInlineAsProfile(ctx context.Context, userID, lineID uuid.UUID, label string) (*model.PrescriptionProfile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cartID, err := r.lockCart(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var kind model.AttachmentKind
	var inline []byte
	err = tx.QueryRow(ctx, `
		SELECT prescription_kind, prescription_inline
		FROM cart_lines
		WHERE id = $1 AND cart_id = $2
	`, lineID, cartID).Scan(&kind, &inline)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLineNotFound
		}
		return nil, fmt.Errorf("failed to read line: %w", err)
	}

	if kind != model.AttachmentInline || len(inline) == 0 {
		return nil, model.ErrNoInlinePrescription
	}

	var payload model.PrescriptionPayload
	if err := json.Unmarshal(inline, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode inline prescription: %w", err)
	}

	profile := &model.PrescriptionProfile{
		ID:      uuid.New(),
		UserID:  userID,
		Label:   label,
		Payload: payload,
		Active:  true,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO prescription_profiles (id, user_id, label, payload, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, profile.ID, profile.UserID, profile.Label, inline, profile.Active).Scan(&profile.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	// Same payload, same fee: only the variant changes.
	if _, err := tx.Exec(ctx, `
		UPDATE cart_lines
		SET prescription_kind = $1,
		    prescription_profile_id = $2,
		    prescription_inline = NULL,
		    updated_at = NOW()
		WHERE id = $3
	`, model.AttachmentProfile, profile.ID, lineID); err != nil {
		return nil, fmt.Errorf("failed to switch line to profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info().
		Str("line_id", lineID.String()).
		Str("profile_id", profile.ID.String()).
		Msg("inline prescription saved as profile")

	return profile, nil
}

// GetLines reads all lines of the user's cart in one consistent snapshot.
// The single statement means totals computed from the result can never
// observe a half-applied mutation.
func (r *cartRepository) GetLines(ctx context.Context, userID uuid.UUID) ([]LineRecord, error) {
	query := `
		SELECT
			l.id, l.product_type, l.product_id, l.quantity,
			l.unit_price::text, l.currency,
			l.prescription_kind, l.prescription_profile_id, l.prescription_inline,
			l.prescription_fee::text,
			COALESCE(pp.active, FALSE),
			COALESCE(p.active, FALSE),
			l.created_at, l.updated_at
		FROM carts c
		JOIN cart_lines l ON l.cart_id = c.id
		LEFT JOIN prescription_profiles pp ON pp.id = l.prescription_profile_id
		LEFT JOIN products p ON p.id = l.product_id
		WHERE c.user_id = $1
		ORDER BY l.created_at ASC, l.id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query cart lines")
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var records []LineRecord
	for rows.Next() {
		var rec LineRecord
		var unitPrice, fee string
		if err := rows.Scan(
			&rec.ID, &rec.ProductType, &rec.ProductID, &rec.Quantity,
			&unitPrice, &rec.Currency,
			&rec.AttachmentKind, &rec.ProfileID, &rec.Inline,
			&fee,
			&rec.ProfileActive,
			&rec.ProductActive,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart line row")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if rec.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("failed to parse unit price: %w", err)
		}
		if rec.PrescriptionFee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("failed to parse prescription fee: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart line rows")
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return records, nil
}

// mutateLine wraps a line mutation in a transaction holding the user's cart
// lock.
func (r *cartRepository) mutateLine(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cartID, err := r.lockCart(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
