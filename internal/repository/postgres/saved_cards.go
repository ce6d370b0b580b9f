package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

type savedCardRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSavedCardRepository creates a new saved-card repository
func NewSavedCardRepository(db *sql.DB, logger *zap.Logger) *savedCardRepository {
	return &savedCardRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a saved-card reference. Only non-sensitive fields are
// stored; the card number and CVV never reach this layer.
func (r *savedCardRepository) Create(ctx context.Context, card *domain.SavedCard) error {
	query := `
		INSERT INTO saved_cards (
			id, user_id, owner_name, brand, last_four_digits, logo_url,
			service_customer_id, billing_line1, billing_city, billing_region,
			billing_postal_code, billing_country, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.UserID,
		card.OwnerName,
		card.Brand,
		card.LastFourDigits,
		card.LogoURL,
		card.ServiceCustomerID,
		card.BillingLine1,
		card.BillingCity,
		card.BillingRegion,
		card.BillingPostalCode,
		card.BillingCountry,
		card.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create saved card", zap.Error(err))
		return err
	}

	return nil
}

// GetByUserID returns the user's saved card, or ErrNotFound when none exists.
func (r *savedCardRepository) GetByUserID(ctx context.Context, userID string) (*domain.SavedCard, error) {
	query := `
		SELECT id, user_id, owner_name, brand, last_four_digits, logo_url,
		       service_customer_id, billing_line1, billing_city, billing_region,
		       billing_postal_code, billing_country, created_at
		FROM saved_cards
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var card domain.SavedCard
	var logoURL, billingRegion sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&card.ID,
		&card.UserID,
		&card.OwnerName,
		&card.Brand,
		&card.LastFourDigits,
		&logoURL,
		&card.ServiceCustomerID,
		&card.BillingLine1,
		&card.BillingCity,
		&billingRegion,
		&card.BillingPostalCode,
		&card.BillingCountry,
		&card.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "saved card", ID: userID}
	}
	if err != nil {
		r.logger.Error("Failed to get saved card", zap.Error(err))
		return nil, err
	}

	if logoURL.Valid {
		card.LogoURL = logoURL.String
	}
	if billingRegion.Valid {
		card.BillingRegion = billingRegion.String
	}

	return &card, nil
}

// DeleteByCustomerID removes the saved-card reference addressed by the
// gateway customer id.
func (r *savedCardRepository) DeleteByCustomerID(ctx context.Context, serviceCustomerID string) error {
	query := `DELETE FROM saved_cards WHERE service_customer_id = $1`

	result, err := r.db.ExecContext(ctx, query, serviceCustomerID)
	if err != nil {
		r.logger.Error("Failed to delete saved card", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &apperrors.ErrNotFound{Resource: "saved card", ID: serviceCustomerID}
	}

	return nil
}
