package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

type cardService struct {
	gateway TokenGateway
	cards   SavedCardRepo
	logger  *zap.Logger
}

// NewCardService creates a new card service
func NewCardService(gateway TokenGateway, cards SavedCardRepo, logger *zap.Logger) *cardService {
	return &cardService{
		gateway: gateway,
		cards:   cards,
		logger:  logger,
	}
}

// CreateCard tokenizes a card and stores the resulting reference. The chain
// is: instrument identifier, customer, payment instrument, local save. Any
// step failing aborts the chain and propagates the original error. Gateway
// records created by earlier steps are not cleaned up on a later failure;
// the gateway keeps customers idempotent per user, so orphans are reclaimed
// on the next attempt rather than compensated here.
func (s *cardService) CreateCard(ctx context.Context, card domain.CardDetails, billing domain.Address, customer domain.Customer) (*domain.SavedCard, error) {
	instrumentID, err := s.gateway.CreateInstrumentIdentifier(ctx, card)
	if err != nil {
		s.logger.Warn("instrument identifier creation failed",
			zap.String("user_id", customer.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	customerID, err := s.gateway.CreateCustomer(ctx, customer)
	if err != nil {
		s.logger.Warn("gateway customer creation failed",
			zap.String("user_id", customer.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := s.gateway.AttachPaymentInstrument(ctx, customerID, instrumentID, card, billing); err != nil {
		s.logger.Warn("payment instrument attach failed",
			zap.String("user_id", customer.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	saved := &domain.SavedCard{
		UserID:            customer.UserID,
		OwnerName:         card.OwnerName,
		Brand:             card.Brand,
		LastFourDigits:    lastFour(card.Number),
		ServiceCustomerID: customerID,
		BillingLine1:      billing.Line1,
		BillingCity:       billing.City,
		BillingRegion:     billing.Region,
		BillingPostalCode: billing.PostalCode,
		BillingCountry:    billing.Attributes["country"],
		CreatedAt:         time.Now(),
	}

	if err := s.cards.Create(ctx, saved); err != nil {
		return nil, err
	}

	return saved, nil
}

// DeleteCard removes the gateway customer first, then the local reference.
// A local failure after the gateway delete leaves a stale reference; the
// caller sees the error and the next list will still show the card.
func (s *cardService) DeleteCard(ctx context.Context, serviceCustomerID string) error {
	if err := s.gateway.DeleteCustomer(ctx, serviceCustomerID); err != nil {
		return err
	}

	if err := s.cards.DeleteByCustomerID(ctx, serviceCustomerID); err != nil {
		s.logger.Warn("gateway customer deleted but local reference remains",
			zap.String("service_customer_id", serviceCustomerID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func lastFour(number string) string {
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}
