package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

var (
	testCard = domain.CardDetails{
		Number:      "4111111111111111",
		ExpiryMonth: "12",
		ExpiryYear:  "2030",
		CVV:         "123",
		OwnerName:   "Sam Lee",
		Brand:       "visa",
	}
	testBilling = domain.Address{
		Line1:      "12 Main St",
		City:       "Springfield",
		Region:     "IL",
		PostalCode: "12345",
		Attributes: map[string]string{"country": "US"},
	}
	testCustomer = domain.Customer{UserID: "user-1", Name: "Sam Lee", Email: "sam@example.com"}
)

func TestCreateCardPersistsReferenceOnly(t *testing.T) {
	gateway := &fakeGateway{}
	repo := &fakeCardRepo{}
	svc := NewCardService(gateway, repo, zap.NewNop())

	saved, err := svc.CreateCard(context.Background(), testCard, testBilling, testCustomer)
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.instrumentCalls)
	assert.Equal(t, 1, gateway.customerCalls)
	assert.Equal(t, 1, gateway.attachCalls)

	assert.Equal(t, "1111", saved.LastFourDigits)
	assert.Equal(t, "cust-1", saved.ServiceCustomerID)
	assert.Equal(t, "Sam Lee", saved.OwnerName)
	assert.Equal(t, "US", saved.BillingCountry)
	require.Len(t, repo.created, 1)
}

func TestCreateCardAbortsOnInstrumentFailure(t *testing.T) {
	gateway := &fakeGateway{instrumentErr: &apperrors.GatewayError{Operation: "createInstrumentIdentifier", Reason: "invalid card"}}
	repo := &fakeCardRepo{}
	svc := NewCardService(gateway, repo, zap.NewNop())

	_, err := svc.CreateCard(context.Background(), testCard, testBilling, testCustomer)
	require.Error(t, err)

	assert.Equal(t, 0, gateway.customerCalls)
	assert.Equal(t, 0, gateway.attachCalls)
	assert.Empty(t, repo.created)
}

// A failed attach aborts the chain without persisting anything locally. The
// gateway-side instrument and customer records are left in place; customers
// are idempotent per user so the next attempt reuses them.
func TestCreateCardAbortsOnAttachFailure(t *testing.T) {
	gatewayErr := &apperrors.GatewayError{Operation: "attachPaymentInstrument", Reason: "instrument mismatch"}
	gateway := &fakeGateway{attachErr: gatewayErr}
	repo := &fakeCardRepo{}
	svc := NewCardService(gateway, repo, zap.NewNop())

	_, err := svc.CreateCard(context.Background(), testCard, testBilling, testCustomer)
	require.Error(t, err)
	assert.Equal(t, gatewayErr, err)

	assert.Equal(t, 1, gateway.instrumentCalls)
	assert.Equal(t, 1, gateway.customerCalls)
	assert.Empty(t, repo.created)
}

func TestCreateCardPropagatesSaveFailure(t *testing.T) {
	gateway := &fakeGateway{}
	repo := &fakeCardRepo{createErr: assert.AnError}
	svc := NewCardService(gateway, repo, zap.NewNop())

	_, err := svc.CreateCard(context.Background(), testCard, testBilling, testCustomer)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, repo.created)
}

func TestLastFour(t *testing.T) {
	assert.Equal(t, "1111", lastFour("4111111111111111"))
	assert.Equal(t, "123", lastFour("123"))
}
