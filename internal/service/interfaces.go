package service

import (
	"context"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// Storefront is the remote-service gateway consumed by the orchestrator.
// Every operation is single-shot request/response; failures are surfaced,
// never retried.
type Storefront interface {
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	CreateAddress(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
	ValidatePostalCode(ctx context.Context, postalCode string) (bool, error)

	ListShippingDates(ctx context.Context, postalCode string) ([]domain.ShippingDate, error)

	ListPaymentMethods(ctx context.Context, userID string) ([]domain.PaymentMethod, error)

	ListDiscounts(ctx context.Context, userID string) ([]domain.Discount, error)
	AddDiscount(ctx context.Context, userID, couponCode string) (*domain.Discount, error)
	RemoveDiscount(ctx context.Context, userID, discountID string) error

	GetBalance(ctx context.Context, userID string) (*domain.CustomerBalance, error)
	SetBalanceActive(ctx context.Context, userID string, active bool) (*domain.CustomerBalance, error)

	GetOrderTotals(ctx context.Context, userID string) (*domain.OrderTotals, error)
	GetMinimumOrderMessage(ctx context.Context, userID, date string) (string, error)
	PlaceOrder(ctx context.Context, userID string, req domain.PlaceOrderRequest) (string, error)
}

// TokenGateway is the signed card-tokenization gateway.
type TokenGateway interface {
	CreateInstrumentIdentifier(ctx context.Context, card domain.CardDetails) (string, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (string, error)
	AttachPaymentInstrument(ctx context.Context, customerID, instrumentID string, card domain.CardDetails, billing domain.Address) (string, error)
	CapturePayment(ctx context.Context, card *domain.SavedCard, cvv string, amount float64, addressID, fingerprintSessionID string) (string, error)
	DeleteCustomer(ctx context.Context, customerID string) error
}

// CardManager runs the tokenization chain and card deletion. Implemented by
// the card service; the orchestrator only sees the resulting references.
type CardManager interface {
	CreateCard(ctx context.Context, card domain.CardDetails, billing domain.Address, customer domain.Customer) (*domain.SavedCard, error)
	DeleteCard(ctx context.Context, serviceCustomerID string) error
}

// SavedCardRepo persists the non-sensitive saved-card references.
type SavedCardRepo interface {
	Create(ctx context.Context, card *domain.SavedCard) error
	GetByUserID(ctx context.Context, userID string) (*domain.SavedCard, error)
	DeleteByCustomerID(ctx context.Context, serviceCustomerID string) error
}
