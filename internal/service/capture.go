package service

import (
	"context"

	"github.com/marketfresh/checkoutapi/internal/domain"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

// CaptureParams is the snapshot a capture strategy needs for one attempt.
type CaptureParams struct {
	Card                 *domain.SavedCard
	CVV                  string
	Amount               float64
	AddressID            string
	FingerprintSessionID string
}

// PaymentCapture is one payment provider's capture strategy, selected by the
// method's system name. The returned string is an opaque payment reference
// passed through to order placement; pay-on-delivery strategies return "".
type PaymentCapture interface {
	SystemName() string
	Capture(ctx context.Context, p CaptureParams) (string, error)
}

// CaptureRegistry maps method system names to capture strategies. Methods
// with no registered strategy are treated as pay-on-delivery.
type CaptureRegistry struct {
	byName map[string]PaymentCapture
}

// NewCaptureRegistry builds a registry from the given strategies.
func NewCaptureRegistry(strategies ...PaymentCapture) *CaptureRegistry {
	r := &CaptureRegistry{byName: make(map[string]PaymentCapture, len(strategies))}
	for _, s := range strategies {
		r.byName[s.SystemName()] = s
	}
	return r
}

// Lookup returns the strategy for a system name, or nil for
// pay-on-delivery methods.
func (r *CaptureRegistry) Lookup(systemName string) PaymentCapture {
	return r.byName[systemName]
}

// cardGatewayCapture charges a tokenized card through the external gateway.
type cardGatewayCapture struct {
	gateway TokenGateway
}

// NewCardGatewayCapture creates the card-gateway capture strategy
func NewCardGatewayCapture(gateway TokenGateway) *cardGatewayCapture {
	return &cardGatewayCapture{gateway: gateway}
}

func (c *cardGatewayCapture) SystemName() string {
	return domain.MethodVisaGateway
}

func (c *cardGatewayCapture) Capture(ctx context.Context, p CaptureParams) (string, error) {
	if p.Card == nil {
		return "", &apperrors.GatewayError{Operation: "capturePayment", Reason: "no saved card attached"}
	}
	return c.gateway.CapturePayment(ctx, p.Card, p.CVV, p.Amount, p.AddressID, p.FingerprintSessionID)
}

// onDeliveryCapture covers cash and benefits methods: the order is placed
// immediately with no gateway call.
type onDeliveryCapture struct {
	systemName string
}

// NewOnDeliveryCapture creates a no-op capture strategy for a method paid
// at the door.
func NewOnDeliveryCapture(systemName string) *onDeliveryCapture {
	return &onDeliveryCapture{systemName: systemName}
}

func (c *onDeliveryCapture) SystemName() string {
	return c.systemName
}

func (c *onDeliveryCapture) Capture(ctx context.Context, p CaptureParams) (string, error) {
	return "", nil
}
