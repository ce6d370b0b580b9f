package domain

import (
	"time"

	"github.com/google/uuid"
)

// Address represents a delivery destination selected (not owned) by a
// checkout session.
type Address struct {
	ID           string            `json:"id"`
	Line1        string            `json:"line1"`
	Line2        string            `json:"line2,omitempty"`
	City         string            `json:"city"`
	Region       string            `json:"region,omitempty"`
	PostalCode   string            `json:"postal_code"`
	Latitude     float64           `json:"latitude,omitempty"`
	Longitude    float64           `json:"longitude,omitempty"`
	ContactName  string            `json:"contact_name"`
	ContactEmail string            `json:"contact_email,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// ShippingDate is a deliverable date/time slot.
type ShippingDate struct {
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
	IsActive bool   `json:"is_active"`
	Disabled bool   `json:"disabled"`
}

// Selectable reports whether the slot may be chosen by the user.
func (d ShippingDate) Selectable() bool {
	return d.IsActive && !d.Disabled
}

// PaymentMethod is a payment option offered for the session. SystemName is
// the discriminator used to pick a capture strategy.
type PaymentMethod struct {
	SystemName  string     `json:"system_name"`
	DisplayName string     `json:"display_name"`
	LogoURL     string     `json:"logo_url,omitempty"`
	SavedCard   *SavedCard `json:"saved_card,omitempty"`
}

// SavedCard is a non-sensitive reference to a tokenized payment instrument.
// It never holds the card number or CVV; the CVV is captured transiently per
// payment and discarded after capture.
type SavedCard struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	OwnerName         string    `json:"owner_name"`
	Brand             string    `json:"brand"`
	LastFourDigits    string    `json:"last_four_digits"`
	LogoURL           string    `json:"logo_url,omitempty"`
	ServiceCustomerID string    `json:"service_customer_id"`
	BillingLine1      string    `json:"billing_line1"`
	BillingCity       string    `json:"billing_city"`
	BillingRegion     string    `json:"billing_region,omitempty"`
	BillingPostalCode string    `json:"billing_postal_code"`
	BillingCountry    string    `json:"billing_country"`
	CreatedAt         time.Time `json:"created_at"`
}

// CardDetails holds raw card input for tokenization. It is never persisted
// and never attached to a session.
type CardDetails struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
	OwnerName   string `json:"owner_name"`
	Brand       string `json:"brand"`
}

// Customer identifies the shopper to the tokenization gateway.
type Customer struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
}

// Discount is an applied coupon. It appears in the active set only while the
// server confirms it applied; removal is a server round-trip.
type Discount struct {
	ID          string `json:"id"`
	CouponCode  string `json:"coupon_code"`
	DisplayName string `json:"display_name"`
}

// OrderTotals is a derived aggregate computed server-side from cart state.
// It is recomputed, never mutated locally.
type OrderTotals struct {
	Subtotal       float64  `json:"subtotal"`
	Shipping       float64  `json:"shipping"`
	ItemDiscount   float64  `json:"item_discount"`
	OrderDiscount  float64  `json:"order_discount"`
	OrderTotal     float64  `json:"order_total"`
	BalanceApplied float64  `json:"balance_applied"`
	CartItemIDs    []string `json:"cart_item_ids"`
}

// CustomerBalance is the shopper's store-credit state. Toggling Active
// recomputes OrderTotals.
type CustomerBalance struct {
	Balance        float64 `json:"balance"`
	UsableForOrder float64 `json:"usable_for_order"`
	Active         bool    `json:"active"`
}

// APIClient represents a frontend client allowed to drive checkout sessions
type APIClient struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PlaceOrderRequest is the snapshot submitted for order placement. An empty
// PaymentMethodSystemName with no PaymentResult is the zero-total path.
type PlaceOrderRequest struct {
	PaymentMethodSystemName string   `json:"payment_method_system_name"`
	ShippingDate            string   `json:"shipping_date"`
	ShippingTime            string   `json:"shipping_time"`
	AddressID               string   `json:"address_id"`
	PaymentResult           string   `json:"payment_result,omitempty"`
	CartItemIDs             []string `json:"cart_item_ids"`
}
