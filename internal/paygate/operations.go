package paygate

import (
	"context"
	"net/http"

	"github.com/marketfresh/checkoutapi/internal/domain"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

// CreateInstrumentIdentifier registers the card number with the gateway and
// returns the instrument identifier token.
func (c *Client) CreateInstrumentIdentifier(ctx context.Context, card domain.CardDetails) (string, error) {
	body := map[string]interface{}{
		"card": map[string]string{
			"number":          card.Number,
			"expirationMonth": card.ExpiryMonth,
			"expirationYear":  card.ExpiryYear,
			"securityCode":    card.CVV,
		},
	}
	resp, err := c.call(ctx, "createInstrumentIdentifier", http.MethodPost, "/tms/v1/instrumentidentifiers", body)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CreateCustomer creates (idempotently) a customer record for the shopper.
func (c *Client) CreateCustomer(ctx context.Context, customer domain.Customer) (string, error) {
	body := map[string]interface{}{
		"buyerInformation": map[string]string{
			"merchantCustomerID": customer.UserID,
			"email":              customer.Email,
		},
		"clientReferenceInformation": map[string]string{
			"code": customer.UserID,
		},
	}
	resp, err := c.call(ctx, "createCustomer", http.MethodPost, "/tms/v2/customers", body)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// AttachPaymentInstrument links the instrument identifier to the customer
// with its billing details, making the card reusable for captures.
func (c *Client) AttachPaymentInstrument(ctx context.Context, customerID, instrumentID string, card domain.CardDetails, billing domain.Address) (string, error) {
	body := map[string]interface{}{
		"card": map[string]string{
			"expirationMonth": card.ExpiryMonth,
			"expirationYear":  card.ExpiryYear,
			"type":            card.Brand,
		},
		"billTo": map[string]string{
			"firstName":  card.OwnerName,
			"address1":   billing.Line1,
			"locality":   billing.City,
			"postalCode": billing.PostalCode,
			"email":      billing.ContactEmail,
		},
		"instrumentIdentifier": map[string]string{
			"id": instrumentID,
		},
	}
	path := "/tms/v2/customers/" + customerID + "/payment-instruments"
	resp, err := c.call(ctx, "attachPaymentInstrument", http.MethodPost, path, body)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CapturePayment charges the saved card. The CVV is carried transiently and
// is not kept anywhere after this call. The fingerprint session ID correlates
// the fraud-detection beacon with this capture. A declined transaction is
// terminal for the attempt.
func (c *Client) CapturePayment(ctx context.Context, card *domain.SavedCard, cvv string, amount float64, addressID, fingerprintSessionID string) (string, error) {
	body := map[string]interface{}{
		"paymentInformation": map[string]interface{}{
			"customer": map[string]string{
				"id": card.ServiceCustomerID,
			},
			"card": map[string]string{
				"securityCode": cvv,
			},
		},
		"orderInformation": map[string]interface{}{
			"amountDetails": map[string]interface{}{
				"totalAmount": amount,
			},
			"shipTo": map[string]string{
				"addressId": addressID,
			},
		},
		"deviceInformation": map[string]string{
			"fingerprintSessionId": fingerprintSessionID,
		},
		"processingInformation": map[string]bool{
			"capture": true,
		},
	}
	resp, err := c.call(ctx, "capturePayment", http.MethodPost, "/pts/v2/payments", body)
	if err != nil {
		return "", err
	}
	if resp.Status == "DECLINED" {
		return "", &apperrors.PaymentDeclined{Reason: "transaction declined by gateway"}
	}
	return resp.ID, nil
}

// DeleteCustomer removes the customer record, detaching every instrument
// held under it.
func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	path := "/tms/v2/customers/" + customerID
	_, err := c.call(ctx, "deleteCustomer", http.MethodDelete, path, nil)
	return err
}
