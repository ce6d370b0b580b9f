package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// ListPaymentMethods fetches the payment options offered to the user, each
// optionally carrying a saved-card descriptor.
func (c *Client) ListPaymentMethods(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	var resp struct {
		Methods []domain.PaymentMethod `json:"methods"`
	}
	path := fmt.Sprintf("/v1/users/%s/payment-methods", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Methods, nil
}
