package storefront

import (
	"context"
	"net/http"
	"net/url"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// ListShippingDates fetches deliverable date slots for a postal code. The
// list must be refetched whenever the selected address's postal code changes.
func (c *Client) ListShippingDates(ctx context.Context, postalCode string) ([]domain.ShippingDate, error) {
	var resp struct {
		Dates []domain.ShippingDate `json:"dates"`
	}
	path := "/v1/shipping/dates?postal_code=" + url.QueryEscape(postalCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dates, nil
}
