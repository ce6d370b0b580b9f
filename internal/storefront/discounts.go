package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// ListDiscounts fetches the coupons currently applied to the user's cart.
func (c *Client) ListDiscounts(ctx context.Context, userID string) ([]domain.Discount, error) {
	var resp struct {
		Discounts []domain.Discount `json:"discounts"`
	}
	path := fmt.Sprintf("/v1/users/%s/discounts", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Discounts, nil
}

// AddDiscount applies a coupon code to the user's cart.
func (c *Client) AddDiscount(ctx context.Context, userID, couponCode string) (*domain.Discount, error) {
	var applied domain.Discount
	path := fmt.Sprintf("/v1/users/%s/discounts", url.PathEscape(userID))
	body := map[string]string{"coupon_code": couponCode}
	if err := c.do(ctx, http.MethodPost, path, body, &applied); err != nil {
		return nil, err
	}
	return &applied, nil
}

// RemoveDiscount removes an applied coupon. Callers keep the coupon visible
// until this call succeeds.
func (c *Client) RemoveDiscount(ctx context.Context, userID, discountID string) error {
	path := fmt.Sprintf("/v1/users/%s/discounts/%s", url.PathEscape(userID), url.PathEscape(discountID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
