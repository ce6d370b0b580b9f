package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// GetOrderTotals recomputes the current order totals from server-side cart
// state. Totals are derived data and are never adjusted locally.
func (c *Client) GetOrderTotals(ctx context.Context, userID string) (*domain.OrderTotals, error) {
	var totals domain.OrderTotals
	path := fmt.Sprintf("/v1/users/%s/order-totals", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

// GetMinimumOrderMessage returns the date-specific minimum-order restriction
// for the user's cart. An empty string means no restriction applies.
func (c *Client) GetMinimumOrderMessage(ctx context.Context, userID, date string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/v1/users/%s/minimum-order?date=%s", url.PathEscape(userID), url.QueryEscape(date))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// PlaceOrder submits the final order snapshot and returns the new order ID.
func (c *Client) PlaceOrder(ctx context.Context, userID string, req domain.PlaceOrderRequest) (string, error) {
	var resp struct {
		OrderID string `json:"order_id"`
	}
	path := fmt.Sprintf("/v1/users/%s/orders", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}
	return resp.OrderID, nil
}
