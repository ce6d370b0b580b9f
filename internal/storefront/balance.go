package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// GetBalance fetches the user's store-credit state.
func (c *Client) GetBalance(ctx context.Context, userID string) (*domain.CustomerBalance, error) {
	var balance domain.CustomerBalance
	path := fmt.Sprintf("/v1/users/%s/balance", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// SetBalanceActive toggles whether store credit is applied to the current
// order, returning the updated balance state.
func (c *Client) SetBalanceActive(ctx context.Context, userID string, active bool) (*domain.CustomerBalance, error) {
	var balance domain.CustomerBalance
	path := fmt.Sprintf("/v1/users/%s/balance", url.PathEscape(userID))
	body := map[string]bool{"active": active}
	if err := c.do(ctx, http.MethodPut, path, body, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}
