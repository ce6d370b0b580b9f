package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// ListAddresses fetches the user's saved delivery addresses.
func (c *Client) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	var resp struct {
		Addresses []domain.Address `json:"addresses"`
	}
	path := fmt.Sprintf("/v1/users/%s/addresses", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

// CreateAddress persists a new delivery address for the user.
func (c *Client) CreateAddress(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error) {
	var created domain.Address
	path := fmt.Sprintf("/v1/users/%s/addresses", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodPost, path, addr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteAddress removes a delivery address.
func (c *Client) DeleteAddress(ctx context.Context, userID, addressID string) error {
	path := fmt.Sprintf("/v1/users/%s/addresses/%s", url.PathEscape(userID), url.PathEscape(addressID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ValidatePostalCode asks the backend whether the postal code is inside the
// delivery zone.
func (c *Client) ValidatePostalCode(ctx context.Context, postalCode string) (bool, error) {
	var resp struct {
		Covered bool `json:"covered"`
	}
	path := "/v1/delivery/coverage?postal_code=" + url.QueryEscape(postalCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Covered, nil
}
