package mgmtsdk

import (
	"context"
	"net/url"
)

// GetUserPermissions returns the permissions granted to userID.
func (c *Client) GetUserPermissions(ctx context.Context, token, userID string) ([]Permission, error) {
	path := "/api/v2/users/" + url.PathEscape(userID) + "/permissions"
	return listPages[Permission](ctx, c, OpGetUserPermissions, path, "permissions", token)
}

// GetUserIdentities returns the identities linked to userID. The endpoint
// is not paginated.
func (c *Client) GetUserIdentities(ctx context.Context, token, userID string) ([]Identity, error) {
	path := "/api/v2/users/" + url.PathEscape(userID) + "/identities"

	var identities []Identity
	if err := c.getJSON(ctx, OpGetUserIdentities, path, nil, token, &identities); err != nil {
		return nil, err
	}
	if identities == nil {
		identities = []Identity{}
	}
	return identities, nil
}
