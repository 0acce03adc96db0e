package mgmtsdk

import "context"

// Operation names used in UpstreamFetchError.Op and in metrics labels.
const (
	OpListApplications   = "list_applications"
	OpGetUserPermissions = "get_user_permissions"
	OpGetUserIdentities  = "get_user_identities"
)

// ListApplications returns every client registered with the tenant, in
// provider order.
func (c *Client) ListApplications(ctx context.Context, token string) ([]Application, error) {
	return listPages[Application](ctx, c, OpListApplications, "/api/v2/clients", "clients", token)
}
