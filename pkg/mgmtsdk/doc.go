// Package mgmtsdk is a small client for the identity provider's Management
// API.
//
// It covers exactly what the portal needs: a client-credentials token
// provider with an expiry-aware shared cache, and read-only fetchers for
// registered applications, a user's permissions and a user's linked
// identities.
//
//	tokens, err := mgmtsdk.NewTokenProvider(mgmtsdk.TokenProviderConfig{
//		IssuerBaseURL: "https://tenant.example.com",
//		ClientID:      "mgmt-client",
//		ClientSecret:  "secret",
//	})
//	client := mgmtsdk.NewClient("https://tenant.example.com", tokens)
//
//	token, err := client.Token(ctx)
//	apps, err := client.ListApplications(ctx, token)
package mgmtsdk
