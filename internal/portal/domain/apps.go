package domain

import "github.com/aussiebroadwan/portal/pkg/mgmtsdk"

// AuthorizedApp is the view of an application a user is allowed to see.
type AuthorizedApp struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	LogoURI     string  `json:"logo_uri,omitempty"`
	AppType     string  `json:"app_type,omitempty"`
	CallbackURL *string `json:"callback_url"` // null when the app has no callbacks
}

// UserApps is the body of GET /api/user-apps.
type UserApps struct {
	Applications []AuthorizedApp    `json:"applications"`
	Connections  []mgmtsdk.Identity `json:"connections"`

	// Degraded is set when at least one upstream read failed and was
	// replaced by an empty result.
	Degraded bool `json:"-"`
}
