package service

import (
	"slices"
	"strings"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/pkg/mgmtsdk"
)

// DefaultExcludedMarkers match the provider's own management consoles.
var DefaultExcludedMarkers = []string{"Auth0 Management", "All Applications"}

// ExclusionPolicy decides which applications are never shown to users.
type ExclusionPolicy struct {
	// NameMarkers exclude any application whose name contains one of them.
	// Matching is case-sensitive.
	NameMarkers []string

	// ClientIDs exclude applications by exact client id.
	ClientIDs []string
}

// DefaultExclusionPolicy returns the policy used when nothing is configured.
func DefaultExclusionPolicy() ExclusionPolicy {
	return ExclusionPolicy{NameMarkers: slices.Clone(DefaultExcludedMarkers)}
}

// Excludes reports whether app must be hidden.
func (p ExclusionPolicy) Excludes(app mgmtsdk.Application) bool {
	for _, marker := range p.NameMarkers {
		if marker != "" && strings.Contains(app.Name, marker) {
			return true
		}
	}
	return slices.Contains(p.ClientIDs, app.ClientID)
}

// Aggregate filters apps down to those the user may see and pairs them with
// the user's identities. It keeps provider order and has no side effects.
//
// An application is visible when the policy does not exclude it and it is
// either global or the target of one of the user's permissions.
func Aggregate(
	apps []mgmtsdk.Application,
	perms []mgmtsdk.Permission,
	idents []mgmtsdk.Identity,
	policy ExclusionPolicy,
) domain.UserApps {
	granted := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		granted[p.ResourceServerIdentifier] = struct{}{}
	}

	out := domain.UserApps{
		Applications: []domain.AuthorizedApp{},
		Connections:  idents,
	}
	if out.Connections == nil {
		out.Connections = []mgmtsdk.Identity{}
	}

	for _, app := range apps {
		if policy.Excludes(app) {
			continue
		}
		if !app.Global {
			if _, ok := granted[app.ClientID]; !ok {
				continue
			}
		}
		out.Applications = append(out.Applications, project(app))
	}
	return out
}

func project(app mgmtsdk.Application) domain.AuthorizedApp {
	view := domain.AuthorizedApp{
		ID:          app.ClientID,
		Name:        app.Name,
		Description: app.Description,
		LogoURI:     app.LogoURI,
		AppType:     app.AppType,
	}
	if len(app.Callbacks) > 0 && app.Callbacks[0] != "" {
		cb := app.Callbacks[0]
		view.CallbackURL = &cb
	}
	return view
}
