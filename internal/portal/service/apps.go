package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/pkg/mgmtsdk"
)

var (
	// ErrInternalAggregation marks failures that are neither token nor
	// fetch errors. Callers map it to a generic 500.
	ErrInternalAggregation = errors.New("internal aggregation error")

	// ErrTokenUnavailable wraps management token failures. They have
	// already been reported to the Observer.
	ErrTokenUnavailable = errors.New("management token unavailable")
)

// ManagementAPI is the subset of mgmtsdk.Client the apps service needs.
type ManagementAPI interface {
	Token(ctx context.Context) (string, error)
	ListApplications(ctx context.Context, token string) ([]mgmtsdk.Application, error)
	GetUserPermissions(ctx context.Context, token, userID string) ([]mgmtsdk.Permission, error)
	GetUserIdentities(ctx context.Context, token, userID string) ([]mgmtsdk.Identity, error)
}

// AppsService computes the applications and connections visible to a user.
type AppsService struct {
	API      ManagementAPI
	Policy   ExclusionPolicy
	Observer Observer
}

// UserApps acquires a management token, reads applications, permissions and
// identities concurrently and aggregates them.
//
// A token failure aborts before any read is issued. A failed read is
// reported to the Observer and replaced by an empty result.
func (s *AppsService) UserApps(ctx context.Context, userID string) (domain.UserApps, error) {
	if userID == "" {
		return domain.UserApps{}, fmt.Errorf("%w: empty user id", ErrInternalAggregation)
	}

	obs := s.observer()

	token, err := s.API.Token(ctx)
	if err != nil {
		obs.TokenFailed(ctx, err)
		return domain.UserApps{}, fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	var (
		apps     []mgmtsdk.Application
		perms    []mgmtsdk.Permission
		idents   []mgmtsdk.Identity
		degraded [3]bool
	)

	// Each read absorbs its own error so all three always complete.
	var wg sync.WaitGroup
	wg.Go(func() {
		apps, degraded[0] = fetch(ctx, obs, mgmtsdk.OpListApplications, func() ([]mgmtsdk.Application, error) {
			return s.API.ListApplications(ctx, token)
		})
	})
	wg.Go(func() {
		perms, degraded[1] = fetch(ctx, obs, mgmtsdk.OpGetUserPermissions, func() ([]mgmtsdk.Permission, error) {
			return s.API.GetUserPermissions(ctx, token, userID)
		})
	})
	wg.Go(func() {
		idents, degraded[2] = fetch(ctx, obs, mgmtsdk.OpGetUserIdentities, func() ([]mgmtsdk.Identity, error) {
			return s.API.GetUserIdentities(ctx, token, userID)
		})
	})
	wg.Wait()

	out := Aggregate(apps, perms, idents, s.Policy)
	out.Degraded = degraded[0] || degraded[1] || degraded[2]

	obs.UserAppsServed(ctx, len(out.Applications), len(out.Connections), out.Degraded)
	return out, nil
}

func (s *AppsService) observer() Observer {
	if s.Observer == nil {
		return LogObserver{}
	}
	return s.Observer
}

// fetch runs read and substitutes an empty slice on failure.
func fetch[T any](ctx context.Context, obs Observer, op string, read func() ([]T, error)) ([]T, bool) {
	items, err := read()
	if err != nil {
		obs.FetchFailed(ctx, op, err)
		return []T{}, true
	}
	if items == nil {
		items = []T{}
	}
	return items, false
}
