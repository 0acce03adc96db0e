package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/portal/pkg/mgmtsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// Observer receives the outcome of each user-apps computation. The HTTP
// layer wires a logger and a metrics recorder behind it.
type Observer interface {
	// TokenFailed is called when the management token could not be
	// obtained. The request fails.
	TokenFailed(ctx context.Context, err error)

	// FetchFailed is called for each read that fell back to an empty
	// result. op is one of the mgmtsdk.Op* names.
	FetchFailed(ctx context.Context, op string, err error)

	// UserAppsServed is called after a successful aggregation.
	UserAppsServed(ctx context.Context, applications, connections int, degraded bool)
}

// Observers fans out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var list multiObserver
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) TokenFailed(ctx context.Context, err error) {
	for _, o := range m {
		o.TokenFailed(ctx, err)
	}
}

func (m multiObserver) FetchFailed(ctx context.Context, op string, err error) {
	for _, o := range m {
		o.FetchFailed(ctx, op, err)
	}
}

func (m multiObserver) UserAppsServed(ctx context.Context, applications, connections int, degraded bool) {
	for _, o := range m {
		o.UserAppsServed(ctx, applications, connections, degraded)
	}
}

// LogObserver writes outcomes to the request logger.
type LogObserver struct{}

func (LogObserver) TokenFailed(ctx context.Context, err error) {
	args := []any{"error", err}
	var authErr *mgmtsdk.UpstreamAuthError
	if errors.As(err, &authErr) {
		args = append(args, "status", authErr.Status, "payload", authErr.Payload)
	}
	slogx.FromContext(ctx).Error("failed to get management API token", args...)
}

func (LogObserver) FetchFailed(ctx context.Context, op string, err error) {
	args := []any{"op", op, "error", err}
	var fetchErr *mgmtsdk.UpstreamFetchError
	if errors.As(err, &fetchErr) {
		args = append(args, "status", fetchErr.Status, "payload", fetchErr.Payload)
	}
	slogx.FromContext(ctx).Warn("management API read failed, continuing with empty result", args...)
}

func (LogObserver) UserAppsServed(ctx context.Context, applications, connections int, degraded bool) {
	slogx.FromContext(ctx).Debug("user apps computed",
		"applications", applications,
		"connections", connections,
		"degraded", degraded,
	)
}
