package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/portal/pkg/mgmtsdk"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	tokenErr error
	apps     []mgmtsdk.Application
	perms    []mgmtsdk.Permission
	idents   []mgmtsdk.Identity
	appsErr  error
	permsErr error
	identErr error

	reads atomic.Int32
}

func (f *fakeAPI) Token(context.Context) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "tok", nil
}

func (f *fakeAPI) ListApplications(_ context.Context, token string) ([]mgmtsdk.Application, error) {
	f.reads.Add(1)
	if token != "tok" {
		return nil, errors.New("bad token")
	}
	return f.apps, f.appsErr
}

func (f *fakeAPI) GetUserPermissions(_ context.Context, _, _ string) ([]mgmtsdk.Permission, error) {
	f.reads.Add(1)
	return f.perms, f.permsErr
}

func (f *fakeAPI) GetUserIdentities(_ context.Context, _, _ string) ([]mgmtsdk.Identity, error) {
	f.reads.Add(1)
	return f.idents, f.identErr
}

type recordingObserver struct {
	mu          sync.Mutex
	tokenErrs   []error
	failedOps   []string
	served      int
	lastDegrade bool
}

func (r *recordingObserver) TokenFailed(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenErrs = append(r.tokenErrs, err)
}

func (r *recordingObserver) FetchFailed(_ context.Context, op string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedOps = append(r.failedOps, op)
}

func (r *recordingObserver) UserAppsServed(_ context.Context, _, _ int, degraded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.served++
	r.lastDegrade = degraded
}

func sampleAPI() *fakeAPI {
	return &fakeAPI{
		apps: []mgmtsdk.Application{
			{ClientID: "a1", Name: "App One", Callbacks: []string{"https://a/cb"}},
			{ClientID: "g1", Name: "Global", Global: true},
		},
		perms:  []mgmtsdk.Permission{{ResourceServerIdentifier: "a1"}},
		idents: []mgmtsdk.Identity{{Connection: "github", Provider: "github", IsSocial: true}},
	}
}

func TestUserApps(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	obs := &recordingObserver{}
	svc := &AppsService{API: api, Policy: DefaultExclusionPolicy(), Observer: obs}

	out, err := svc.UserApps(context.Background(), "auth0|1")
	require.NoError(t, err)
	require.Len(t, out.Applications, 2)
	require.Len(t, out.Connections, 1)
	require.False(t, out.Degraded)
	require.Equal(t, int32(3), api.reads.Load())
	require.Equal(t, 1, obs.served)
	require.Empty(t, obs.failedOps)
}

func TestUserAppsDegraded(t *testing.T) {
	t.Parallel()

	t.Run("permissions failure leaves only global apps", func(t *testing.T) {
		api := sampleAPI()
		api.permsErr = &mgmtsdk.UpstreamFetchError{Op: mgmtsdk.OpGetUserPermissions, Status: 500}
		obs := &recordingObserver{}
		svc := &AppsService{API: api, Policy: DefaultExclusionPolicy(), Observer: obs}

		out, err := svc.UserApps(context.Background(), "auth0|1")
		require.NoError(t, err)
		require.Len(t, out.Applications, 1)
		require.Equal(t, "g1", out.Applications[0].ID)
		require.True(t, out.Degraded)
		require.Equal(t, []string{mgmtsdk.OpGetUserPermissions}, obs.failedOps)
		require.True(t, obs.lastDegrade)
	})

	t.Run("applications failure yields empty list", func(t *testing.T) {
		api := sampleAPI()
		api.appsErr = errors.New("boom")
		svc := &AppsService{API: api, Policy: DefaultExclusionPolicy(), Observer: &recordingObserver{}}

		out, err := svc.UserApps(context.Background(), "auth0|1")
		require.NoError(t, err)
		require.Empty(t, out.Applications)
		require.Len(t, out.Connections, 1)
	})

	t.Run("identities failure yields empty connections", func(t *testing.T) {
		api := sampleAPI()
		api.identErr = errors.New("boom")
		svc := &AppsService{API: api, Policy: DefaultExclusionPolicy(), Observer: &recordingObserver{}}

		out, err := svc.UserApps(context.Background(), "auth0|1")
		require.NoError(t, err)
		require.NotNil(t, out.Connections)
		require.Empty(t, out.Connections)
	})

	t.Run("every read failing", func(t *testing.T) {
		api := sampleAPI()
		api.appsErr, api.permsErr, api.identErr = errors.New("a"), errors.New("p"), errors.New("i")
		obs := &recordingObserver{}
		svc := &AppsService{API: api, Policy: DefaultExclusionPolicy(), Observer: obs}

		out, err := svc.UserApps(context.Background(), "auth0|1")
		require.NoError(t, err)
		require.Empty(t, out.Applications)
		require.Empty(t, out.Connections)
		require.ElementsMatch(t, []string{
			mgmtsdk.OpListApplications,
			mgmtsdk.OpGetUserPermissions,
			mgmtsdk.OpGetUserIdentities,
		}, obs.failedOps)
	})
}

func TestUserAppsTokenFailure(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	api.tokenErr = &mgmtsdk.UpstreamAuthError{Status: 401, Payload: `{"error":"access_denied"}`}
	obs := &recordingObserver{}
	svc := &AppsService{API: api, Policy: DefaultExclusionPolicy(), Observer: obs}

	_, err := svc.UserApps(context.Background(), "auth0|1")
	var authErr *mgmtsdk.UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	require.ErrorIs(t, err, ErrTokenUnavailable)
	require.Equal(t, int32(0), api.reads.Load())
	require.Len(t, obs.tokenErrs, 1)
	require.Zero(t, obs.served)
}

func TestUserAppsRequiresUserID(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	svc := &AppsService{API: api, Policy: DefaultExclusionPolicy()}

	_, err := svc.UserApps(context.Background(), "")
	require.ErrorIs(t, err, ErrInternalAggregation)
	require.Equal(t, int32(0), api.reads.Load())
}

func TestObserversFanOut(t *testing.T) {
	t.Parallel()

	a, b := &recordingObserver{}, &recordingObserver{}
	obs := Observers(a, nil, b)
	obs.FetchFailed(context.Background(), "op", errors.New("x"))
	obs.UserAppsServed(context.Background(), 1, 1, true)

	require.Equal(t, []string{"op"}, a.failedOps)
	require.Equal(t, []string{"op"}, b.failedOps)
	require.Equal(t, 1, a.served)
	require.Equal(t, 1, b.served)
}
