package service

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"testing"

	"github.com/aussiebroadwan/portal/pkg/mgmtsdk"
	"github.com/stretchr/testify/require"
)

func appIDs(t *testing.T, policy ExclusionPolicy, apps []mgmtsdk.Application, perms []mgmtsdk.Permission) []string {
	t.Helper()
	out := Aggregate(apps, perms, nil, policy)
	got := make([]string, 0, len(out.Applications))
	for _, a := range out.Applications {
		got = append(got, a.ID)
	}
	return got
}

func TestAggregateScenario(t *testing.T) {
	t.Parallel()

	apps := []mgmtsdk.Application{
		{ClientID: "a1", Name: "App One", Callbacks: []string{"https://a/cb"}},
		{ClientID: "a2", Name: "Auth0 Management API", Global: true},
	}
	perms := []mgmtsdk.Permission{{ResourceServerIdentifier: "a1"}}

	out := Aggregate(apps, perms, nil, DefaultExclusionPolicy())
	require.Len(t, out.Applications, 1)
	require.Equal(t, "a1", out.Applications[0].ID)
	require.Equal(t, "App One", out.Applications[0].Name)
	require.NotNil(t, out.Applications[0].CallbackURL)
	require.Equal(t, "https://a/cb", *out.Applications[0].CallbackURL)
}

func TestAggregateRules(t *testing.T) {
	t.Parallel()

	t.Run("empty application list", func(t *testing.T) {
		out := Aggregate(nil, []mgmtsdk.Permission{{ResourceServerIdentifier: "x"}}, nil, DefaultExclusionPolicy())
		require.Empty(t, out.Applications)
		require.NotNil(t, out.Applications)
	})

	t.Run("global app without permissions", func(t *testing.T) {
		apps := []mgmtsdk.Application{{ClientID: "g", Name: "Wiki", Global: true}}
		require.Equal(t, []string{"g"}, appIDs(t, DefaultExclusionPolicy(), apps, nil))
	})

	t.Run("non-global app needs an exact permission match", func(t *testing.T) {
		apps := []mgmtsdk.Application{{ClientID: "abc", Name: "Chat"}}
		require.Empty(t, appIDs(t, DefaultExclusionPolicy(), apps, []mgmtsdk.Permission{{ResourceServerIdentifier: "ABC"}}))
		require.Empty(t, appIDs(t, DefaultExclusionPolicy(), apps, []mgmtsdk.Permission{{ResourceServerIdentifier: "abc "}}))
		require.Equal(t, []string{"abc"}, appIDs(t, DefaultExclusionPolicy(), apps, []mgmtsdk.Permission{{ResourceServerIdentifier: "abc"}}))
	})

	t.Run("management apps never appear", func(t *testing.T) {
		apps := []mgmtsdk.Application{
			{ClientID: "m1", Name: "Auth0 Management API", Global: true},
			{ClientID: "m2", Name: "All Applications", Global: true},
			{ClientID: "m3", Name: "My Auth0 Management Tool"},
		}
		perms := []mgmtsdk.Permission{
			{ResourceServerIdentifier: "m1"},
			{ResourceServerIdentifier: "m2"},
			{ResourceServerIdentifier: "m3"},
		}
		require.Empty(t, appIDs(t, DefaultExclusionPolicy(), apps, perms))
	})

	t.Run("marker matching is case-sensitive", func(t *testing.T) {
		apps := []mgmtsdk.Application{{ClientID: "x", Name: "auth0 management helper", Global: true}}
		require.Equal(t, []string{"x"}, appIDs(t, DefaultExclusionPolicy(), apps, nil))
	})

	t.Run("explicit client id exclusion", func(t *testing.T) {
		policy := DefaultExclusionPolicy()
		policy.ClientIDs = []string{"hidden"}
		apps := []mgmtsdk.Application{
			{ClientID: "hidden", Name: "Internal", Global: true},
			{ClientID: "shown", Name: "Public", Global: true},
		}
		require.Equal(t, []string{"shown"}, appIDs(t, policy, apps, nil))
	})

	t.Run("order is preserved", func(t *testing.T) {
		apps := []mgmtsdk.Application{
			{ClientID: "c", Name: "C", Global: true},
			{ClientID: "a", Name: "A", Global: true},
			{ClientID: "b", Name: "B", Global: true},
		}
		require.Equal(t, []string{"c", "a", "b"}, appIDs(t, DefaultExclusionPolicy(), apps, nil))
	})

	t.Run("callback url", func(t *testing.T) {
		apps := []mgmtsdk.Application{
			{ClientID: "none", Name: "None", Global: true},
			{ClientID: "empty", Name: "Empty", Global: true, Callbacks: []string{}},
			{ClientID: "blank", Name: "Blank", Global: true, Callbacks: []string{""}},
			{ClientID: "two", Name: "Two", Global: true, Callbacks: []string{"https://1", "https://2"}},
		}
		out := Aggregate(apps, nil, nil, DefaultExclusionPolicy())
		require.Len(t, out.Applications, 4)
		require.Nil(t, out.Applications[0].CallbackURL)
		require.Nil(t, out.Applications[1].CallbackURL)
		require.Nil(t, out.Applications[2].CallbackURL)
		require.Equal(t, "https://1", *out.Applications[3].CallbackURL)

		body, err := json.Marshal(out.Applications[0])
		require.NoError(t, err)
		require.Contains(t, string(body), `"callback_url":null`)
	})

	t.Run("identities pass through unchanged", func(t *testing.T) {
		idents := []mgmtsdk.Identity{{Connection: "github", Provider: "github", IsSocial: true}}
		out := Aggregate(nil, nil, idents, DefaultExclusionPolicy())
		require.Equal(t, idents, out.Connections)

		body, err := json.Marshal(Aggregate(nil, nil, nil, DefaultExclusionPolicy()))
		require.NoError(t, err)
		require.JSONEq(t, `{"applications":[],"connections":[]}`, string(body))
	})
}

// The output is exactly the set of non-excluded apps that are global or
// targeted by a permission, in input order.
func TestAggregateMatchesDefinition(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	names := []string{"App", "Auth0 Management API", "All Applications", "Portal", "auth0 management"}
	policy := DefaultExclusionPolicy()

	for iter := 0; iter < 200; iter++ {
		var apps []mgmtsdk.Application
		for i := 0; i < rng.Intn(12); i++ {
			apps = append(apps, mgmtsdk.Application{
				ClientID: "c" + strconv.Itoa(rng.Intn(8)),
				Name:     names[rng.Intn(len(names))],
				Global:   rng.Intn(3) == 0,
			})
		}
		var perms []mgmtsdk.Permission
		for i := 0; i < rng.Intn(6); i++ {
			perms = append(perms, mgmtsdk.Permission{ResourceServerIdentifier: "c" + strconv.Itoa(rng.Intn(8))})
		}

		var want []string
		for _, a := range apps {
			if policy.Excludes(a) {
				continue
			}
			permitted := false
			for _, p := range perms {
				if p.ResourceServerIdentifier == a.ClientID {
					permitted = true
				}
			}
			if a.Global || permitted {
				want = append(want, a.ClientID)
			}
		}

		got := appIDs(t, policy, apps, perms)
		if len(want) == 0 {
			require.Empty(t, got)
			continue
		}
		require.Equal(t, want, got)
	}
}
