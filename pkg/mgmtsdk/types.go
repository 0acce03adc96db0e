package mgmtsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Application is a client registered with the provider.
type Application struct {
	ClientID    string   `json:"client_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	LogoURI     string   `json:"logo_uri,omitempty"`
	AppType     string   `json:"app_type,omitempty"`
	Callbacks   []string `json:"callbacks,omitempty"`
	Global      bool     `json:"global"`
}

// Permission ties a user to a resource server.
type Permission struct {
	PermissionName           string `json:"permission_name"`
	Description              string `json:"description,omitempty"`
	ResourceServerName       string `json:"resource_server_name,omitempty"`
	ResourceServerIdentifier string `json:"resource_server_identifier"`
}

// identitySecrets are provider credentials that can appear in an identity
// record. They are dropped on decode and never re-encoded.
var identitySecrets = []string{"access_token", "refresh_token", "access_token_secret"}

// Identity is a connection linked to a user account.
type Identity struct {
	Connection  string          `json:"connection"`
	UserID      IdentityUserID  `json:"user_id"`
	Provider    string          `json:"provider"`
	IsSocial    bool            `json:"isSocial"`
	ProfileData json.RawMessage `json:"profileData,omitempty"`

	// Extra holds the remaining upstream fields, passed through as is.
	Extra map[string]json.RawMessage `json:"-"`
}

// identityFields is Identity without its JSON methods.
type identityFields Identity

func (i *Identity) UnmarshalJSON(data []byte) error {
	var known identityFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var rest map[string]json.RawMessage
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	for _, key := range append([]string{"connection", "user_id", "provider", "isSocial", "profileData"}, identitySecrets...) {
		delete(rest, key)
	}
	if len(rest) == 0 {
		rest = nil
	}

	*i = Identity(known)
	i.Extra = rest
	return nil
}

func (i Identity) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(identityFields(i))
	if err != nil || len(i.Extra) == 0 {
		return known, err
	}

	out := make(map[string]json.RawMessage, len(i.Extra)+5)
	for key, value := range i.Extra {
		if !slices.Contains(identitySecrets, key) {
			out[key] = value
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	maps.Copy(out, fields)
	return json.Marshal(out)
}

// IdentityUserID is the user id within a connection. Some providers send
// it as a JSON number; the original representation is kept on re-encode.
type IdentityUserID struct {
	Value   string
	Numeric bool
}

func (id IdentityUserID) String() string { return id.Value }

func (id *IdentityUserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = IdentityUserID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = IdentityUserID{Value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("mgmtsdk: user_id must be a string or number: %w", err)
	}
	*id = IdentityUserID{Value: n.String(), Numeric: true}
	return nil
}

func (id IdentityUserID) MarshalJSON() ([]byte, error) {
	if id.Numeric {
		return []byte(id.Value), nil
	}
	return json.Marshal(id.Value)
}
