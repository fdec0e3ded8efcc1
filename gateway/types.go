package gateway

import (
	"bytes"
	"encoding/json"

	"github.com/jrsteele09/social-connect/internal/utils"
)

// ID accepts both JSON strings and numbers. The auth service and the
// providers disagree on which they send.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// AuthURLResponse is returned by GET /{prefix}/auth/url. Some gateway
// routes nest the payload under "data".
type AuthURLResponse struct {
	AuthURL string `json:"authUrl,omitempty"`
	State   string `json:"state,omitempty"`
	Data    *struct {
		AuthURL string `json:"authUrl,omitempty"`
		State   string `json:"state,omitempty"`
	} `json:"data,omitempty"`
}

// URL returns the authorization URL wherever the gateway put it
func (r *AuthURLResponse) URL() string {
	if r.Data != nil {
		return utils.FirstNonEmpty(r.AuthURL, r.Data.AuthURL)
	}
	return r.AuthURL
}

// StateValue returns the state the gateway reported, if any
func (r *AuthURLResponse) StateValue() string {
	if r.Data != nil {
		return utils.FirstNonEmpty(r.State, r.Data.State)
	}
	return r.State
}

// ExchangeRequest is the body of POST /{prefix}/auth/callback
type ExchangeRequest struct {
	Code   string `json:"code"`
	State  string `json:"state"`
	UserID string `json:"userId,omitempty"`
}

// ConnectedAccount is the profile of the third-party account the gateway linked.
// The gateway keeps the access token; it is only passed through for display.
type ConnectedAccount struct {
	PlatformUserID    ID     `json:"id,omitempty"`
	Username          string `json:"username,omitempty"`
	Name              string `json:"name,omitempty"`
	DisplayName       string `json:"displayName,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

// ExchangeResponse is what the gateway answers to a code exchange
type ExchangeResponse struct {
	Success     bool              `json:"success"`
	AccessToken string            `json:"accessToken,omitempty"`
	User        *ConnectedAccount `json:"user,omitempty"`
	Username    string            `json:"username,omitempty"`
	Message     string            `json:"message,omitempty"`
	Error       string            `json:"error,omitempty"`
	Data        *struct {
		AccessToken string            `json:"accessToken,omitempty"`
		User        *ConnectedAccount `json:"user,omitempty"`
	} `json:"data,omitempty"`
}

// normalize lifts fields nested under "data" to the top level
func (r *ExchangeResponse) normalize() {
	if r.Data != nil {
		r.AccessToken = utils.FirstNonEmpty(r.AccessToken, r.Data.AccessToken)
		if r.User == nil {
			r.User = r.Data.User
		}
	}
	if r.Username == "" && r.User != nil {
		r.Username = r.User.Username
	}
	r.Message = utils.FirstNonEmpty(r.Message, r.Error)
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3"`
}

// AuthUser is the user object the auth service returns next to the token
type AuthUser struct {
	ID       ID     `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	AccessToken       string    `json:"accessToken,omitempty"`
	AccessTokenLegacy string    `json:"access_token,omitempty"`
	User              *AuthUser `json:"user,omitempty"`
	Message           string    `json:"message,omitempty"`
}

// Token returns the bearer token in either of the formats the auth service uses
func (r *AuthResponse) Token() string {
	return utils.FirstNonEmpty(r.AccessToken, r.AccessTokenLegacy)
}

// PostsQuery pages through posts with the after cursor
type PostsQuery struct {
	Sync  bool
	After string
	Limit int
	Skip  int
}

// AnalyticsQuery carries the optional YYYY-MM-DD range and, for post analytics, the ids
type AnalyticsQuery struct {
	StartDate string
	EndDate   string
	PostIDs   []string
}
