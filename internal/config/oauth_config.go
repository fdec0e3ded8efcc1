package config

import "time"

type OAuthConfig interface {
	GetOAuthStateTTL() time.Duration
	GetSuccessRedirectDelay() time.Duration
	GetErrorRedirectDelay() time.Duration
	GetCallbackGuardTTL() time.Duration
	GetFacebookClientID() string
	GetFacebookClientSecret() string
	GetFacebookAuthURL() string
	GetFacebookTokenURL() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetOAuthStateTTL is the freshness window of a stored connection attempt
func (OAuth) GetOAuthStateTTL() time.Duration {
	return GetEnvDuration("OAUTH_STATE_TTL", 10*time.Minute)
}

func (OAuth) GetSuccessRedirectDelay() time.Duration {
	return 2 * time.Second
}

func (OAuth) GetErrorRedirectDelay() time.Duration {
	return 3 * time.Second
}

// GetCallbackGuardTTL is how long a processed callback is remembered so a
// repeated delivery does not reach the gateway twice.
func (OAuth) GetCallbackGuardTTL() time.Duration {
	return GetEnvDuration("OAUTH_CALLBACK_GUARD_TTL", 10*time.Minute)
}

// GetFacebookClientID enables building the Facebook authorization URL locally.
// Empty means the gateway is asked for the URL like every other platform.
func (OAuth) GetFacebookClientID() string {
	return GetEnv("FACEBOOK_CLIENT_ID", "")
}

func (OAuth) GetFacebookClientSecret() string {
	return GetEnv("FACEBOOK_CLIENT_SECRET", "")
}

func (OAuth) GetFacebookAuthURL() string {
	return GetEnv("FACEBOOK_AUTH_URL", "https://www.facebook.com/v19.0/dialog/oauth")
}

func (OAuth) GetFacebookTokenURL() string {
	return GetEnv("FACEBOOK_TOKEN_URL", "https://graph.facebook.com/v19.0/oauth/access_token")
}
