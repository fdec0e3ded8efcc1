package config

import "time"

type SecurityConfig interface {
	GetAuthJWTSecret() string
	GetAuthOIDCIssuer() string
	GetAuthOIDCClientID() string
	GetBrowserCookieMaxAge() time.Duration
	GetMaxBrowsers() int
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetAuthJWTSecret turns on HMAC verification of bearer tokens issued by the auth service
func (Security) GetAuthJWTSecret() string {
	return GetEnv("AUTH_JWT_SECRET", "")
}

// GetAuthOIDCIssuer turns on OIDC verification of bearer tokens. Takes precedence over the secret.
func (Security) GetAuthOIDCIssuer() string {
	return GetEnv("AUTH_OIDC_ISSUER", "")
}

func (Security) GetAuthOIDCClientID() string {
	return GetEnv("AUTH_OIDC_CLIENT_ID", "")
}

func (Security) GetBrowserCookieMaxAge() time.Duration {
	return GetEnvDuration("BROWSER_COOKIE_MAX_AGE", 30*24*time.Hour)
}

// GetMaxBrowsers bounds the in-memory browser storage
func (Security) GetMaxBrowsers() int {
	return GetEnvInt("MAX_BROWSERS", 10000)
}
