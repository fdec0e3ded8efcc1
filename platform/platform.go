package platform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jrsteele09/social-connect/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Platform identifies a supported third-party social network
type Platform string

const (
	Twitter   Platform = "twitter"
	Instagram Platform = "instagram"
	TikTok    Platform = "tiktok"
	Facebook  Platform = "facebook"
)

// Messages holds the user facing copy for a platform's connection flow
type Messages struct {
	Processing string // Shown while the code is being exchanged
	Connected  string // Terminal success text
	Failed     string // Fallback when the gateway gives no reason
}

// Config parameterises the generic connect/callback flow for one platform
type Config struct {
	Platform       Platform
	DisplayName    string
	StoragePrefix  string // Prefix of the browser storage keys, e.g. "twitter" -> twitter_oauth_state
	GatewayPrefix  string // Path segment on the gateway, e.g. "x" -> /x/auth/url
	DashboardRoute string // Where the browser lands after a successful connection
	ErrorRoute     string // Where the browser lands after a failed connection

	// RequireURLState rejects callbacks that arrive without a state parameter
	// instead of falling back to the stored one.
	RequireURLState bool

	Messages Messages
}

// StateKey is the browser storage key holding the pending state value
func (c Config) StateKey() string {
	return c.StoragePrefix + "_oauth_state"
}

// TimestampKey is the browser storage key holding the attempt creation time (unix millis)
func (c Config) TimestampKey() string {
	return c.StoragePrefix + "_oauth_timestamp"
}

// UserKey stores the username of the connected account after a successful callback
func (c Config) UserKey() string {
	return c.StoragePrefix + "_user"
}

// Title returns the display name, deriving one from the platform id when unset
func (c Config) Title() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return cases.Title(language.English).String(string(c.Platform))
}

func newConfig(p Platform, displayName, gatewayPrefix, dashboard string, requireURLState bool) Config {
	return Config{
		Platform:        p,
		DisplayName:     displayName,
		StoragePrefix:   string(p),
		GatewayPrefix:   gatewayPrefix,
		DashboardRoute:  dashboard,
		ErrorRoute:      dashboard,
		RequireURLState: requireURLState,
		Messages: Messages{
			Processing: fmt.Sprintf("Processing %s connection...", displayName),
			Connected:  fmt.Sprintf("%s account connected successfully!", displayName),
			Failed:     fmt.Sprintf("Failed to connect %s account", displayName),
		},
	}
}

var registry = map[Platform]Config{
	Twitter:   newConfig(Twitter, "Twitter", "x", "/dashboard/x", false),
	Instagram: newConfig(Instagram, "Instagram", "insta", "/dashboard/instagram", true),
	TikTok:    newConfig(TikTok, "TikTok", "tiktok", "/dashboard/tiktok", false),
	Facebook:  newConfig(Facebook, "Facebook", "facebook", "/dashboard/facebook", false),
}

var aliases = map[string]Platform{
	"x":     Twitter,
	"insta": Instagram,
}

// Parse resolves a platform name or one of its gateway aliases ("x", "insta")
func Parse(name string) (Platform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if p, ok := aliases[name]; ok {
		return p, nil
	}
	if _, ok := registry[Platform(name)]; ok {
		return Platform(name), nil
	}
	return "", errors.Wrapf(errors.ErrUnknownPlatform, "platform %q", name)
}

// Lookup returns the flow configuration for p
func Lookup(p Platform) (Config, bool) {
	c, ok := registry[p]
	return c, ok
}

// MustLookup is Lookup for platforms known at compile time
func MustLookup(p Platform) Config {
	c, ok := registry[p]
	if !ok {
		panic("platform not registered: " + string(p))
	}
	return c
}

// All returns every registered platform sorted by id
func All() []Config {
	all := make([]Config, 0, len(registry))
	for _, c := range registry {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Platform < all[j].Platform })
	return all
}
