package platform_test

import (
	"testing"

	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/jrsteele09/social-connect/platform"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want platform.Platform
	}{
		{"twitter", platform.Twitter},
		{"X", platform.Twitter},
		{"insta", platform.Instagram},
		{" instagram ", platform.Instagram},
		{"tiktok", platform.TikTok},
		{"facebook", platform.Facebook},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := platform.Parse(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, p)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := platform.Parse("myspace")
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrUnknownPlatform))
	})
}

func TestConfigKeys(t *testing.T) {
	c := platform.MustLookup(platform.Twitter)
	require.Equal(t, "twitter_oauth_state", c.StateKey())
	require.Equal(t, "twitter_oauth_timestamp", c.TimestampKey())
	require.Equal(t, "twitter_user", c.UserKey())
	require.Equal(t, "x", c.GatewayPrefix)
	require.Equal(t, "/dashboard/x", c.DashboardRoute)
	require.Equal(t, "Twitter account connected successfully!", c.Messages.Connected)

	require.True(t, platform.MustLookup(platform.Instagram).RequireURLState)
	require.False(t, platform.MustLookup(platform.TikTok).RequireURLState)
}

func TestConfigTitle(t *testing.T) {
	require.Equal(t, "TikTok", platform.MustLookup(platform.TikTok).Title())
	require.Equal(t, "Mastodon", platform.Config{Platform: "mastodon"}.Title())
}

func TestAll(t *testing.T) {
	all := platform.All()
	require.Len(t, all, 4)
	require.Equal(t, platform.Facebook, all[0].Platform)
	require.Equal(t, platform.Twitter, all[3].Platform)
}
