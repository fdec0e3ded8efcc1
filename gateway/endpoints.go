package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/social-connect/platform"
)

// GenerateAuthURL asks the gateway for the provider authorization URL.
// redirectURI and state are optional hints; the gateway may ignore them.
func (c *Client) GenerateAuthURL(ctx context.Context, cfg platform.Config, token, redirectURI, state string) (*AuthURLResponse, error) {
	query := url.Values{}
	if redirectURI != "" {
		query.Set("redirect_uri", redirectURI)
	}
	if state != "" {
		query.Set("state", state)
	}
	var resp AuthURLResponse
	_, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/" + cfg.GatewayPrefix + "/auth/url",
		endpoint: cfg.GatewayPrefix + "/auth/url",
		token:    token,
		query:    query,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.URL() == "" {
		return nil, &Error{Kind: KindExchange, Status: http.StatusBadGateway, Message: "No authorization URL received from server"}
	}
	return &resp, nil
}

// ExchangeCode hands the authorization code to the gateway, which exchanges it
// with the provider and links the account to the user.
func (c *Client) ExchangeCode(ctx context.Context, cfg platform.Config, token string, req ExchangeRequest) (*ExchangeResponse, error) {
	var resp ExchangeResponse
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/" + cfg.GatewayPrefix + "/auth/callback",
		endpoint: cfg.GatewayPrefix + "/auth/callback",
		token:    token,
		body:     req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	resp.normalize()
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = cfg.Messages.Failed
		}
		return nil, &Error{Kind: KindExchange, Message: msg}
	}
	return &resp, nil
}

// Profile returns the connected account's profile. sync forces a refresh from the provider.
func (c *Client) Profile(ctx context.Context, cfg platform.Config, token string, sync bool) (json.RawMessage, error) {
	query := url.Values{}
	if sync {
		query.Set("sync", "true")
	}
	// X serves the profile at the prefix root
	path := "/" + cfg.GatewayPrefix + "/user"
	if cfg.Platform == platform.Twitter {
		path = "/" + cfg.GatewayPrefix
	}
	return c.do(ctx, request{
		method:   http.MethodGet,
		path:     path,
		endpoint: strings.TrimPrefix(path, "/"),
		token:    token,
		query:    query,
	}, nil)
}

// Posts pages through the connected account's posts
func (c *Client) Posts(ctx context.Context, cfg platform.Config, token string, q PostsQuery) (json.RawMessage, error) {
	query := url.Values{}
	if q.Sync {
		query.Set("sync", "true")
	}
	if q.After != "" {
		query.Set("after", q.After)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		query.Set("skip", strconv.Itoa(q.Skip))
	}
	return c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/" + cfg.GatewayPrefix + "/posts",
		endpoint: cfg.GatewayPrefix + "/posts",
		token:    token,
		query:    query,
	}, nil)
}

// UserAnalytics returns account level analytics for the optional date range
func (c *Client) UserAnalytics(ctx context.Context, cfg platform.Config, token string, q AnalyticsQuery) (json.RawMessage, error) {
	return c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/" + cfg.GatewayPrefix + "/analytics/user",
		endpoint: cfg.GatewayPrefix + "/analytics/user",
		token:    token,
		query:    q.values(""),
	}, nil)
}

// PostAnalytics returns per-post analytics. X calls posts tweets.
func (c *Client) PostAnalytics(ctx context.Context, cfg platform.Config, token string, q AnalyticsQuery) (json.RawMessage, error) {
	segment, idParam := "posts", "post_ids"
	if cfg.Platform == platform.Twitter {
		segment, idParam = "tweets", "tweet_ids"
	}
	path := "/" + cfg.GatewayPrefix + "/analytics/" + segment
	return c.do(ctx, request{
		method:   http.MethodGet,
		path:     path,
		endpoint: strings.TrimPrefix(path, "/"),
		token:    token,
		query:    q.values(idParam),
	}, nil)
}

// Logout disconnects the platform account on the gateway
func (c *Client) Logout(ctx context.Context, cfg platform.Config, token string) (json.RawMessage, error) {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/" + cfg.GatewayPrefix + "/logout",
		endpoint: cfg.GatewayPrefix + "/logout",
		token:    token,
	}, nil)
}

// Login authenticates a dashboard user with the auth service
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", endpoint: "auth/login", body: req}, &resp); err != nil {
		return nil, err
	}
	if resp.Token() == "" {
		return nil, &Error{Kind: KindAuth, Status: http.StatusUnauthorized, Message: "No access token received"}
	}
	return &resp, nil
}

// Register creates a dashboard user
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", endpoint: "auth/register", body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks that the gateway answers
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/health", endpoint: "health"}, nil)
	return err
}

func (q AnalyticsQuery) values(idParam string) url.Values {
	values := url.Values{}
	if q.StartDate != "" {
		values.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		values.Set("end_date", q.EndDate)
	}
	if idParam != "" && len(q.PostIDs) > 0 {
		values.Set(idParam, strings.Join(q.PostIDs, ","))
	}
	return values
}
