package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// Client exchanges application credentials for Microsoft Graph bearer tokens.
// Every call to Token performs a fresh exchange; nothing is cached between
// invocations.
type Client struct {
	cc         *clientcredentials.Config
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTokenURL overrides the token endpoint derived from the tenant.
func WithTokenURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.cc.TokenURL = u
		}
	}
}

// New validates cfg and prepares a client-credentials exchange against the
// tenant's v2.0 token endpoint.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	scope := cfg.Scope
	if scope == "" {
		scope = DefaultScope
	}

	c := &Client{
		cc: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     TokenURL(cfg.AuthorityHost, cfg.TenantID),
			Scopes:       []string{scope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// TokenURL returns the v2.0 token endpoint of tenant on the given authority host.
func TokenURL(authorityHost, tenant string) string {
	host := strings.TrimRight(authorityHost, "/")
	if host == "" || host == DefaultAuthorityHost {
		return microsoft.AzureADEndpoint(tenant).TokenURL
	}
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", host, url.PathEscape(tenant))
}

// Token returns a bearer token for Microsoft Graph. Every failure, including a
// response without an access token, wraps ErrNoToken.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	tok, err := c.cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrNoToken)
	}
	return tok.AccessToken, nil
}

// IsTemporary reports whether a token failure may succeed on redelivery:
// network errors, throttling and 5xx answers from the provider.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.Response == nil {
			return false
		}
		code := rerr.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr)
}
