package identity

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ExternalIdentity is what a delegated provider asserts about its user.
type ExternalIdentity struct {
	Subject       string
	Name          string
	Email         string
	Picture       string
	EmailVerified bool
}

func (e *ExternalIdentity) displayName() string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	if at := strings.IndexByte(e.Email, '@'); at > 0 {
		return e.Email[:at]
	}
	return e.Email
}

// IdentityProvider resolves an access token to the identity behind it.
type IdentityProvider interface {
	Identify(ctx context.Context, accessToken string) (*ExternalIdentity, error)
}

// GoogleProvider reads the Google userinfo endpoint.
type GoogleProvider struct {
	base     *http.Client
	endpoint string
}

// NewGoogleProvider creates a provider using the public Google endpoint.
func NewGoogleProvider() *GoogleProvider {
	return &GoogleProvider{base: &http.Client{Timeout: 10 * time.Second}}
}

// NewGoogleProviderWithEndpoint points the provider at endpoint, sending
// requests through base.
func NewGoogleProviderWithEndpoint(base *http.Client, endpoint string) *GoogleProvider {
	return &GoogleProvider{base: base, endpoint: endpoint}
}

// Identify calls userinfo with accessToken as the bearer credential.
func (g *GoogleProvider) Identify(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, g.base), ts)

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	service, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create userinfo service")
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "userinfo request failed")
	}

	ident := &ExternalIdentity{
		Subject: info.Id,
		Name:    info.Name,
		Email:   info.Email,
		Picture: info.Picture,
	}
	if info.VerifiedEmail != nil {
		ident.EmailVerified = *info.VerifiedEmail
	}
	return ident, nil
}
