package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/config"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultScopes covers read-only Drive listing plus basic profile and email.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

const defaultConsentTimeout = 5 * time.Minute

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	ListenAddr   string
	Timeout      time.Duration
	// Endpoint defaults to google.Endpoint.
	Endpoint oauth2.Endpoint
	// OpenURL presents the consent URL to the user, e.g. by printing it.
	OpenURL    func(authURL string) error
	HTTPClient *http.Client
}

// OAuthConsentClient runs an authorization-code flow with PKCE against a
// loopback redirect.
type OAuthConsentClient struct {
	cfg OAuthConfig
}

var _ ConsentClient = (*OAuthConsentClient)(nil)

// NewOAuthLoader returns a ConsentLoader that resolves to ErrMisconfigured when
// the client id is empty or still a placeholder.
func NewOAuthLoader(cfg OAuthConfig) ConsentLoader {
	return func(ctx context.Context) (ConsentClient, error) {
		if !config.IsConfigured(cfg.ClientID) {
			return nil, ErrMisconfigured
		}
		if cfg.OpenURL == nil {
			return nil, utils.WrapIfNotNil(errors.New("consent url presenter is required"))
		}
		if len(cfg.Scopes) == 0 {
			cfg.Scopes = DefaultScopes
		}
		if cfg.Endpoint.AuthURL == "" {
			cfg.Endpoint = google.Endpoint
		}
		if cfg.Timeout <= 0 {
			cfg.Timeout = defaultConsentTimeout
		}
		return &OAuthConsentClient{cfg: cfg}, nil
	}
}

func (c *OAuthConsentClient) RequestToken(ctx context.Context) (*oauth2.Token, error) {
	log := logging.NewLogger(ctx)

	state, err := NewState()
	if err != nil {
		return nil, utils.WrapIfNotNil(err, "generate oauth state")
	}
	verifier := oauth2.GenerateVerifier()

	server, err := StartCallbackServer(c.cfg.ListenAddr, state)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	conf := c.oauthConfig(server.RedirectURI())
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	if err := c.cfg.OpenURL(authURL); err != nil {
		_ = server.Close()
		return nil, utils.WrapIfNotNil(err, "present consent url")
	}
	log.Debugf("waiting for consent callback on %s", server.RedirectURI())

	code, err := server.WaitForCode(ctx, c.cfg.Timeout)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	if c.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
	}
	token, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, utils.WrapIfNotNil(err, "exchange authorization code")
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, utils.WrapIfNotNil(fmt.Errorf("token endpoint returned no access token"))
	}
	return token, nil
}

func (c *OAuthConsentClient) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint:     c.cfg.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       append([]string(nil), c.cfg.Scopes...),
	}
}
