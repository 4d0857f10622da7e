package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	DefaultUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	maxUserInfoBodyBytes = 1 << 20
)

// HTTPUserInfo resolves the identity behind a bearer token with one GET.
type HTTPUserInfo struct {
	URL        string
	HTTPClient *http.Client
}

var _ UserInfoFetcher = (*HTTPUserInfo)(nil)

func NewHTTPUserInfo(httpClient *http.Client) *HTTPUserInfo {
	return &HTTPUserInfo{URL: DefaultUserInfoURL, HTTPClient: httpClient}
}

func (u *HTTPUserInfo) Lookup(ctx context.Context, token *oauth2.Token) (*model.Identity, error) {
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return nil, utils.WrapIfNotNil(errors.New("bearer token is required"))
	}

	endpoint := strings.TrimSpace(u.URL)
	if endpoint == "" {
		endpoint = DefaultUserInfoURL
	}
	if u.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, u.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.WrapIfNotNil(fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode))
	}

	var identity model.Identity
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBodyBytes)).Decode(&identity); err != nil {
		return nil, utils.WrapIfNotNil(err, "decode userinfo")
	}
	if strings.TrimSpace(identity.ID) == "" {
		return nil, utils.WrapIfNotNil(errors.New("userinfo response has no subject"))
	}
	return &identity, nil
}
