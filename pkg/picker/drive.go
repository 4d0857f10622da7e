package picker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	DefaultDriveBaseURL = "https://www.googleapis.com/drive/v3"
	defaultPageSize     = 25
	// MaxAudioBytes mirrors the inline-data limit of the summarization request.
	MaxAudioBytes   = 20 << 20
	maxListingBytes = 1 << 20
	audioQuery      = "mimeType contains 'audio/' and trashed = false"
)

// Chooser presents the listed files and returns the one the user picked.
type Chooser interface {
	Choose(ctx context.Context, files []PickedFile) (PickedFile, error)
}

type DriveConfig struct {
	BaseURL      string
	DeveloperKey string
	HTTPClient   *http.Client
	PageSize     int
}

// DriveClient talks to the Drive v3 REST API with the user's bearer token.
type DriveClient struct {
	cfg     DriveConfig
	chooser Chooser
}

var _ Client = (*DriveClient)(nil)

func NewDriveLoader(cfg DriveConfig, chooser Chooser) ClientLoader {
	return func(context.Context) (Client, error) {
		if chooser == nil {
			return nil, utils.WrapIfNotNil(errors.New("chooser is required"))
		}
		if strings.TrimSpace(cfg.BaseURL) == "" {
			cfg.BaseURL = DefaultDriveBaseURL
		}
		cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		if cfg.PageSize <= 0 {
			cfg.PageSize = defaultPageSize
		}
		return &DriveClient{cfg: cfg, chooser: chooser}, nil
	}
}

type driveFileList struct {
	Files []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		MIMEType string `json:"mimeType"`
	} `json:"files"`
}

func (c *DriveClient) Choose(ctx context.Context, token *oauth2.Token) (PickedFile, error) {
	files, err := c.List(ctx, token)
	if err != nil {
		return PickedFile{}, err
	}
	if len(files) == 0 {
		return PickedFile{}, utils.WrapIfNotNil(fmt.Errorf("no audio files found in Drive: %w", ErrCancelled))
	}
	return c.chooser.Choose(ctx, files)
}

// List returns the most recently modified audio files.
func (c *DriveClient) List(ctx context.Context, token *oauth2.Token) ([]PickedFile, error) {
	query := url.Values{}
	query.Set("q", audioQuery)
	query.Set("fields", "files(id,name,mimeType)")
	query.Set("orderBy", "modifiedTime desc")
	query.Set("pageSize", fmt.Sprint(c.cfg.PageSize))

	resp, err := c.get(ctx, token, c.cfg.BaseURL+"/files", query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var listing driveFileList
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxListingBytes)).Decode(&listing); err != nil {
		return nil, utils.WrapIfNotNil(err, "decode drive listing")
	}

	files := make([]PickedFile, 0, len(listing.Files))
	for _, f := range listing.Files {
		if f.ID == "" {
			continue
		}
		files = append(files, PickedFile{ID: f.ID, Name: f.Name, MIMEType: f.MIMEType})
	}
	return files, nil
}

func (c *DriveClient) Fetch(ctx context.Context, token *oauth2.Token, fileID string) ([]byte, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, utils.WrapIfNotNil(errors.New("file id is required"))
	}

	query := url.Values{}
	query.Set("alt", "media")
	resp, err := c.get(ctx, token, c.cfg.BaseURL+"/files/"+url.PathEscape(fileID), query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, MaxAudioBytes+1))
	if err != nil {
		return nil, model.NewError(model.KindRead, "Failed to read file from Google Drive.", utils.WrapIfNotNil(err))
	}
	if len(payload) > MaxAudioBytes {
		return nil, model.NewError(model.KindRead, "The selected Drive file is too large.", fmt.Errorf("file exceeds %d bytes", MaxAudioBytes))
	}
	return payload, nil
}

func (c *DriveClient) get(ctx context.Context, token *oauth2.Token, endpoint string, query url.Values) (*http.Response, error) {
	if token == nil {
		return nil, utils.WrapIfNotNil(errors.New("bearer token is required"))
	}
	if c.cfg.DeveloperKey != "" {
		query.Set("key", c.cfg.DeveloperKey)
	}

	if c.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, utils.WrapIfNotNil(fmt.Errorf("drive returned status %d", resp.StatusCode))
	}
	return resp, nil
}
