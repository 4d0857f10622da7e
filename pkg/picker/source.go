// Package picker exposes remote audio selection from Google Drive once the
// picker client has loaded and a bearer token is available.
package picker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/config"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/readiness"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"golang.org/x/oauth2"
)

// ErrCancelled is returned when the user closes the picker without choosing.
var ErrCancelled = errors.New("drive selection cancelled")

type PickedFile struct {
	ID       string
	Name     string
	MIMEType string
}

// Client is the picker capability: present a selection, then fetch its bytes.
type Client interface {
	Choose(ctx context.Context, token *oauth2.Token) (PickedFile, error)
	Fetch(ctx context.Context, token *oauth2.Token, fileID string) ([]byte, error)
}

type ClientLoader func(ctx context.Context) (Client, error)

type TokenSource interface {
	Token() *oauth2.Token
}

type Source struct {
	load       ClientLoader
	serviceKey string
	tokens     TokenSource
	widget     *readiness.Loader[Client]
	busy       atomic.Bool
}

func NewSource(load ClientLoader, serviceKey string, tokens TokenSource) *Source {
	return &Source{
		load:       load,
		serviceKey: serviceKey,
		tokens:     tokens,
		widget:     readiness.NewLoader[Client](),
	}
}

// Initialize starts loading the picker client once.
func (s *Source) Initialize(ctx context.Context) {
	s.widget.Start(context.WithoutCancel(ctx), func(ctx context.Context) (Client, error) {
		if s.load == nil {
			return nil, errors.New("no picker client loader configured")
		}
		client, err := s.load(ctx)
		if err != nil {
			logging.NewLogger(ctx).Warnf("drive picker unavailable: %v", err)
			return nil, err
		}
		return client, nil
	})
}

func (s *Source) WaitInitialized(ctx context.Context) bool {
	_, _ = s.widget.Future().Wait(ctx)
	return s.Ready()
}

// Ready reports pickerClientReady.
func (s *Source) Ready() bool {
	return s.widget.Future().Ready()
}

func (s *Source) Configured() bool {
	return config.IsConfigured(s.serviceKey)
}

func (s *Source) IsAvailable() bool {
	return s.Ready() && s.Configured() && s.token() != nil
}

// Open lets the user pick an audio file and downloads it. Only one Open may
// run at a time; a second concurrent call fails with ErrNotReady.
func (s *Source) Open(ctx context.Context) (model.SelectedAudio, error) {
	client, resolved, loadErr := s.widget.Future().Peek()
	token := s.token()
	if !resolved || loadErr != nil || !s.Configured() || token == nil {
		return model.SelectedAudio{}, model.NewError(model.KindNotReady, "Google Drive client is not ready or configured.", loadErr)
	}

	if !s.busy.CompareAndSwap(false, true) {
		return model.SelectedAudio{}, model.NewError(model.KindNotReady, "A Google Drive selection is already in progress.", nil)
	}
	defer s.busy.Store(false)

	log := logging.NewLogger(ctx)

	picked, err := client.Choose(ctx, token)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return model.SelectedAudio{}, err
		}
		log.Errorf("drive listing failed: %v", err)
		return model.SelectedAudio{}, model.NewError(model.KindNetwork, "Failed to open Google Drive.", utils.WrapIfNotNil(err))
	}

	payload, err := client.Fetch(ctx, token, picked.ID)
	if err != nil {
		log.Errorf("drive download failed file_id=%s: %v", picked.ID, err)
		if model.KindOf(err) == model.KindRead {
			return model.SelectedAudio{}, err
		}
		return model.SelectedAudio{}, model.NewError(model.KindNetwork, "Failed to download file from Google Drive.", utils.WrapIfNotNil(err))
	}
	if len(payload) == 0 {
		return model.SelectedAudio{}, model.NewError(model.KindRead, "Failed to read file from Google Drive.", errors.New("empty file body"))
	}

	mimeType := strings.TrimSpace(picked.MIMEType)
	if !strings.HasPrefix(mimeType, "audio/") {
		return model.SelectedAudio{}, model.NewError(model.KindRead, "The selected Drive file is not an audio file.", errors.New("mime type "+mimeType))
	}

	log.Infof("drive file selected name=%q mime=%s bytes=%d", picked.Name, mimeType, len(payload))
	return model.NewSelectedAudio(picked.Name, mimeType, payload), nil
}

func (s *Source) token() *oauth2.Token {
	if s.tokens == nil {
		return nil
	}
	token := s.tokens.Token()
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return nil
	}
	return token
}
