package picker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

type fakeClient struct {
	chooseCalls atomic.Int32
	fetchCalls  atomic.Int32
	release     chan struct{}
	picked      PickedFile
	chooseErr   error
	payload     []byte
	fetchErr    error
}

func (f *fakeClient) Choose(ctx context.Context, _ *oauth2.Token) (PickedFile, error) {
	f.chooseCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.picked, f.chooseErr
}

func (f *fakeClient) Fetch(_ context.Context, _ *oauth2.Token, _ string) ([]byte, error) {
	f.fetchCalls.Add(1)
	return f.payload, f.fetchErr
}

type staticTokens struct {
	token *oauth2.Token
}

func (s *staticTokens) Token() *oauth2.Token {
	return s.token
}

type SourceSuite struct {
	suite.Suite
	ctx    context.Context
	client *fakeClient
	tokens *staticTokens
}

func TestSourceSuite(t *testing.T) {
	suite.Run(t, new(SourceSuite))
}

func (s *SourceSuite) SetupTest() {
	s.ctx = context.Background()
	s.client = &fakeClient{
		picked:  PickedFile{ID: "file-1", Name: "voicemail.ogg", MIMEType: "audio/ogg"},
		payload: []byte("OggS-audio"),
	}
	s.tokens = &staticTokens{token: &oauth2.Token{AccessToken: "ya29.token"}}
}

func (s *SourceSuite) loader() ClientLoader {
	return func(context.Context) (Client, error) { return s.client, nil }
}

func (s *SourceSuite) readySource() *Source {
	source := NewSource(s.loader(), "AIza-picker-key", s.tokens)
	source.Initialize(s.ctx)
	s.Require().True(source.WaitInitialized(s.ctx))
	return source
}

func (s *SourceSuite) TestOpenBeforeReadyFailsWithoutNetwork() {
	gate := make(chan struct{})
	defer close(gate)
	source := NewSource(func(context.Context) (Client, error) {
		<-gate
		return s.client, nil
	}, "AIza-picker-key", s.tokens)
	source.Initialize(s.ctx)

	s.False(source.IsAvailable())
	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, model.ErrNotReady)
	s.Equal(int32(0), s.client.chooseCalls.Load())
	s.Equal(int32(0), s.client.fetchCalls.Load())
}

func (s *SourceSuite) TestAvailabilityNeedsTokenAndServiceKey() {
	source := s.readySource()
	s.True(source.IsAvailable())

	s.tokens.token = nil
	s.False(source.IsAvailable())
	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, model.ErrNotReady)

	s.tokens.token = &oauth2.Token{AccessToken: "ya29.token"}
	unconfigured := NewSource(s.loader(), "REPLACE_WITH_YOUR_GOOGLE_DEVELOPER_KEY", s.tokens)
	unconfigured.Initialize(s.ctx)
	unconfigured.WaitInitialized(s.ctx)
	s.False(unconfigured.IsAvailable())
	s.Equal(int32(0), s.client.chooseCalls.Load())
}

func (s *SourceSuite) TestFailedLoaderNeverBecomesReady() {
	source := NewSource(func(context.Context) (Client, error) {
		return nil, errors.New("script blocked")
	}, "AIza-picker-key", s.tokens)
	source.Initialize(s.ctx)

	s.False(source.WaitInitialized(s.ctx))
	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, model.ErrNotReady)
}

func (s *SourceSuite) TestOpenProducesSelectedAudio() {
	source := s.readySource()

	audio, err := source.Open(s.ctx)
	s.Require().NoError(err)
	s.Equal("voicemail.ogg", audio.Name)
	s.Equal("audio/ogg", audio.MIMEType)
	payload, err := audio.Bytes()
	s.Require().NoError(err)
	s.Equal([]byte("OggS-audio"), payload)
}

func (s *SourceSuite) TestFetchFailureIsNetworkError() {
	s.client.fetchErr = errors.New("403 from drive")
	source := s.readySource()

	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, model.ErrNetwork)
	s.Equal("Failed to download file from Google Drive.", model.UserMessage(err))
}

func (s *SourceSuite) TestEmptyPayloadIsReadError() {
	s.client.payload = nil
	source := s.readySource()

	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, model.ErrRead)
}

func (s *SourceSuite) TestNonAudioSelectionIsRejected() {
	s.client.picked.MIMEType = "application/pdf"
	source := s.readySource()

	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, model.ErrRead)
}

func (s *SourceSuite) TestCancelledSelectionPassesThrough() {
	s.client.chooseErr = ErrCancelled
	source := s.readySource()

	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, ErrCancelled)
	s.Equal(int32(0), s.client.fetchCalls.Load())
}

func (s *SourceSuite) TestSingleOpenInFlight() {
	s.client.release = make(chan struct{})
	source := s.readySource()

	first := make(chan error, 1)
	go func() {
		_, err := source.Open(s.ctx)
		first <- err
	}()
	s.Eventually(func() bool { return s.client.chooseCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := source.Open(s.ctx)
	s.Require().ErrorIs(err, model.ErrNotReady)

	close(s.client.release)
	s.Require().NoError(<-first)
	s.Equal(int32(1), s.client.chooseCalls.Load())
	s.Equal(int32(1), s.client.fetchCalls.Load())
}
