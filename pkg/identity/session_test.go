package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

type fakeConsent struct {
	calls   atomic.Int32
	release chan struct{}
	token   *oauth2.Token
	err     error
}

func (f *fakeConsent) RequestToken(ctx context.Context) (*oauth2.Token, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.token, f.err
}

type fakeUserInfo struct {
	calls    atomic.Int32
	identity *model.Identity
	err      error
}

func (f *fakeUserInfo) Lookup(_ context.Context, _ *oauth2.Token) (*model.Identity, error) {
	f.calls.Add(1)
	return f.identity, f.err
}

type SessionSuite struct {
	suite.Suite
	ctx      context.Context
	consent  *fakeConsent
	userInfo *fakeUserInfo
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.consent = &fakeConsent{token: &oauth2.Token{AccessToken: "ya29.token"}}
	s.userInfo = &fakeUserInfo{identity: &model.Identity{ID: "10432", Email: "ada@example.com"}}
}

func (s *SessionSuite) readySession() *Session {
	session := NewSession(func(context.Context) (ConsentClient, error) {
		return s.consent, nil
	}, s.userInfo)
	session.Initialize(s.ctx)
	s.Require().Equal(InitReady, session.WaitInitialized(s.ctx))
	return session
}

func (s *SessionSuite) TestInitializationStates() {
	gate := make(chan struct{})
	session := NewSession(func(context.Context) (ConsentClient, error) {
		<-gate
		return s.consent, nil
	}, s.userInfo)

	s.Equal(InitUninitialized, session.InitState())
	session.Initialize(s.ctx)
	s.Equal(InitInitializing, session.InitState())
	s.False(session.Ready())

	close(gate)
	s.Equal(InitReady, session.WaitInitialized(s.ctx))
	s.True(session.Ready())
}

func (s *SessionSuite) TestMisconfiguredLoaderDisablesSignInOnly() {
	session := NewSession(func(context.Context) (ConsentClient, error) {
		return nil, ErrMisconfigured
	}, s.userInfo)
	session.Initialize(s.ctx)

	s.Equal(InitMisconfigured, session.WaitInitialized(s.ctx))
	s.False(session.Ready())

	_, err := session.RequestSignIn(s.ctx)
	s.Require().ErrorIs(err, model.ErrNotReady)
	s.ErrorIs(err, ErrMisconfigured)
	s.Equal(AuthSignedOut, session.AuthState())
}

func (s *SessionSuite) TestSignInBeforeReadyFailsFast() {
	session := NewSession(func(context.Context) (ConsentClient, error) {
		return s.consent, nil
	}, s.userInfo)

	_, err := session.RequestSignIn(s.ctx)
	s.Require().ErrorIs(err, model.ErrNotReady)
	s.Equal(int32(0), s.consent.calls.Load())
}

func (s *SessionSuite) TestSignInResolvesIdentityWithOneLookup() {
	session := s.readySession()

	identity, err := session.RequestSignIn(s.ctx)
	s.Require().NoError(err)
	s.Equal(&model.Identity{ID: "10432", Email: "ada@example.com"}, identity)
	s.Equal(AuthSignedIn, session.AuthState())
	s.True(session.HasToken())
	s.Equal("10432", session.Identity().ID)
	s.Equal(int32(1), s.userInfo.calls.Load())
}

func (s *SessionSuite) TestFailedLookupKeepsTokenWithoutIdentity() {
	s.userInfo.identity = nil
	s.userInfo.err = errors.New("503 from userinfo")
	session := s.readySession()

	identity, err := session.RequestSignIn(s.ctx)
	s.Require().NoError(err)
	s.Nil(identity)
	s.Nil(session.Identity())
	s.True(session.HasToken())
	s.Equal(AuthDegraded, session.AuthState())
}

func (s *SessionSuite) TestConsentFailureIsNetworkError() {
	s.consent.token = nil
	s.consent.err = errors.New("user closed the window")
	session := s.readySession()

	_, err := session.RequestSignIn(s.ctx)
	s.Require().ErrorIs(err, model.ErrNetwork)
	s.Equal(AuthSignedOut, session.AuthState())
	s.False(session.HasToken())
	s.Equal(int32(0), s.userInfo.calls.Load())
}

func (s *SessionSuite) TestConcurrentSignInPromptsOnce() {
	s.consent.release = make(chan struct{})
	session := s.readySession()

	var wg sync.WaitGroup
	results := make([]*model.Identity, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = session.RequestSignIn(s.ctx)
		}(i)
	}

	s.Eventually(func() bool { return s.consent.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(s.consent.release)
	wg.Wait()

	s.Equal(int32(1), s.consent.calls.Load())
	for _, identity := range results {
		s.Require().NotNil(identity)
		s.Equal("10432", identity.ID)
	}
}

func (s *SessionSuite) TestResetClearsTokenAndIdentity() {
	session := s.readySession()
	_, err := session.RequestSignIn(s.ctx)
	s.Require().NoError(err)

	session.Reset()
	s.Nil(session.Identity())
	s.Nil(session.Token())
	s.Equal(AuthSignedOut, session.AuthState())
	s.Equal(InitReady, session.InitState())
}

func (s *SessionSuite) TestResetDuringSignInDiscardsLateToken() {
	s.consent.release = make(chan struct{})
	session := s.readySession()

	done := make(chan error, 1)
	go func() {
		_, err := session.RequestSignIn(s.ctx)
		done <- err
	}()

	s.Eventually(func() bool { return s.consent.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	session.Reset()
	close(s.consent.release)

	s.Require().ErrorIs(<-done, model.ErrNetwork)
	s.False(session.HasToken())
	s.Equal(AuthSignedOut, session.AuthState())
}
