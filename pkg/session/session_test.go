package session

import (
	"context"
	"errors"
	"testing"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/credentials"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/identity"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/secrets/memory"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

type stubConsent struct{}

func (stubConsent) RequestToken(context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "ya29.token"}, nil
}

type stubUserInfo struct {
	identity *model.Identity
	err      error
}

func (s *stubUserInfo) Lookup(context.Context, *oauth2.Token) (*model.Identity, error) {
	return s.identity, s.err
}

type SessionSuite struct {
	suite.Suite
	ctx      context.Context
	backend  *memory.Store
	userInfo *stubUserInfo
	session  *Session
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = memory.NewStore()
	s.userInfo = &stubUserInfo{identity: &model.Identity{ID: "10432", Email: "ada@example.com"}}
	s.session = s.newSession()
}

func (s *SessionSuite) newSession() *Session {
	identitySession := identity.NewSession(func(context.Context) (identity.ConsentClient, error) {
		return stubConsent{}, nil
	}, s.userInfo)
	session := New(identitySession, credentials.NewStore(s.backend))
	session.Start(s.ctx)
	s.Require().Equal(identity.InitReady, identitySession.WaitInitialized(s.ctx))
	return session
}

func (s *SessionSuite) guestSlot() (string, error) {
	return s.backend.Get(s.ctx, credentials.GuestScope().Key())
}

func (s *SessionSuite) TestStartRestoresGuestCredential() {
	s.Require().NoError(s.backend.Put(s.ctx, credentials.GuestScope().Key(), "AIza-guest-0001"))

	session := s.newSession()
	key, ok := session.Credential()
	s.True(ok)
	s.Equal(model.Credential("AIza-guest-0001"), key)
}

func (s *SessionSuite) TestSignInDropsGuestCredential() {
	s.Require().NoError(s.session.SaveCredential(s.ctx, "AIza-guest-0001"))

	user, err := s.session.SignIn(s.ctx)
	s.Require().NoError(err)
	s.Equal("10432", user.ID)

	_, err = s.guestSlot()
	s.Error(err, "guest slot must be cleared on sign-in")
	s.False(s.session.HasCredential(), "guest key is not carried into the signed-in scope")
}

func (s *SessionSuite) TestSignInThenSaveLeavesGuestSlotEmpty() {
	_, err := s.session.SignIn(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.backend.Put(s.ctx, credentials.GuestScope().Key(), "AIza-stale-guest"))

	s.Require().NoError(s.session.SaveCredential(s.ctx, "AIza-user-00001"))

	_, err = s.guestSlot()
	s.Error(err)
	value, err := s.backend.Get(s.ctx, credentials.UserScope("10432").Key())
	s.Require().NoError(err)
	s.Equal("AIza-user-00001", value)
}

func (s *SessionSuite) TestSignOutThenSignInReloadsSavedCredential() {
	_, err := s.session.SignIn(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.session.SaveCredential(s.ctx, "AIza-user-00001"))

	s.session.SignOut(s.ctx)
	s.False(s.session.HasCredential())
	s.Nil(s.session.Status().Identity)

	_, err = s.session.SignIn(s.ctx)
	s.Require().NoError(err)
	key, ok := s.session.Credential()
	s.True(ok)
	s.Equal(model.Credential("AIza-user-00001"), key)
}

func (s *SessionSuite) TestDegradedSignInKeepsCredentialEmpty() {
	s.userInfo.identity = nil
	s.userInfo.err = errors.New("userinfo unavailable")
	s.Require().NoError(s.session.SaveCredential(s.ctx, "AIza-guest-0001"))

	user, err := s.session.SignIn(s.ctx)
	s.Require().NoError(err)
	s.Nil(user)

	status := s.session.Status()
	s.Equal(identity.AuthDegraded, status.AuthState)
	s.True(status.HasToken)
	s.False(status.HasCredential)
	s.Empty(s.backend.Keys(), "guest slot is dropped with the in-memory key")
}

func (s *SessionSuite) TestShortCredentialIsRejected() {
	err := s.session.SaveCredential(s.ctx, "short")
	s.Require().ErrorIs(err, model.ErrValidation)
	s.False(s.session.HasCredential())
	s.Empty(s.backend.Keys())

	s.Require().ErrorIs(s.session.UseCredential("tiny"), model.ErrValidation)
	s.Require().NoError(s.session.UseCredential("AIza-ephemeral"))
	s.True(s.session.HasCredential())
	s.Empty(s.backend.Keys(), "UseCredential never persists")
}

func (s *SessionSuite) TestResetClearsEverything() {
	_, err := s.session.SignIn(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.session.SaveCredential(s.ctx, "AIza-user-00001"))

	s.Require().NoError(s.session.Reset(s.ctx))

	status := s.session.Status()
	s.Nil(status.Identity)
	s.False(status.HasToken)
	s.False(status.HasCredential)
	s.Equal(identity.AuthSignedOut, status.AuthState)
	s.Empty(s.backend.Keys())
}
