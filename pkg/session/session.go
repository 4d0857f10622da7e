// Package session reconciles the identity session and the credential store
// into the process-wide state that gates summarization.
package session

import (
	"context"
	"sync"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/credentials"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/identity"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"golang.org/x/oauth2"
)

// Identity is the subset of *identity.Session the reconciler depends on.
type Identity interface {
	Initialize(ctx context.Context)
	WaitInitialized(ctx context.Context) identity.InitState
	InitState() identity.InitState
	Ready() bool
	AuthState() identity.AuthState
	RequestSignIn(ctx context.Context) (*model.Identity, error)
	Identity() *model.Identity
	Token() *oauth2.Token
	HasToken() bool
	Reset()
}

var _ Identity = (*identity.Session)(nil)

type Status struct {
	Identity      *model.Identity
	InitState     identity.InitState
	AuthState     identity.AuthState
	HasToken      bool
	HasCredential bool
}

type Session struct {
	identity Identity
	store    *credentials.Store

	mu         sync.RWMutex
	credential model.Credential
}

func New(identitySession Identity, store *credentials.Store) *Session {
	return &Session{identity: identitySession, store: store}
}

// Start kicks off consent-client loading and restores the guest credential.
// Sign-in is independent: anonymous use works while the consent client loads.
func (s *Session) Start(ctx context.Context) {
	s.identity.Initialize(ctx)

	if key, ok := s.store.Load(ctx, nil); ok {
		s.setCredential(key)
	}
}

func (s *Session) IdentitySession() Identity {
	return s.identity
}

// SignIn runs the consent flow. Once an identity is known the guest slot is
// dropped and that identity's own credential, if any, replaces the in-memory one.
func (s *Session) SignIn(ctx context.Context) (*model.Identity, error) {
	log := logging.NewLogger(ctx)

	user, err := s.identity.RequestSignIn(ctx)
	if err != nil {
		return nil, err
	}
	// A token without an identity still ends guest use, in memory and on disk.
	if err := s.store.ClearGuest(ctx); err != nil {
		log.Warnf("could not clear guest credential: %v", err)
	}
	if user == nil {
		log.Warn("signed in without an identity; saved keys stay unavailable until sign-in completes")
		s.setCredential("")
		return nil, nil
	}

	key, _ := s.store.Load(ctx, user)
	s.setCredential(key)
	return user, nil
}

// SaveCredential validates and persists key in the scope of the current identity.
func (s *Session) SaveCredential(ctx context.Context, key string) error {
	credential, err := s.store.Save(ctx, s.identity.Identity(), key)
	if err != nil {
		return err
	}
	s.setCredential(credential)
	return nil
}

// UseCredential validates key and keeps it in memory only.
func (s *Session) UseCredential(key string) error {
	credential, err := credentials.Validate(key)
	if err != nil {
		return err
	}
	s.setCredential(credential)
	return nil
}

func (s *Session) Credential() (model.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, !s.credential.IsZero()
}

func (s *Session) HasCredential() bool {
	_, ok := s.Credential()
	return ok
}

func (s *Session) Token() *oauth2.Token {
	return s.identity.Token()
}

// SignOut forgets the token, identity and in-memory credential. The identity's
// persisted slot is kept so the next sign-in restores it.
func (s *Session) SignOut(ctx context.Context) {
	s.identity.Reset()
	s.setCredential("")
	logging.NewLogger(ctx).Info("signed out")
}

// Reset clears every persisted slot reachable from the current identity and
// signs out.
func (s *Session) Reset(ctx context.Context) error {
	err := s.store.Clear(ctx, s.identity.Identity())
	s.identity.Reset()
	s.setCredential("")
	return err
}

func (s *Session) Status() Status {
	return Status{
		Identity:      s.identity.Identity(),
		InitState:     s.identity.InitState(),
		AuthState:     s.identity.AuthState(),
		HasToken:      s.identity.HasToken(),
		HasCredential: s.HasCredential(),
	}
}

func (s *Session) setCredential(key model.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = key
}
