// Package identity drives the browser consent flow and tracks the resulting
// bearer token and signed-in user.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/readiness"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"golang.org/x/oauth2"
)

// ErrMisconfigured resolves the consent loader when no usable client id is configured.
var ErrMisconfigured = errors.New("google sign-in is not configured")

type InitState string

const (
	InitUninitialized InitState = "uninitialized"
	InitInitializing  InitState = "initializing"
	InitReady         InitState = "ready"
	InitMisconfigured InitState = "misconfigured"
)

type AuthState string

const (
	AuthSignedOut   AuthState = "signed_out"
	AuthAuthorizing AuthState = "authorizing"
	AuthSignedIn    AuthState = "signed_in"
	// AuthDegraded holds a token whose identity lookup failed. Remote files
	// work; identity-scoped credentials do not.
	AuthDegraded AuthState = "degraded"
)

// ConsentClient triggers the external consent UI and yields a bearer token.
type ConsentClient interface {
	RequestToken(ctx context.Context) (*oauth2.Token, error)
}

// ConsentLoader initializes the consent client. It runs once per Session.
type ConsentLoader func(ctx context.Context) (ConsentClient, error)

type UserInfoFetcher interface {
	Lookup(ctx context.Context, token *oauth2.Token) (*model.Identity, error)
}

type signInCall struct {
	done     chan struct{}
	identity *model.Identity
	err      error
}

type Session struct {
	load     ConsentLoader
	userInfo UserInfoFetcher
	consent  *readiness.Loader[ConsentClient]

	mu         sync.RWMutex
	started    bool
	authState  AuthState
	token      *oauth2.Token
	identity   *model.Identity
	generation uint64
	inflight   *signInCall
}

func NewSession(load ConsentLoader, userInfo UserInfoFetcher) *Session {
	return &Session{
		load:      load,
		userInfo:  userInfo,
		consent:   readiness.NewLoader[ConsentClient](),
		authState: AuthSignedOut,
	}
}

// Initialize starts loading the consent client in the background. Only the
// first call has an effect.
func (s *Session) Initialize(ctx context.Context) {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.consent.Start(context.WithoutCancel(ctx), func(ctx context.Context) (ConsentClient, error) {
		log := logging.NewLogger(ctx)
		if s.load == nil {
			return nil, ErrMisconfigured
		}
		client, err := s.load(ctx)
		if err == nil && client == nil {
			err = ErrMisconfigured
		}
		if err != nil {
			log.Warnf("sign-in disabled: %v", err)
			return nil, err
		}
		log.Debug("consent client ready")
		return client, nil
	})
}

// WaitInitialized blocks until the consent client resolved either way.
func (s *Session) WaitInitialized(ctx context.Context) InitState {
	_, _ = s.consent.Future().Wait(ctx)
	return s.InitState()
}

func (s *Session) InitState() InitState {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return InitUninitialized
	}

	_, resolved, err := s.consent.Future().Peek()
	switch {
	case !resolved:
		return InitInitializing
	case err != nil:
		return InitMisconfigured
	default:
		return InitReady
	}
}

// Ready reports consentClientReady.
func (s *Session) Ready() bool {
	return s.consent.Future().Ready()
}

func (s *Session) AuthState() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authState
}

func (s *Session) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) HasToken() bool {
	token := s.Token()
	return token != nil && strings.TrimSpace(token.AccessToken) != ""
}

func (s *Session) Identity() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

// RequestSignIn prompts for consent and resolves the identity. Concurrent
// callers share the in-flight attempt. A failed identity lookup is not an
// error: the token is kept and the session becomes AuthDegraded.
func (s *Session) RequestSignIn(ctx context.Context) (*model.Identity, error) {
	client, resolved, err := s.consent.Future().Peek()
	if !resolved {
		return nil, model.NewError(model.KindNotReady, "Google Sign-In is still loading.", nil)
	}
	if err != nil {
		return nil, model.NewError(model.KindNotReady, "Google Sign-In is not configured.", err)
	}

	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.identity, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &signInCall{done: make(chan struct{})}
	s.inflight = call
	generation := s.generation
	s.mu.Unlock()

	call.identity, call.err = s.signIn(ctx, client, generation)

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
	close(call.done)

	return call.identity, call.err
}

func (s *Session) signIn(ctx context.Context, client ConsentClient, generation uint64) (*model.Identity, error) {
	log := logging.NewLogger(ctx)

	token, err := client.RequestToken(ctx)
	if err == nil && (token == nil || strings.TrimSpace(token.AccessToken) == "") {
		err = errors.New("consent flow returned no access token")
	}
	if err != nil {
		log.Errorf("sign-in failed: %v", err)
		return nil, model.NewError(model.KindNetwork, "Sign-in failed. Please try again.", utils.WrapIfNotNil(err))
	}

	if !s.transition(generation, func() {
		s.token = token
		s.identity = nil
		s.authState = AuthAuthorizing
	}) {
		return nil, model.NewError(model.KindNetwork, "Sign-in was interrupted.", nil)
	}

	identity, err := s.lookup(ctx, token)
	if err != nil {
		log.Warnf("identity lookup failed, keeping token without identity: %v", err)
		s.transition(generation, func() {
			s.authState = AuthDegraded
		})
		return nil, nil
	}

	if !s.transition(generation, func() {
		s.identity = identity
		s.authState = AuthSignedIn
	}) {
		return nil, model.NewError(model.KindNetwork, "Sign-in was interrupted.", nil)
	}

	log.WithField("user_id", identity.ID).Info("signed in")
	return identity, nil
}

func (s *Session) lookup(ctx context.Context, token *oauth2.Token) (*model.Identity, error) {
	if s.userInfo == nil {
		return nil, errors.New("no identity lookup configured")
	}
	identity, err := s.userInfo.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity == nil || strings.TrimSpace(identity.ID) == "" {
		return nil, errors.New("identity lookup returned no subject")
	}
	return identity, nil
}

// transition applies update unless Reset ran since generation was captured.
func (s *Session) transition(generation uint64, update func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	update()
	return true
}

// Reset forgets the token and identity. The consent provider is not contacted.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.token = nil
	s.identity = nil
	s.authState = AuthSignedOut
}
