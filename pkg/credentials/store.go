// Package credentials persists the summarization API key per scope.
package credentials

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/logging"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/secrets"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
)

// MinKeyLength is a sanity bound, not a format check.
const MinKeyLength = 10

const invalidKeyMessage = "Please enter a valid API key."

type Store struct {
	backend secrets.Store
}

func NewStore(backend secrets.Store) *Store {
	return &Store{backend: backend}
}

// Validate trims key and rejects anything shorter than MinKeyLength characters.
func Validate(key string) (model.Credential, error) {
	trimmed := strings.TrimSpace(key)
	if utf8.RuneCountInString(trimmed) < MinKeyLength {
		return "", model.NewError(model.KindValidation, invalidKeyMessage, nil)
	}
	return model.Credential(trimmed), nil
}

// Load never fails: a missing or unreadable slot is reported as absent.
func (s *Store) Load(ctx context.Context, identity *model.Identity) (model.Credential, bool) {
	scope := ScopeFor(identity)
	log := logging.NewLogger(ctx).WithField("scope", scope.String())

	value, err := s.backend.Get(ctx, scope.Key())
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			log.Warnf("credential read failed: %v", err)
		}
		return "", false
	}

	key := model.Credential(strings.TrimSpace(value))
	if key.IsZero() {
		return "", false
	}
	log.Debug("credential loaded")
	return key, true
}

// Save writes key into the scope of identity. Signed-in saves drop the guest
// slot first, so a failure leaves nothing new persisted.
func (s *Store) Save(ctx context.Context, identity *model.Identity, key string) (model.Credential, error) {
	credential, err := Validate(key)
	if err != nil {
		return "", err
	}

	scope := ScopeFor(identity)
	if !scope.IsGuest() {
		if err := s.ClearGuest(ctx); err != nil {
			return "", err
		}
	}
	if err := s.backend.Put(ctx, scope.Key(), credential.Value()); err != nil {
		return "", model.NewError(model.KindRead, "Could not save the API key.", utils.WrapIfNotNil(err))
	}

	logging.NewLogger(ctx).WithField("scope", scope.String()).Info("credential saved")
	return credential, nil
}

// Clear removes the identity slot, if any, and the guest slot.
func (s *Store) Clear(ctx context.Context, identity *model.Identity) error {
	scope := ScopeFor(identity)
	if !scope.IsGuest() {
		if err := s.backend.Delete(ctx, scope.Key()); err != nil {
			return model.NewError(model.KindRead, "Could not remove the saved API key.", utils.WrapIfNotNil(err))
		}
	}
	return s.ClearGuest(ctx)
}

func (s *Store) ClearGuest(ctx context.Context) error {
	if err := s.backend.Delete(ctx, GuestScope().Key()); err != nil {
		return model.NewError(model.KindRead, "Could not remove the saved API key.", utils.WrapIfNotNil(err))
	}
	return nil
}
