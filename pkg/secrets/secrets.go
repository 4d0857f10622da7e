// Package secrets defines the persisted key/value port the credential store writes through.
package secrets

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("secret not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
