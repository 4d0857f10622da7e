package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/credentials"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/identity"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/secrets/memory"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type tokenConsent struct{}

func (tokenConsent) RequestToken(context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "ya29.reset"}, nil
}

type fixedUserInfo struct{}

func (fixedUserInfo) Lookup(context.Context, *oauth2.Token) (*model.Identity, error) {
	return &model.Identity{ID: "u-77", Email: "grace@example.com"}, nil
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	identitySession := identity.NewSession(func(context.Context) (identity.ConsentClient, error) {
		return tokenConsent{}, nil
	}, fixedUserInfo{})
	sess := session.New(identitySession, credentials.NewStore(backend))
	sess.Start(ctx)
	require.Equal(t, identity.InitReady, identitySession.WaitInitialized(ctx))

	_, err := sess.SignIn(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SaveCredential(ctx, "AIza-user-key-0042"))

	path := filepath.Join(t.TempDir(), "clip.m4a")
	require.NoError(t, os.WriteFile(path, []byte("ftyp-m4a"), 0o600))

	orch := New(sess, &stubSummarizer{result: meetingResult}, nil)
	_, err = orch.SelectLocal(ctx, path)
	require.NoError(t, err)
	_, err = orch.Submit(ctx, "English")
	require.NoError(t, err)

	require.NoError(t, orch.Reset(ctx))

	status := sess.Status()
	assert.Nil(t, status.Identity)
	assert.False(t, status.HasToken)
	assert.Nil(t, sess.Token())
	assert.False(t, status.HasCredential)
	_, ok := orch.Audio()
	assert.False(t, ok)
	_, ok = orch.Result()
	assert.False(t, ok)
	assert.NoError(t, orch.Err())
	assert.Empty(t, backend.Keys())
}
