package identity

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackServerReturnsCodeOnSuccess(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)
	defer func() { _ = server.Close() }()

	resp, err := http.Get(server.RedirectURI() + "?code=auth-code&state=expected-state")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Signed in")

	code, err := server.WaitForCode(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code", code)
}

func TestCallbackServerRejectsStateMismatch(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)

	resp, err := http.Get(server.RedirectURI() + "?code=auth-code&state=forged")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, err = server.WaitForCode(context.Background(), 2*time.Second)
	require.ErrorIs(t, err, ErrStateMismatch)
}

func TestCallbackServerSurfacesProviderError(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)

	resp, err := http.Get(server.RedirectURI() + "?state=expected-state&error=access_denied&error_description=user+declined")
	require.NoError(t, err)
	_ = resp.Body.Close()

	_, err = server.WaitForCode(context.Background(), 2*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied: user declined")
}

func TestCallbackServerTimesOut(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)

	_, err = server.WaitForCode(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrCallbackTimeout)
}

func TestStartCallbackServerRequiresState(t *testing.T) {
	t.Parallel()

	_, err := StartCallbackServer("127.0.0.1:0", "")
	require.ErrorIs(t, err, ErrMissingState)
}
