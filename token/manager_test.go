package token_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/toolshop-apitest/internal/errors"
	"github.com/jrsteele09/toolshop-apitest/internal/testutil"
	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
	"github.com/jrsteele09/toolshop-apitest/sessions"
	"github.com/jrsteele09/toolshop-apitest/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	adminCreds = oauthmodel.Credentials{Email: "admin@practicesoftwaretesting.com", Password: "welcome01"}
	badCreds   = oauthmodel.Credentials{Email: "bad@x.com", Password: "wrong"}
)

// fakeAuthServer hands out tokens "tok-1", "tok-2", ... and counts calls.
type fakeAuthServer struct {
	mu             sync.Mutex
	issued         int
	invalid        map[string]bool
	refreshReplies []*oauthmodel.Response
	transportErr   error
	expiresIn      *int
	logins         int
	refreshes      int
	refreshTokens  []string
	inFlight       atomic.Int32
	maxInFlight    atomic.Int32
}

var _ token.AuthServer = (*fakeAuthServer)(nil)

func newFakeAuthServer() *fakeAuthServer {
	expiresIn := 300
	return &fakeAuthServer{invalid: make(map[string]bool), expiresIn: &expiresIn}
}

func (f *fakeAuthServer) enter() func() {
	n := f.inFlight.Add(1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeAuthServer) Login(_ context.Context, creds oauthmodel.Credentials) (*oauthmodel.Response, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logins++
	if f.transportErr != nil {
		return nil, f.transportErr
	}
	if creds != adminCreds {
		return reply(http.StatusUnauthorized, map[string]any{"error": "Unauthorized"}), nil
	}
	return f.issueLocked(), nil
}

func (f *fakeAuthServer) Refresh(_ context.Context, accessToken string) (*oauthmodel.Response, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refreshes++
	f.refreshTokens = append(f.refreshTokens, accessToken)
	if f.transportErr != nil {
		return nil, f.transportErr
	}
	if len(f.refreshReplies) > 0 {
		next := f.refreshReplies[0]
		f.refreshReplies = f.refreshReplies[1:]
		return next, nil
	}
	if accessToken == "" || f.invalid[accessToken] {
		return reply(http.StatusUnauthorized, map[string]any{"message": "Unauthorized"}), nil
	}
	return f.issueLocked(), nil
}

func (f *fakeAuthServer) issueLocked() *oauthmodel.Response {
	f.issued++
	body := map[string]any{
		"access_token": fmt.Sprintf("tok-%d", f.issued),
		"token_type":   "bearer",
	}
	if f.expiresIn != nil {
		body["expires_in"] = *f.expiresIn
	}
	return reply(http.StatusOK, body)
}

func reply(status int, body map[string]any) *oauthmodel.Response {
	raw, _ := json.Marshal(body)
	return oauthmodel.NewResponse(status, http.Header{}, raw)
}

type testFixture struct {
	auth    *fakeAuthServer
	session *sessions.Session
	clock   *testutil.Clock
	manager *token.Manager
}

func setupTestFixture(t *testing.T, options ...token.ManagerOption) *testFixture {
	t.Helper()

	f := &testFixture{
		auth:    newFakeAuthServer(),
		session: sessions.New(),
		clock:   testutil.NewClock(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)),
	}
	opts := append([]token.ManagerOption{
		token.WithNowFunc(f.clock.Now),
		token.WithLogger(zerolog.Nop()),
	}, options...)
	f.manager = token.New(f.auth, f.session, opts...)
	return f
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	resp, err := f.manager.Login(context.Background(), adminCreds)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_SetsDerivedFields(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.manager.Login(context.Background(), adminCreds)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := resp.TokenResponse()
	require.Equal(t, "bearer", body.TokenType)
	require.Equal(t, 300, *body.ExpiresIn)

	tok, ok := f.session.Token()
	require.True(t, ok)
	require.Equal(t, "tok-1", tok.AccessToken)
	require.Equal(t, f.clock.Now(), tok.IssuedAt)
	require.Equal(t, tok.IssuedAtEpochMs()+300000, tok.ExpiryEpochMs())

	creds, ok := f.session.Credentials()
	require.True(t, ok)
	require.Equal(t, adminCreds, creds)
	require.Equal(t, token.TokenFresh, f.manager.State())
}

func TestLogin_FailureLeavesSessionUnchanged(t *testing.T) {
	t.Run("fresh session", func(t *testing.T) {
		f := setupTestFixture(t)

		resp, err := f.manager.Login(context.Background(), badCreds)
		require.NoError(t, err, "a 401 is a result, not an error")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "Unauthorized", *resp.TokenResponse().Error)
		require.Equal(t, oauthmodel.ResultRejected, resp.Result.Kind)

		require.Empty(t, f.session.AccessToken())
		_, ok := f.session.Credentials()
		require.False(t, ok, "failed credentials are not remembered")
	})

	t.Run("existing token kept", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)

		resp, err := f.manager.Login(context.Background(), badCreds)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		require.Equal(t, "tok-1", f.session.AccessToken())
		creds, _ := f.session.Credentials()
		require.Equal(t, adminCreds, creds)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("renews the cached token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.clock.Advance(10 * time.Second)

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, []string{"tok-1"}, f.auth.refreshTokens)

		tok, _ := f.session.Token()
		require.Equal(t, "tok-2", tok.AccessToken)
		require.Equal(t, f.clock.Now(), tok.IssuedAt)
		creds, ok := f.session.Credentials()
		require.True(t, ok)
		require.Equal(t, adminCreds, creds)
	})

	t.Run("no token with credentials logs in", func(t *testing.T) {
		f := setupTestFixture(t)
		f.session.SetCredentials(adminCreds)

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 1, f.auth.logins)
		require.Zero(t, f.auth.refreshes)
		require.Equal(t, "tok-1", f.session.AccessToken())
	})

	t.Run("empty session surfaces the anonymous refresh", func(t *testing.T) {
		f := setupTestFixture(t)

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, []string{""}, f.auth.refreshTokens)
		require.Zero(t, f.auth.logins)
		require.Empty(t, f.session.AccessToken())
	})

	t.Run("invalid token falls back to login", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.auth.invalid["tok-1"] = true

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 2, f.auth.logins)
		require.Equal(t, "tok-2", f.session.AccessToken())
	})

	t.Run("malformed success falls back to login", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.auth.refreshReplies = append(f.auth.refreshReplies, reply(http.StatusOK, map[string]any{"token_type": "bearer"}))

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, oauthmodel.ResultSuccess, resp.Result.Kind)
		require.Equal(t, 2, f.auth.logins)
		require.Equal(t, "tok-2", f.session.AccessToken())
	})

	t.Run("server error falls back to login by default", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.auth.refreshReplies = append(f.auth.refreshReplies, reply(http.StatusInternalServerError, map[string]any{"message": "Server Error"}))

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "tok-2", f.session.AccessToken())
	})

	t.Run("strict policy surfaces server errors", func(t *testing.T) {
		f := setupTestFixture(t, token.WithStrictServerErrors(true))
		f.login(t)
		f.auth.refreshReplies = append(f.auth.refreshReplies, reply(http.StatusInternalServerError, map[string]any{"message": "Server Error"}))

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Equal(t, 1, f.auth.logins)
		require.Equal(t, "tok-1", f.session.AccessToken())
	})

	t.Run("rejected seed credentials leave no token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.session.SetCredentials(badCreds)

		resp, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Empty(t, f.session.AccessToken())

		_, err = f.manager.Login(context.Background(), adminCreds)
		require.NoError(t, err)
		creds, _ := f.session.Credentials()
		require.Equal(t, adminCreds, creds, "successful login replaces the seed")
	})

	t.Run("login then refresh never reverts", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		first, _ := f.session.Token()

		_, err := f.manager.Refresh(context.Background())
		require.NoError(t, err)

		second, _ := f.session.Token()
		require.NotEqual(t, first.AccessToken, second.AccessToken)
		require.False(t, second.IssuedAt.Before(first.IssuedAt))
		require.False(t, second.Expiry.Before(first.Expiry))
	})
}

func TestEnsureFreshToken(t *testing.T) {
	t.Run("fresh token is probed and kept", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)

		for i := 1; i <= 2; i++ {
			resp, err := f.manager.EnsureFreshToken(context.Background())
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, i, f.auth.refreshes, "one probe per call")
			require.Equal(t, "tok-1", f.session.AccessToken())
		}
		require.Equal(t, []string{"tok-1", "tok-1"}, f.auth.refreshTokens)
		require.Equal(t, 1, f.auth.logins)
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.session.SetExpiry(f.clock.Now().Add(-time.Second))
		before, _ := f.session.Expiry()

		resp, err := f.manager.EnsureFreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		after, ok := f.session.Expiry()
		require.True(t, ok)
		require.True(t, after.After(before))
		require.Equal(t, "tok-2", f.session.AccessToken())
	})

	t.Run("token inside the safety margin is refreshed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.clock.Advance(241 * time.Second)

		resp, err := f.manager.EnsureFreshToken(context.Background())
		require.NoError(t, err)
		require.NotEqual(t, "tok-1", *resp.TokenResponse().AccessToken)
		require.Equal(t, "tok-2", f.session.AccessToken())

		expiry, _ := f.session.Expiry()
		require.True(t, expiry.Sub(f.clock.Now()) >= token.DefaultSafetyMargin)
	})

	t.Run("unknown ttl is refreshed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.expiresIn = nil
		f.login(t)
		require.Equal(t, token.TokenStale, f.manager.State())

		_, err := f.manager.EnsureFreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"tok-1"}, f.auth.refreshTokens)
		require.Equal(t, "tok-2", f.session.AccessToken())
	})

	t.Run("credentials without token log in", func(t *testing.T) {
		f := setupTestFixture(t)
		f.session.SetCredentials(adminCreds)

		_, err := f.manager.EnsureFreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, f.auth.logins)
		require.Zero(t, f.auth.refreshes)
	})

	t.Run("empty session gets a defined failure", func(t *testing.T) {
		f := setupTestFixture(t)

		resp, err := f.manager.EnsureFreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired and invalid recovers through login", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.auth.invalid["tok-1"] = true
		f.session.SetExpiry(f.clock.Now().Add(-time.Second))

		resp, err := f.manager.EnsureFreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "tok-2", f.session.AccessToken())
		require.Equal(t, token.TokenFresh, f.manager.State())
	})
}

func TestTransportFault(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.session.SetExpiry(f.clock.Now().Add(-time.Second))
	before, _ := f.session.Token()

	f.auth.transportErr = fmt.Errorf("%w: dial tcp: connection refused", apperrors.ErrTransport)

	for name, call := range map[string]func(context.Context) (*oauthmodel.Response, error){
		"refresh": f.manager.Refresh,
		"ensure":  f.manager.EnsureFreshToken,
		"login": func(ctx context.Context) (*oauthmodel.Response, error) {
			return f.manager.Login(ctx, adminCreds)
		},
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := call(context.Background())
			require.Error(t, err)
			require.Nil(t, resp)
			require.True(t, errors.Is(err, apperrors.ErrTransport))

			after, _ := f.session.Token()
			require.Equal(t, before, after, "session untouched")
		})
	}
}

func TestTokenSource(t *testing.T) {
	t.Run("fresh token needs no call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)

		tok, err := f.manager.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, "tok-1", tok.AccessToken)
		require.Equal(t, "Bearer", tok.Type())
		require.Zero(t, f.auth.refreshes)
	})

	t.Run("stale token is renewed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.session.SetExpiry(f.clock.Now())

		tok, err := f.manager.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, "tok-2", tok.AccessToken)
	})

	t.Run("nothing to authenticate with", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.manager.TokenSource(context.Background()).Token()
		require.Error(t, err)
		require.True(t, errors.Is(err, apperrors.ErrNoToken))
	})

	t.Run("failed recovery does not hand out the stale token", func(t *testing.T) {
		f := setupTestFixture(t, token.WithStrictServerErrors(true))
		f.login(t)
		f.session.SetExpiry(f.clock.Now().Add(-time.Second))
		f.auth.refreshReplies = append(f.auth.refreshReplies, reply(http.StatusInternalServerError, map[string]any{"message": "Server Error"}))

		tok, err := f.manager.TokenSource(context.Background()).Token()
		require.Error(t, err)
		require.Nil(t, tok)
		require.True(t, errors.Is(err, apperrors.ErrNoToken))
		require.Contains(t, err.Error(), "500")
		require.Equal(t, "tok-1", f.session.AccessToken(), "session untouched")
	})

	t.Run("recovered through login", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.session.SetExpiry(f.clock.Now().Add(-time.Second))
		f.auth.invalid["tok-1"] = true

		tok, err := f.manager.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, "tok-2", tok.AccessToken)
	})
}

func TestManager_SerializesAuthCalls(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	errs := make(chan error, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Refresh(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int32(1), f.auth.maxInFlight.Load())
	require.Equal(t, "tok-9", f.session.AccessToken())
}
