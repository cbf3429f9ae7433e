package api_test

import (
	"os"
	"time"

	"github.com/jrsteele09/toolshop-apitest/authclient"
	"github.com/jrsteele09/toolshop-apitest/internal/config"
	"github.com/jrsteele09/toolshop-apitest/internal/testutil"
	"github.com/jrsteele09/toolshop-apitest/oauthmodel"
	"github.com/jrsteele09/toolshop-apitest/sessions"
	"github.com/jrsteele09/toolshop-apitest/token"
	"github.com/jrsteele09/toolshop-apitest/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

const liveURLEnvVar = "TOOLSHOP_API_URL"

// apiSuite wires a token manager to either the fake auth server or a live deployment.
type apiSuite struct {
	suite.Suite

	cfg     config.Config
	baseURL string
	stub    *testutil.Stub
	session *sessions.Session
	manager *token.Manager

	validAdmin         oauthmodel.Credentials
	invalidCredentials oauthmodel.Credentials
}

func (s *apiSuite) SetupSuite() {
	s.cfg = config.New()
	s.validAdmin = oauthmodel.Credentials{Email: s.cfg.GetAdminEmail(), Password: s.cfg.GetAdminPassword()}
	s.invalidCredentials = oauthmodel.Credentials{Email: "invalid@example.com", Password: "wrongpassword"}

	s.baseURL = os.Getenv(liveURLEnvVar)
	if s.baseURL == "" {
		s.stub = testutil.NewStub(s.T())
		s.baseURL = s.stub.URL
	}

	client := authclient.New(s.baseURL, s.cfg, authclient.WithLogger(zerolog.Nop()))
	s.session = sessions.New()
	s.manager = token.New(client, s.session,
		token.WithNowFunc(s.now),
		token.WithSafetyMargin(s.cfg.GetSafetyMargin()),
		token.WithStrictServerErrors(s.cfg.GetStrictServerErrors()),
		token.WithLogger(zerolog.Nop()),
	)
}

func (s *apiSuite) now() time.Time {
	if s.stub != nil {
		return s.stub.Clock.Now()
	}
	return time.Now()
}

func (s *apiSuite) isLive() bool {
	return s.stub == nil
}

// usersClient returns a /users client authenticated through the manager, or an anonymous
// one when authenticated is false.
func (s *apiSuite) usersClient(authenticated bool) *users.Client {
	if !authenticated {
		return users.NewClient(s.baseURL, nil, s.cfg.GetRequestTimeout(), s.cfg.GetDefaultHeaders())
	}
	return users.NewClient(s.baseURL, s.manager.TokenSource(s.T().Context()), s.cfg.GetRequestTimeout(), s.cfg.GetDefaultHeaders())
}
