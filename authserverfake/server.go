package authserverfake

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/toolshop-apitest/internal/config"
	"github.com/jrsteele09/toolshop-apitest/users"
	fakeuserrepo "github.com/jrsteele09/toolshop-apitest/users/repofake"
	"github.com/rs/zerolog/log"
)

const (
	DefaultIssuer   = "toolshop-stub"
	DefaultPassword = "welcome01"
)

// Stats counts the requests the stub has answered per endpoint.
type Stats struct {
	Logins    int
	Refreshes int
	Me        int
}

type cannedResponse struct {
	status int
	body   string
}

// Server is an in-process stand-in for the Toolshop auth endpoints.
type Server struct {
	mux         *http.ServeMux
	routes      []string
	userRepo    users.UserRepo
	signer      Signer
	revoked     *revocationList
	issuer      string
	tokenExpiry time.Duration
	nowFunc     func() time.Time

	mu           sync.Mutex
	stats        Stats
	refreshQueue []cannedResponse
}

type ServerOption func(*Server)

func WithNowFunc(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithUserRepo(repo users.UserRepo) ServerOption {
	return func(s *Server) {
		s.userRepo = repo
	}
}

func WithTokenExpiry(expiry time.Duration) ServerOption {
	return func(s *Server) {
		s.tokenExpiry = expiry
	}
}

func WithSigner(signer Signer) ServerOption {
	return func(s *Server) {
		s.signer = signer
	}
}

// New builds a stub seeded with the Toolshop admin and customer accounts.
func New(cfg config.StubConfig, options ...ServerOption) (*Server, error) {
	s := &Server{
		mux:         http.NewServeMux(),
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		signer:      NewHMACSigner(cfg.GetStubSigningSecret()),
		revoked:     newRevocationList(),
		issuer:      DefaultIssuer,
		tokenExpiry: cfg.GetStubTokenExpiry(),
		nowFunc:     time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	if err := s.seedAccounts(); err != nil {
		return nil, err
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc(RouteLogin, ChainMiddleware(s.Login(), s.APIMiddleware()...))
	s.RegisterRouteFunc(RouteRefresh, ChainMiddleware(s.Refresh(), s.APIMiddleware()...))
	s.RegisterRouteFunc(RouteMe, ChainMiddleware(s.Me(), s.APIMiddleware()...))
}

// LogRoutes writes the registered routes at info level.
func (s *Server) LogRoutes() {
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Info().Str("path", parts[0]).Msg("route")
		}
	}
}

// AddAccount registers an account that can log in with password.
func (s *Server) AddAccount(user users.User, password string) (*users.Account, error) {
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &users.Account{User: user, PasswordHash: hash}
	if err := s.userRepo.Upsert(account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Server) seedAccounts() error {
	seed := []users.User{
		{
			FirstName: "John",
			LastName:  "Doe",
			Email:     "admin@practicesoftwaretesting.com",
			Role:      users.RoleAdmin,
			City:      "Utrecht",
			Country:   "The Netherlands",
			DOB:       "1980-02-02",
		},
		{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "customer@practicesoftwaretesting.com",
			Role:      users.RoleUser,
			City:      "Vienna",
			Country:   "Austria",
			DOB:       "1980-02-02",
		},
	}
	for _, u := range seed {
		if existing, err := s.userRepo.GetByEmail(u.Email); err == nil && existing != nil {
			continue
		}
		if _, err := s.AddAccount(u, DefaultPassword); err != nil {
			return err
		}
	}
	return nil
}

// QueueRefreshResponse makes the next /users/refresh call answer with status and body,
// whatever token it carries. Queued responses are served in order.
func (s *Server) QueueRefreshResponse(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshQueue = append(s.refreshQueue, cannedResponse{status: status, body: body})
}

func (s *Server) nextCannedRefresh() (cannedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.refreshQueue) == 0 {
		return cannedResponse{}, false
	}
	next := s.refreshQueue[0]
	s.refreshQueue = s.refreshQueue[1:]
	return next, true
}

func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Server) count(f func(*Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(&s.stats)
}
