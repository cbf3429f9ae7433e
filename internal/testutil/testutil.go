package testutil

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/toolshop-apitest/authserverfake"
	"github.com/jrsteele09/toolshop-apitest/internal/config"
	"github.com/stretchr/testify/require"
)

// Clock is a settable clock safe to read from handler goroutines.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Stub is a fake auth server listening on a local port for the duration of a test.
type Stub struct {
	*authserverfake.Server
	URL   string
	Clock *Clock
}

// NewStub starts a fake auth server on its own clock. Extra options are applied after the clock.
func NewStub(t *testing.T, options ...authserverfake.ServerOption) *Stub {
	t.Helper()

	clock := NewClock(time.Now())
	opts := append([]authserverfake.ServerOption{authserverfake.WithNowFunc(clock.Now)}, options...)
	server, err := authserverfake.New(config.Stub{}, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return &Stub{Server: server, URL: ts.URL, Clock: clock}
}
