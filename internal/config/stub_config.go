package config

import "time"

// StubConfig configures the in-process fake AuthServer.
type StubConfig interface {
	GetStubTokenExpiry() time.Duration
	GetStubSigningSecret() string
}

type Stub struct{}

var _ StubConfig = Stub{}

func (Stub) GetStubTokenExpiry() time.Duration {
	return getDuration("STUB_TOKEN_EXPIRY", 300*time.Second)
}

func (Stub) GetStubSigningSecret() string {
	return GetEnv("STUB_SIGNING_SECRET", "toolshop-stub-secret")
}
