package config

import (
	"strconv"
	"time"
)

type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetSafetyMargin() time.Duration
	GetDefaultHeaders() map[string]string
	GetStrictServerErrors() bool
}

type Client struct{}

var _ ClientConfig = Client{}

// GetRequestTimeout bounds every AuthServer round trip. REQUEST_TIMEOUT accepts a Go duration ("10s").
func (Client) GetRequestTimeout() time.Duration {
	return getDuration("REQUEST_TIMEOUT", 10*time.Second)
}

// GetSafetyMargin is the lead time before expiry at which a cached token counts as stale.
func (Client) GetSafetyMargin() time.Duration {
	return 60 * time.Second
}

func (Client) GetDefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
}

// GetStrictServerErrors stops a 5xx refresh response from triggering a re-login.
func (Client) GetStrictServerErrors() bool {
	v, err := strconv.ParseBool(GetEnv("STRICT_SERVER_ERRORS", "false"))
	return err == nil && v
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
