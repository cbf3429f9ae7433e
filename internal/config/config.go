package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	ClientConfig
	StubConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetAdminEmail() string
	GetAdminPassword() string
}

type mainConfig struct {
	EnvVars
	Client
	Stub
}

func New() Config {
	return mainConfig{}
}

// LoadDotEnv loads variables from the given .env files (".env" when none are given).
// Missing files are not an error; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if fileExists(p) {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
