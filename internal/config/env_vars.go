package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar          = "PORT"
	appNameVar          = "APP_NAME"
	baseURLVar          = "BASE_URL"
	logLevelVar         = "LOG_LEVEL"
	adminEmailEnvVar    = "ADMIN_EMAIL"
	adminPasswordEnvVar = "ADMIN_PASSWORD"

	DefaultBaseURL       = "https://api.practicesoftwaretesting.com"
	DefaultAdminEmail    = "admin@practicesoftwaretesting.com"
	DefaultAdminPassword = "welcome01"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8091")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Toolshop API")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetBaseURL returns the API root every request path is appended to (no trailing slash).
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, DefaultBaseURL), "/")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetAdminEmail() string {
	return GetEnv(adminEmailEnvVar, DefaultAdminEmail)
}

func (EnvVars) GetAdminPassword() string {
	return GetEnv(adminPasswordEnvVar, DefaultAdminPassword)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
