package config

import "time"

type SessionConfig interface {
	GetMonitorInterval() time.Duration
	GetTokenHeader() string
	GetSessionCookieName() string
	GetLoginPath() string
	GetHTTPTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetMonitorInterval is how often the expiry monitor re-checks the stored credential
func (Session) GetMonitorInterval() time.Duration {
	return GetDurationEnv("MONITOR_INTERVAL", 60*time.Second)
}

// GetTokenHeader is the response header the remote API issues the credential in
func (Session) GetTokenHeader() string {
	return "access_token"
}

func (Session) GetSessionCookieName() string {
	return "SESSION-COOKIE"
}

func (Session) GetLoginPath() string {
	return "/v1/users/token"
}

func (Session) GetHTTPTimeout() time.Duration {
	return GetDurationEnv("HTTP_TIMEOUT", 30*time.Second)
}

