package config

type Config interface {
	EnvConfig
	SessionConfig
	RoutingConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetDataFolder() string
	GetLogLevel() string
	GetMetricsAddr() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Session
	Routing
	Storage
}

func New() Config {
	return mainConfig{}
}
