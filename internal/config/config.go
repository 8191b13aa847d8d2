package config

type Config interface {
	EnvConfig
	StoreConfig
	ReconcileConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Stores
	Reconcile
	Security
}

func New() Config {
	return mainConfig{}
}
