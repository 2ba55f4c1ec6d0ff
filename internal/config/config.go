package config

type Config interface {
	EnvConfig
	PoolConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type PoolConfig interface {
	GetDefaultPoolID() string
	GetUsernameAttributes() []string
}

type mainConfig struct {
	EnvVars
	PoolVars
}

func New() Config {
	return mainConfig{}
}
