package config

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultTimeoutMS  = 60000
	DefaultMaxRetries = 2

	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DefaultCapacityBytes = 5 * 1024 * 1024
	DefaultCacheTTLHours = 24
)
