package config

// StoreConfig locates the two external stores and the optional Redis used by
// the login attempt limiter.
type StoreConfig interface {
	GetDatabaseURL() string
	GetCredentialServiceURL() string
	GetCredentialServiceKey() string
	GetRedisAddr() string
}

type Stores struct{}

var _ StoreConfig = Stores{}

func (Stores) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Stores) GetCredentialServiceURL() string {
	return GetEnv("CREDENTIAL_SERVICE_URL", "http://localhost:9999/auth/v1")
}

func (Stores) GetCredentialServiceKey() string {
	return GetEnv("CREDENTIAL_SERVICE_KEY", "")
}

// GetRedisAddr returns the Redis address for rate limiting; empty disables
// the limiter.
func (Stores) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}
