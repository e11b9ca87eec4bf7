package constant

import "time"

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultBaseURL   = "https://api.depined.org"
	DefaultOrigin    = "chrome-extension://pjlappmodaidbdjhmhifbnnmmkkicjoc"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

	DefaultPingInterval  = 30 * time.Second
	DefaultClaimInterval = 24 * time.Hour
	DefaultStagger       = 5 * time.Second

	DefaultSubjectPrefix = "depined.agent"

	// ClaimSuccessCode is the body code the claim endpoint reports on success.
	ClaimSuccessCode = 200
)
