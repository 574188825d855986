package config

import (
	"os"
	"strings"
)

// envBindings maps environment variables onto string fields of Config.
var envBindings = []struct {
	name  string
	field func(c *Config) *string
}{
	{"HTTP_ADDR", func(c *Config) *string { return &c.HTTPAddr }},
	{"DATABASE_URL", func(c *Config) *string { return &c.DatabaseDSN }},
	{"JWT_SECRET", func(c *Config) *string { return &c.SecretKey }},
	{"LOG_FORMAT", func(c *Config) *string { return &c.LogFormat }},
	{"LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	{"ALLOWED_ORIGINS", func(c *Config) *string { return &c.AllowedOrigins }},
	{"KESTRA_URL", func(c *Config) *string { return &c.KestraURL }},
	{"KESTRA_USERNAME", func(c *Config) *string { return &c.KestraUsername }},
	{"KESTRA_PASSWORD", func(c *Config) *string { return &c.KestraPassword }},
	{"KESTRA_NAMESPACE", func(c *Config) *string { return &c.KestraNamespace }},
	{"CEREBRAS_API_KEY", func(c *Config) *string { return &c.CerebrasAPIKey }},
	{"S3_BUCKET", func(c *Config) *string { return &c.S3Bucket }},
	{"S3_ROOT_USER", func(c *Config) *string { return &c.S3RootUser }},
	{"S3_ROOT_PASSWORD", func(c *Config) *string { return &c.S3RootPassword }},
	{"S3_REGION", func(c *Config) *string { return &c.S3Region }},
	{"S3_BASE_ENDPOINT", func(c *Config) *string { return &c.S3BaseEndpoint }},
}

// parseEnv overlays non-empty environment variables. APP_ENV=production
// switches on Secure session cookies.
func parseEnv(config *Config) {
	for _, b := range envBindings {
		if v, ok := os.LookupEnv(b.name); ok && v != "" {
			*b.field(config) = v
		}
	}

	if v, ok := os.LookupEnv("APP_ENV"); ok {
		config.Production = strings.EqualFold(strings.TrimSpace(v), "production")
	}
}
