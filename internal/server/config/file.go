package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/flagx"
	"github.com/dmitrijs2005/ideforge/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Every field is a
// pointer so that keys missing from the file leave the current value alone.
// Durations use timex.Duration ("5s", "168h", or nanoseconds).
type FileConfig struct {
	HTTPAddr              *string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN           *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey             *string         `json:"secret_key" yaml:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration" yaml:"token_validity_duration"`
	Production            *bool           `json:"production" yaml:"production"`
	LogFormat             *string         `json:"log_format" yaml:"log_format"`
	LogLevel              *string         `json:"log_level" yaml:"log_level"`
	AllowedOrigins        *string         `json:"allowed_origins" yaml:"allowed_origins"`
	AuthRateLimit         *int            `json:"auth_rate_limit" yaml:"auth_rate_limit"`
	KestraURL             *string         `json:"kestra_url" yaml:"kestra_url"`
	KestraUsername        *string         `json:"kestra_username" yaml:"kestra_username"`
	KestraPassword        *string         `json:"kestra_password" yaml:"kestra_password"`
	KestraNamespace       *string         `json:"kestra_namespace" yaml:"kestra_namespace"`
	KestraProvisionFlow   *string         `json:"kestra_provision_flow" yaml:"kestra_provision_flow"`
	KestraTerminateFlow   *string         `json:"kestra_terminate_flow" yaml:"kestra_terminate_flow"`
	KestraMessageFlow     *string         `json:"kestra_message_flow" yaml:"kestra_message_flow"`
	CerebrasAPIKey        *string         `json:"cerebras_api_key" yaml:"cerebras_api_key"`
	CerebrasBaseURL       *string         `json:"cerebras_base_url" yaml:"cerebras_base_url"`
	CerebrasModel         *string         `json:"cerebras_model" yaml:"cerebras_model"`
	ProbeTimeout          *timex.Duration `json:"probe_timeout" yaml:"probe_timeout"`
	SyncInterval          *timex.Duration `json:"sync_interval" yaml:"sync_interval"`
	S3RootUser            *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region              *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. A missing
// flag is a no-op; an unreadable or malformed file panics, like a bad flag.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setDuration(&c.TokenValidityDuration, fc.TokenValidityDuration)
	if fc.Production != nil {
		c.Production = *fc.Production
	}
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.AllowedOrigins, fc.AllowedOrigins)
	if fc.AuthRateLimit != nil {
		c.AuthRateLimit = *fc.AuthRateLimit
	}
	setString(&c.KestraURL, fc.KestraURL)
	setString(&c.KestraUsername, fc.KestraUsername)
	setString(&c.KestraPassword, fc.KestraPassword)
	setString(&c.KestraNamespace, fc.KestraNamespace)
	setString(&c.KestraProvisionFlow, fc.KestraProvisionFlow)
	setString(&c.KestraTerminateFlow, fc.KestraTerminateFlow)
	setString(&c.KestraMessageFlow, fc.KestraMessageFlow)
	setString(&c.CerebrasAPIKey, fc.CerebrasAPIKey)
	setString(&c.CerebrasBaseURL, fc.CerebrasBaseURL)
	setString(&c.CerebrasModel, fc.CerebrasModel)
	setDuration(&c.ProbeTimeout, fc.ProbeTimeout)
	setDuration(&c.SyncInterval, fc.SyncInterval)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
