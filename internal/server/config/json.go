package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cookmate/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept strings such as "24h" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP                  string         `json:"endpoint_addr_http"`
	DatabaseDSN                       string         `json:"database_dsn"`
	SecretKey                         string         `json:"secret_key"`
	AccessTokenValidityDuration       timex.Duration `json:"access_token_validity_duration"`
	VerificationTokenValidityDuration timex.Duration `json:"verification_token_validity_duration"`
	CORSAllowedOrigins                string         `json:"cors_allowed_origins"`
	LogLevel                          string         `json:"log_level"`
	S3RootUser                        string         `json:"s3_root_user"`
	S3RootPassword                    string         `json:"s3_root_password"`
	S3Bucket                          string         `json:"s3_bucket"`
	S3Region                          string         `json:"s3_region"`
	S3BaseEndpoint                    string         `json:"s3_base_endpoint"`
	KafkaBroker                       string         `json:"kafka_broker"`
	KafkaTopic                        string         `json:"kafka_topic"`
	KafkaUsername                     string         `json:"kafka_username"`
	KafkaPassword                     string         `json:"kafka_password"`
}

// parseJson overlays the JSON file at path onto config. Only keys present
// with non-zero values override what earlier layers set. An empty path is a
// no-op; an unreadable file or invalid JSON panics.
func parseJson(config *Config, path string) {
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.CORSAllowedOrigins, c.CORSAllowedOrigins)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.KafkaBroker, c.KafkaBroker)
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.KafkaUsername, c.KafkaUsername)
	setString(&config.KafkaPassword, c.KafkaPassword)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.VerificationTokenValidityDuration.Duration > 0 {
		config.VerificationTokenValidityDuration = c.VerificationTokenValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
