package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads envFile (or ./.env when envFile is empty) into the process
// environment and overlays every recognised variable onto config.
//
// godotenv never overrides variables that are already set, so the real
// environment wins over the file. A missing ./.env is fine; a missing explicit
// envFile, or a malformed duration, panics like the other config layers.
//
// Variables:
//
//	HTTP_ADDR, DATABASE_DSN, JWT_SECRET, ACCESS_TOKEN_TTL, VERIFICATION_TOKEN_TTL,
//	CORS_ALLOWED_ORIGINS, LOG_LEVEL, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET,
//	S3_REGION, S3_BASE_ENDPOINT, KAFKA_BROKER, KAFKA_TOPIC, KAFKA_USERNAME,
//	KAFKA_PASSWORD
func parseEnv(config *Config, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	strVars := map[string]*string{
		"HTTP_ADDR":            &config.EndpointAddrHTTP,
		"DATABASE_DSN":         &config.DatabaseDSN,
		"JWT_SECRET":           &config.SecretKey,
		"CORS_ALLOWED_ORIGINS": &config.CORSAllowedOrigins,
		"LOG_LEVEL":            &config.LogLevel,
		"S3_ROOT_USER":         &config.S3RootUser,
		"S3_ROOT_PASSWORD":     &config.S3RootPassword,
		"S3_BUCKET":            &config.S3Bucket,
		"S3_REGION":            &config.S3Region,
		"S3_BASE_ENDPOINT":     &config.S3BaseEndpoint,
		"KAFKA_BROKER":         &config.KafkaBroker,
		"KAFKA_TOPIC":          &config.KafkaTopic,
		"KAFKA_USERNAME":       &config.KafkaUsername,
		"KAFKA_PASSWORD":       &config.KafkaPassword,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	durVars := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":       &config.AccessTokenValidityDuration,
		"VERIFICATION_TOKEN_TTL": &config.VerificationTokenValidityDuration,
	}
	for name, dst := range durVars {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}
