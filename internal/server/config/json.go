package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/alumnae/internal/flagx"
	"github.com/dmitrijs2005/alumnae/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both strings such as "30m" and integer nanoseconds. Zero values
// leave the corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	TokenIssuer             string         `json:"token_issuer"`
	TokenAudience           string         `json:"token_audience"`
	TokenValidityDuration   timex.Duration `json:"token_validity_duration"`
	BcryptCost              int            `json:"bcrypt_cost"`
	MaxLoginAttempts        int            `json:"max_login_attempts"`
	LockDuration            timex.Duration `json:"lock_duration"`
	RevocationSweepInterval timex.Duration `json:"revocation_sweep_interval"`
	LoginRateLimit          float64        `json:"login_rate_limit"`
	LoginRateBurst          int            `json:"login_rate_burst"`
	MaxUploadSize           int64          `json:"max_upload_size"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	PresignTTL              timex.Duration `json:"presign_ttl"`
	LogLevel                string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.TokenAudience, c.TokenAudience)
	setNonZero(&config.TokenValidityDuration, c.TokenValidityDuration.Duration)
	setNonZero(&config.BcryptCost, c.BcryptCost)
	setNonZero(&config.MaxLoginAttempts, c.MaxLoginAttempts)
	setNonZero(&config.LockDuration, c.LockDuration.Duration)
	setNonZero(&config.RevocationSweepInterval, c.RevocationSweepInterval.Duration)
	setNonZero(&config.LoginRateLimit, c.LoginRateLimit)
	setNonZero(&config.LoginRateBurst, c.LoginRateBurst)
	setNonZero(&config.MaxUploadSize, c.MaxUploadSize)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setNonZero(&config.PresignTTL, c.PresignTTL.Duration)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
